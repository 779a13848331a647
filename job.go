package arango

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// JobStatus is the progress of a deferred API execution.
type JobStatus uint8

const (
	// JobPending means the result is not available yet.
	JobPending JobStatus = iota

	// JobDone means the result can be retrieved.
	JobDone

	// JobCancelled means the job was cancelled before completion. Only async
	// jobs can be cancelled.
	JobCancelled
)

func (s JobStatus) String() string {
	switch s {
	case JobDone:
		return "done"
	case JobCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// Job is a handle to the not-yet-materialized result of a previously issued
// operation. Jobs are not safe for concurrent use.
type Job interface {
	ID() string
	Status(ctx context.Context) (JobStatus, error)
	Result(ctx context.Context) (any, error)
}

// AsyncJob tracks an API execution queued on the server. Status and result
// each cost an HTTP round trip; no job state is cached client-side beyond the
// identifier.
type AsyncJob struct {
	conn   *Connection
	id     string
	handle ResponseHandler
}

// NewAsyncJob builds a handle for a server-side job id. The connection is
// injected explicitly so a job can be polled over different credentials than
// the ones that created it.
func NewAsyncJob(conn *Connection, id string, handle ResponseHandler) *AsyncJob {
	return &AsyncJob{conn: conn, id: id, handle: handle}
}

// ID returns the server-assigned job id.
func (j *AsyncJob) ID() string {
	return j.id
}

// Status asks the server for the job's progress.
func (j *AsyncJob) Status(ctx context.Context) (JobStatus, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/job/" + j.id,
	}

	resp, err := j.conn.Send(ctx, req)
	if err != nil {
		return JobPending, err
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return JobPending, nil
	case resp.IsSuccess():
		return JobDone, nil
	case resp.StatusCode == http.StatusNotFound:
		return JobPending, newServerErrorMessage("async job status", resp, "job "+j.id+" not found")
	default:
		return JobPending, newServerError("async job status", resp)
	}
}

// Result fetches the job result and applies the stored response handler.
// Retrieval is destructive: the server deletes the result on first fetch and
// subsequent calls fail with a not-found error.
func (j *AsyncJob) Result(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodPut,
		Path:   "/_api/job/" + j.id,
	}

	resp, err := j.conn.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.Headers.Get("X-Arango-Async-Id") != "" {
		return j.handle(resp)
	}

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, newServerErrorMessage("async job result", resp, "job "+j.id+" not done")
	case http.StatusNotFound:
		return nil, newServerErrorMessage("async job result", resp, "job "+j.id+" not found")
	default:
		return nil, newServerError("async job result", resp)
	}
}

// Cancel stops the job if it is still in the server queue. A job that already
// left the queue cannot be cancelled. With ignoreMissing set, an unknown job
// id yields false instead of an error.
func (j *AsyncJob) Cancel(ctx context.Context, ignoreMissing bool) (bool, error) {
	req := &Request{
		Method: http.MethodPut,
		Path:   "/_api/job/" + j.id + "/cancel",
	}

	resp, err := j.conn.Send(ctx, req)
	if err != nil {
		return false, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		if ignoreMissing {
			return false, nil
		}

		return false, newServerErrorMessage("async job cancel", resp, "job "+j.id+" not found")
	default:
		return false, newServerError("async job cancel", resp)
	}
}

// Clear deletes the job result from the server without retrieving it.
func (j *AsyncJob) Clear(ctx context.Context, ignoreMissing bool) (bool, error) {
	req := &Request{
		Method: http.MethodDelete,
		Path:   "/_api/job/" + j.id,
	}

	resp, err := j.conn.Send(ctx, req)
	if err != nil {
		return false, err
	}

	switch {
	case resp.IsSuccess():
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		if ignoreMissing {
			return false, nil
		}

		return false, newServerErrorMessage("async job clear", resp, "job "+j.id+" not found")
	default:
		return false, newServerError("async job clear", resp)
	}
}

// deferredJob is the shared core of batch and transaction jobs: a client-side
// correlation id, a status that flips to done on commit, and a handler that
// resolves against the assigned response slice exactly once.
type deferredJob struct {
	id     string
	status JobStatus
	resp   *Response
	handle ResponseHandler

	resolved bool
	value    any
	err      error
}

func newDeferredJob(handle ResponseHandler) deferredJob {
	return deferredJob{id: newJobID(), handle: handle}
}

// ID returns the client-generated correlation id.
func (j *deferredJob) ID() string {
	return j.id
}

// Status reports the job progress. It never contacts the server; the status
// flips to done when the owning executor commits.
func (j *deferredJob) Status(_ context.Context) (JobStatus, error) {
	return j.status, nil
}

// Result applies the stored handler to the response slice assigned at commit.
// The outcome is computed once and cached; handler failures come back as the
// error value so callers can inspect partial failures without unwinding.
func (j *deferredJob) Result(_ context.Context) (any, error) {
	if j.status != JobDone {
		return nil, fmt.Errorf("%w: job %s", ErrResultPending, j.id)
	}

	if !j.resolved {
		j.value, j.err = j.handle(j.resp)
		j.resolved = true
	}

	return j.value, j.err
}

func (j *deferredJob) complete(resp *Response) {
	j.resp = resp
	j.status = JobDone
}

// BatchJob resolves to one part of a committed batch response.
type BatchJob struct {
	deferredJob
}

func newBatchJob(handle ResponseHandler) *BatchJob {
	return &BatchJob{deferredJob: newDeferredJob(handle)}
}

// TransactionJob resolves to one command's slice of a committed transaction
// result.
type TransactionJob struct {
	deferredJob
}

func newTransactionJob(handle ResponseHandler) *TransactionJob {
	return &TransactionJob{deferredJob: newDeferredJob(handle)}
}

func newJobID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func newBoundary() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
