package arango

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ExecContext identifies how an executor turns requests into results.
type ExecContext uint8

const (
	// ContextDefault executes requests synchronously, one round trip each.
	ContextDefault ExecContext = iota

	// ContextAsync queues requests on the server and returns job handles.
	ContextAsync

	// ContextBatch queues requests client-side and commits them as one
	// multipart call.
	ContextBatch

	// ContextTransaction queues transaction-safe commands and commits them as
	// one atomic server-side script.
	ContextTransaction
)

func (c ExecContext) String() string {
	switch c {
	case ContextAsync:
		return "async"
	case ContextBatch:
		return "batch"
	case ContextTransaction:
		return "transaction"
	default:
		return "default"
	}
}

// ResponseHandler maps a raw Response to a domain-level result or a typed
// error. Handlers are the only place response bodies are classified into
// success or failure.
type ResponseHandler func(resp *Response) (any, error)

// Executor decides how an API request is executed. The returned value is the
// handler's result in the default context, and the queued or issued Job (or
// nil when results are discarded) in the deferred contexts.
type Executor interface {
	Context() ExecContext
	Execute(ctx context.Context, req *Request, handle ResponseHandler) (any, error)
}

type defaultExecutor struct {
	conn *Connection
}

func newDefaultExecutor(conn *Connection) *defaultExecutor {
	return &defaultExecutor{conn: conn}
}

func (*defaultExecutor) Context() ExecContext {
	return ContextDefault
}

func (e *defaultExecutor) Execute(ctx context.Context, req *Request, handle ResponseHandler) (any, error) {
	resp, err := e.conn.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	return handle(resp)
}

type asyncExecutor struct {
	conn         *Connection
	returnResult bool
}

func newAsyncExecutor(conn *Connection, returnResult bool) *asyncExecutor {
	return &asyncExecutor{conn: conn, returnResult: returnResult}
}

func (*asyncExecutor) Context() ExecContext {
	return ContextAsync
}

// Execute sends the request with the async header set; the server queues the
// work and answers immediately. The enqueueing round trip itself must
// succeed.
func (e *asyncExecutor) Execute(ctx context.Context, req *Request, handle ResponseHandler) (any, error) {
	headers := make(map[string]string, len(req.Headers)+1)
	for key, val := range req.Headers {
		headers[key] = val
	}

	if e.returnResult {
		headers["x-arango-async"] = "store"
	} else {
		headers["x-arango-async"] = "true"
	}

	queued := *req
	queued.Headers = headers

	resp, err := e.conn.Send(ctx, &queued)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, newServerError("async execute", resp)
	}

	if !e.returnResult {
		return nil, nil
	}

	jobID := resp.Headers.Get("X-Arango-Async-Id")

	return NewAsyncJob(e.conn, jobID, handle), nil
}

type batchEntry struct {
	req *Request
	job *BatchJob
}

type batchExecutor struct {
	conn         *Connection
	returnResult bool
	queue        []*batchEntry
	index        map[string]*batchEntry
	committed    bool
}

func newBatchExecutor(conn *Connection, returnResult bool) *batchExecutor {
	return &batchExecutor{
		conn:         conn,
		returnResult: returnResult,
		index:        make(map[string]*batchEntry),
	}
}

func (*batchExecutor) Context() ExecContext {
	return ContextBatch
}

// Execute puts the request in the batch queue. Nothing is sent until Commit.
func (e *batchExecutor) Execute(_ context.Context, req *Request, handle ResponseHandler) (any, error) {
	if e.committed {
		return nil, ErrBatchCommitted
	}

	job := newBatchJob(handle)
	entry := &batchEntry{req: req, job: job}

	e.queue = append(e.queue, entry)
	e.index[job.ID()] = entry

	if !e.returnResult {
		return nil, nil
	}

	return job, nil
}

// Jobs returns the queued jobs in insertion order, or nil when results were
// not requested.
func (e *batchExecutor) Jobs() []*BatchJob {
	if !e.returnResult {
		return nil
	}

	jobs := make([]*BatchJob, 0, len(e.queue))
	for _, entry := range e.queue {
		jobs = append(jobs, entry.job)
	}

	return jobs
}

// Commit sends the queued requests as a single multipart call and populates
// the jobs with their response slices. A batch commits at most once; on a
// failed commit the jobs stay pending permanently.
func (e *batchExecutor) Commit(ctx context.Context) ([]*BatchJob, error) {
	if e.committed {
		return nil, ErrBatchCommitted
	}

	e.committed = true

	if len(e.queue) == 0 {
		return e.Jobs(), nil
	}

	boundary := newBoundary()

	parts := make([]batchPartRequest, 0, len(e.queue))

	for _, entry := range e.queue {
		wire, err := entry.req.WireFormat()
		if err != nil {
			return nil, err
		}

		parts = append(parts, batchPartRequest{ContentID: entry.job.ID(), Body: wire})
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/batch",
		Headers: map[string]string{
			headerContentType: "multipart/form-data; boundary=" + boundary,
		},
		Data: encodeBatchRequest(boundary, parts),
	}

	resp, err := e.conn.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, newServerError("batch commit", resp)
	}

	if !e.returnResult {
		return nil, nil
	}

	respParts, err := decodeBatchResponse(boundary, string(resp.RawBody))
	if err != nil {
		return nil, err
	}

	if len(respParts) != len(e.queue) {
		return nil, fmt.Errorf("%w: expecting %d parts but got %d",
			ErrBadBatchResponse, len(e.queue), len(respParts))
	}

	for _, part := range respParts {
		entry, ok := e.index[part.ContentID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown content id %q", ErrBadBatchResponse, part.ContentID)
		}

		entry.job.complete(newResponse(
			entry.req.Method,
			e.conn.URLPrefix()+entry.req.Path,
			http.Header{},
			part.StatusCode,
			part.StatusText,
			[]byte(part.Body),
		))
	}

	return e.Jobs(), nil
}

type txnEntry struct {
	req *Request
	job *TransactionJob
}

// TransactionOptions configure a client-side transaction session.
type TransactionOptions struct {
	// Read and Write pre-declare collection names; names declared by queued
	// requests are merged in on commit.
	Read  []string
	Write []string

	// LockTimeout bounds the wait on collection locks, in seconds.
	LockTimeout *int

	// Sync blocks the commit until the transaction is synchronized to disk.
	Sync *bool
}

type transactionExecutor struct {
	conn         *Connection
	returnResult bool
	read         []string
	write        []string
	lockTimeout  *int
	sync         *bool
	queue        []*txnEntry
	committed    bool
}

func newTransactionExecutor(conn *Connection, returnResult bool, opts TransactionOptions) *transactionExecutor {
	return &transactionExecutor{
		conn:         conn,
		returnResult: returnResult,
		read:         opts.Read,
		write:        opts.Write,
		lockTimeout:  opts.LockTimeout,
		sync:         opts.Sync,
	}
}

func (*transactionExecutor) Context() ExecContext {
	return ContextTransaction
}

// Execute puts the request in the transaction queue. Requests without a
// transaction command are rejected before any network traffic happens.
func (e *transactionExecutor) Execute(_ context.Context, req *Request, handle ResponseHandler) (any, error) {
	if e.committed {
		return nil, ErrTransactionCommitted
	}

	if req.Command == "" {
		return nil, fmt.Errorf("%w: %s %s", ErrNoTransactionCommand, req.Method, req.Path)
	}

	job := newTransactionJob(handle)
	e.queue = append(e.queue, &txnEntry{req: req, job: job})

	if !e.returnResult {
		return nil, nil
	}

	return job, nil
}

// Jobs returns the queued jobs in insertion order, or nil when results were
// not requested.
func (e *transactionExecutor) Jobs() []*TransactionJob {
	if !e.returnResult {
		return nil
	}

	jobs := make([]*TransactionJob, 0, len(e.queue))
	for _, entry := range e.queue {
		jobs = append(jobs, entry.job)
	}

	return jobs
}

// Commit folds the queued commands into one Javascript function and executes
// it atomically on the server. Queued order is preserved: later commands may
// depend on earlier ones through the shared db handle.
func (e *transactionExecutor) Commit(ctx context.Context) ([]*TransactionJob, error) {
	if e.committed {
		return nil, ErrTransactionCommitted
	}

	e.committed = true

	if len(e.queue) == 0 {
		return e.Jobs(), nil
	}

	readSet := make(map[string]struct{})
	writeSet := make(map[string]struct{})

	for _, name := range e.read {
		readSet[name] = struct{}{}
	}

	for _, name := range e.write {
		writeSet[name] = struct{}{}
	}

	commands := []string{
		`var db = require("internal").db`,
		`var gm = require("@arangodb/general-graph")`,
		`var result = {}`,
	}

	for _, entry := range e.queue {
		for _, name := range entry.req.Read {
			readSet[name] = struct{}{}
		}

		for _, name := range entry.req.Write {
			writeSet[name] = struct{}{}
		}

		commands = append(commands, fmt.Sprintf("result[%q] = %s", entry.job.ID(), entry.req.Command))
	}

	commands = append(commands, "return result;")

	data := map[string]any{
		"action": "function () { " + strings.Join(commands, ";") + " }",
		"collections": map[string]any{
			"read":          sortedNames(readSet),
			"write":         sortedNames(writeSet),
			"allowImplicit": true,
		},
	}

	if e.lockTimeout != nil {
		data["lockTimeout"] = *e.lockTimeout
	}

	if e.sync != nil {
		data["waitForSync"] = *e.sync
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/transaction",
		Data:   data,
	}

	resp, err := e.conn.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, newServerError("transaction commit", resp)
	}

	if !e.returnResult {
		return nil, nil
	}

	result, _ := resp.bodyField("result").(map[string]any)

	for _, entry := range e.queue {
		entry.job.complete(newResponse(
			entry.req.Method,
			e.conn.URLPrefix()+entry.req.Path,
			http.Header{},
			http.StatusOK,
			http.StatusText(http.StatusOK),
			[]byte(mustJSON(result[entry.job.ID()])),
		))
	}

	return e.Jobs(), nil
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
