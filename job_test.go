package arango

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJobStatusString(t *testing.T) {
	require.Equal(t, "pending", JobPending.String())
	require.Equal(t, "done", JobDone.String())
	require.Equal(t, "cancelled", JobCancelled.String())
}

func TestNewJobID(t *testing.T) {
	id := newJobID()

	require.Len(t, id, 32)
	require.NotContains(t, id, "-")
	require.NotEqual(t, id, newJobID())
}

func TestAsyncJobCancel(t *testing.T) {
	conn := newTestConnection(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)

		if r.URL.Path == "/_db/test/_api/job/1001/cancel" {
			jsonHandler(http.StatusOK, `{}`)(w, r)
			return
		}

		jsonHandler(http.StatusNotFound, `{"error":true,"errorNum":404,"code":404}`)(w, r)
	}))

	job := NewAsyncJob(conn, "1001", nil)

	cancelled, err := job.Cancel(context.Background(), false)
	require.NoError(t, err)
	require.True(t, cancelled)

	missing := NewAsyncJob(conn, "9999", nil)

	cancelled, err = missing.Cancel(context.Background(), true)
	require.NoError(t, err)
	require.False(t, cancelled)

	_, err = missing.Cancel(context.Background(), false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "job 9999 not found")
}

func TestAsyncJobClear(t *testing.T) {
	conn := newTestConnection(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)

		if r.URL.Path == "/_db/test/_api/job/1001" {
			jsonHandler(http.StatusOK, `{}`)(w, r)
			return
		}

		jsonHandler(http.StatusNotFound, `{"error":true,"errorNum":404,"code":404}`)(w, r)
	}))

	job := NewAsyncJob(conn, "1001", nil)

	cleared, err := job.Clear(context.Background(), false)
	require.NoError(t, err)
	require.True(t, cleared)

	missing := NewAsyncJob(conn, "9999", nil)

	cleared, err = missing.Clear(context.Background(), true)
	require.NoError(t, err)
	require.False(t, cleared)

	_, err = missing.Clear(context.Background(), false)
	require.True(t, IsJobMissing(err))
}

func TestAsyncJobResult_NotDone(t *testing.T) {
	conn := newTestConnection(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// No X-Arango-Async-Id header: the job has not produced a result.
		w.WriteHeader(http.StatusNoContent)
	}))

	job := NewAsyncJob(conn, "1001", nil)

	_, err := job.Result(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "job 1001 not done")
}

func TestDeferredJob_ResultCachedAcrossCalls(t *testing.T) {
	handlerCalls := 0

	job := newBatchJob(func(resp *Response) (any, error) {
		handlerCalls++
		return resp.Body(), nil
	})

	job.complete(newResponse(http.MethodPost, "http://localhost/_api/document/users", nil,
		http.StatusAccepted, "Accepted", []byte(`{"_key":"john"}`)))

	for i := 0; i < 3; i++ {
		value, err := job.Result(context.Background())
		require.NoError(t, err)
		require.Equal(t, "john", value.(map[string]any)["_key"])
	}

	require.Equal(t, 1, handlerCalls)
}
