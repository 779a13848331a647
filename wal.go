package arango

import (
	"context"
	"net/http"
)

// WAL is the write-ahead log API of the server.
type WAL struct {
	apiWrapper
}

func newWAL(conn *Connection, exec Executor) *WAL {
	return &WAL{apiWrapper: newAPIWrapper(conn, exec)}
}

// Properties returns the write-ahead log configuration.
func (w *WAL) Properties(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_admin/wal/properties",
	}

	return w.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("wal properties", resp)
		}

		return resp.Body(), nil
	})
}

// WALOptions are the configurable write-ahead log properties. Nil fields are
// left unchanged.
type WALOptions struct {
	// OversizedOps executes and stores operations bigger than one log file.
	OversizedOps *bool

	// LogSize is the size of each write-ahead log file in bytes.
	LogSize *int

	// HistoricLogs is the number of historic log files to keep.
	HistoricLogs *int

	// ReserveLogs is the number of reserve log files to allocate.
	ReserveLogs *int

	// ThrottleWait is the wait time before aborting when throttled, in
	// milliseconds.
	ThrottleWait *int

	// ThrottleLimit is the number of pending garbage collector operations
	// that triggers write-throttling.
	ThrottleLimit *int
}

// Configure updates the write-ahead log configuration and returns the new
// one.
func (w *WAL) Configure(ctx context.Context, opts WALOptions) (any, error) {
	data := map[string]any{}

	if opts.OversizedOps != nil {
		data["allowOversizeEntries"] = *opts.OversizedOps
	}

	if opts.LogSize != nil {
		data["logfileSize"] = *opts.LogSize
	}

	if opts.HistoricLogs != nil {
		data["historicLogfiles"] = *opts.HistoricLogs
	}

	if opts.ReserveLogs != nil {
		data["reserveLogfiles"] = *opts.ReserveLogs
	}

	if opts.ThrottleWait != nil {
		data["throttleWait"] = *opts.ThrottleWait
	}

	if opts.ThrottleLimit != nil {
		data["throttleWhenPending"] = *opts.ThrottleLimit
	}

	req := &Request{
		Method: http.MethodPut,
		Path:   "/_admin/wal/properties",
		Data:   data,
	}

	return w.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("wal configure", resp)
		}

		return resp.Body(), nil
	})
}

// Transactions returns details on the currently running transactions.
func (w *WAL) Transactions(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_admin/wal/transactions",
	}

	return w.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("wal transactions", resp)
		}

		return resp.Body(), nil
	})
}

// Flush writes the write-ahead log out to the collection journals and data
// files.
func (w *WAL) Flush(ctx context.Context, sync, garbageCollect bool) (any, error) {
	req := &Request{
		Method: http.MethodPut,
		Path:   "/_admin/wal/flush",
		Params: map[string]any{
			"waitForSync":      sync,
			"waitForCollector": garbageCollect,
		},
	}

	return w.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("wal flush", resp)
		}

		return true, nil
	})
}
