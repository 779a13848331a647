package arango

import (
	"context"
	"net/http"
)

// Cursor fetches query results from the server in batches. In a transaction
// context the full result set arrives in one slice and no server round trips
// happen afterwards.
type Cursor struct {
	conn *Connection

	kind     string
	id       string
	count    int
	hasCount bool
	cached   bool
	hasMore  bool
	batch    []any
	stats    map[string]any
	profile  any
	warnings any
}

// newCursor builds a cursor from the initialization payload. A slice payload
// means the results were computed inside a transaction and are already
// complete; an object payload carries the usual cursor bookkeeping.
func newCursor(conn *Connection, init any) *Cursor {
	cursor := &Cursor{conn: conn, kind: "cursor"}

	if batch, ok := init.([]any); ok {
		cursor.batch = batch
		cursor.count = len(batch)
		cursor.hasCount = true

		return cursor
	}

	if data, ok := init.(map[string]any); ok {
		cursor.update(data)
	}

	return cursor
}

// newExportCursor builds a cursor over the export API, which uses its own
// endpoint for fetch and close.
func newExportCursor(conn *Connection, init any) *Cursor {
	cursor := newCursor(conn, init)
	cursor.kind = "export"

	return cursor
}

func (c *Cursor) update(data map[string]any) {
	if id, ok := data["id"].(string); ok {
		c.id = id
	}

	if count, ok := data["count"].(float64); ok {
		c.count = int(count)
		c.hasCount = true
	}

	if cached, ok := data["cached"].(bool); ok {
		c.cached = cached
	}

	c.hasMore, _ = data["hasMore"].(bool)
	c.batch, _ = data["result"].([]any)

	if extra, ok := data["extra"].(map[string]any); ok {
		if profile, ok := extra["profile"]; ok {
			c.profile = profile
		}

		if warnings, ok := extra["warnings"]; ok {
			c.warnings = warnings
		}

		if stats, ok := extra["stats"].(map[string]any); ok {
			c.stats = stats
		}
	}
}

// ID returns the server-side cursor id, empty when the whole result fit in
// the first batch.
func (c *Cursor) ID() string {
	return c.id
}

// Batch returns the documents fetched but not yet consumed.
func (c *Cursor) Batch() []any {
	return c.batch
}

// HasMore reports whether more results wait on the server.
func (c *Cursor) HasMore() bool {
	return c.hasMore
}

// Count returns the total result count, valid only when the count option was
// enabled for the query.
func (c *Cursor) Count() (int, bool) {
	return c.count, c.hasCount
}

// Cached reports whether the results came from the query result cache.
func (c *Cursor) Cached() bool {
	return c.cached
}

// Statistics returns the query execution statistics.
func (c *Cursor) Statistics() map[string]any {
	return c.stats
}

// Profile returns the query profiling data, if profiling was requested.
func (c *Cursor) Profile() any {
	return c.profile
}

// Warnings returns warnings raised during query execution.
func (c *Cursor) Warnings() any {
	return c.warnings
}

// Next returns the next document, fetching the next batch from the server
// when the current one is exhausted. It returns ErrNoMoreDocuments once the
// cursor is drained.
func (c *Cursor) Next(ctx context.Context) (any, error) {
	if len(c.batch) == 0 {
		if !c.hasMore {
			return nil, ErrNoMoreDocuments
		}

		req := &Request{
			Method: http.MethodPut,
			Path:   "/_api/" + c.kind + "/" + c.id,
		}

		resp, err := c.conn.Send(ctx, req)
		if err != nil {
			return nil, err
		}

		if !resp.IsSuccess() {
			return nil, newServerError("cursor next", resp)
		}

		c.update(resp.bodyMap())

		if len(c.batch) == 0 {
			return nil, ErrNoMoreDocuments
		}
	}

	doc := c.batch[0]
	c.batch = c.batch[1:]

	return doc, nil
}

// Close frees the server-side resources tied to the cursor. Closing a cursor
// that was fully drained, or one that never had a server-side id, is a no-op.
func (c *Cursor) Close(ctx context.Context, ignoreMissing bool) (bool, error) {
	if c.id == "" {
		return false, nil
	}

	req := &Request{
		Method: http.MethodDelete,
		Path:   "/_api/" + c.kind + "/" + c.id,
	}

	resp, err := c.conn.Send(ctx, req)
	if err != nil {
		return false, err
	}

	if resp.IsSuccess() {
		return true, nil
	}

	if resp.StatusCode == http.StatusNotFound && ignoreMissing {
		return false, nil
	}

	return false, newServerError("cursor close", resp)
}
