package arango

import (
	"context"
	"fmt"
	"net/http"
)

// AQL is the AQL query API of one database.
type AQL struct {
	apiWrapper
}

func newAQL(conn *Connection, exec Executor) *AQL {
	return &AQL{apiWrapper: newAPIWrapper(conn, exec)}
}

// Cache returns the query cache API wrapper.
func (a *AQL) Cache() *AQLQueryCache {
	return &AQLQueryCache{apiWrapper: newAPIWrapper(a.conn, a.exec)}
}

// AQLQueryOptions configure query execution.
type AQLQueryOptions struct {
	// BindVars are the values bound to the query's @parameters.
	BindVars map[string]any

	// Count makes the cursor report the total result count.
	Count bool

	// BatchSize caps the number of results per server round trip.
	BatchSize *int

	// TTL is the server-side cursor lifetime in seconds.
	TTL *int

	// Cache looks the query up in the query result cache first.
	Cache *bool

	// FullCount reports the result count ignoring the final LIMIT.
	FullCount *bool

	// Profile includes profiling data in the cursor extra field.
	Profile *bool

	// Read and Write declare the touched collections for transaction commits.
	Read  []string
	Write []string
}

// Execute runs the query and returns a *Cursor over its results. Inside a
// transaction the full result set is materialized in one slice.
func (a *AQL) Execute(ctx context.Context, query string, opts AQLQueryOptions) (any, error) {
	data := map[string]any{
		"query": query,
		"count": opts.Count,
	}

	bindVars := opts.BindVars
	if bindVars == nil {
		bindVars = map[string]any{}
	}

	data["bindVars"] = bindVars

	if opts.BatchSize != nil {
		data["batchSize"] = *opts.BatchSize
	}

	if opts.TTL != nil {
		data["ttl"] = *opts.TTL
	}

	if opts.Cache != nil {
		data["cache"] = *opts.Cache
	}

	queryOpts := map[string]any{}
	if opts.FullCount != nil {
		queryOpts["fullCount"] = *opts.FullCount
	}

	if opts.Profile != nil {
		queryOpts["profile"] = *opts.Profile
	}

	if len(queryOpts) > 0 {
		data["options"] = queryOpts
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/cursor",
		Data:   data,
		Read:   opts.Read,
		Write:  opts.Write,
	}

	if a.inTransaction() {
		req.Command = fmt.Sprintf("db._query(%s, %s).toArray()", mustJSON(query), mustJSON(bindVars))
	}

	conn := a.conn

	return a.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("aql execute", resp)
		}

		return newCursor(conn, resp.Body()), nil
	})
}

// Explain returns the execution plan of the query without running it.
func (a *AQL) Explain(ctx context.Context, query string, bindVars map[string]any, allPlans bool, maxPlans *int) (any, error) {
	options := map[string]any{"allPlans": allPlans}
	if maxPlans != nil {
		options["maxNumberOfPlans"] = *maxPlans
	}

	data := map[string]any{
		"query":   query,
		"options": options,
	}

	if bindVars != nil {
		data["bindVars"] = bindVars
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/explain",
		Data:   data,
	}

	return a.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("aql explain", resp)
		}

		if allPlans {
			return resp.bodyField("plans"), nil
		}

		return resp.bodyField("plan"), nil
	})
}

// Validate parses the query without running it and returns its details.
func (a *AQL) Validate(ctx context.Context, query string) (any, error) {
	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/query",
		Data:   map[string]any{"query": query},
	}

	return a.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("aql validate", resp)
		}

		body := resp.bodyMap()
		delete(body, "code")
		delete(body, "error")

		return body, nil
	})
}

// Kill aborts the running query with the given id.
func (a *AQL) Kill(ctx context.Context, queryID string) (any, error) {
	req := &Request{
		Method: http.MethodDelete,
		Path:   "/_api/query/" + queryID,
	}

	return a.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("aql kill", resp)
		}

		return true, nil
	})
}

// Queries returns the currently running queries.
func (a *AQL) Queries(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/query/current",
	}

	return a.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("list queries", resp)
		}

		return resp.Body(), nil
	})
}

// SlowQueries returns the queries that exceeded the slow query threshold.
func (a *AQL) SlowQueries(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/query/slow",
	}

	return a.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("list slow queries", resp)
		}

		return resp.Body(), nil
	})
}

// ClearSlowQueries empties the slow query log.
func (a *AQL) ClearSlowQueries(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodDelete,
		Path:   "/_api/query/slow",
	}

	return a.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("clear slow queries", resp)
		}

		return true, nil
	})
}

// Functions returns the registered user AQL functions.
func (a *AQL) Functions(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/aqlfunction",
	}

	return a.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("list aql functions", resp)
		}

		return resp.Body(), nil
	})
}

// CreateFunction registers a user AQL function under the given name.
func (a *AQL) CreateFunction(ctx context.Context, name, code string) (any, error) {
	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/aqlfunction",
		Data:   map[string]any{"name": name, "code": code},
	}

	return a.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("create aql function", resp)
		}

		return true, nil
	})
}

// DeleteFunction removes the user AQL function with the given name. With
// group set, all functions under the name's namespace go too.
func (a *AQL) DeleteFunction(ctx context.Context, name string, group, ignoreMissing bool) (any, error) {
	req := &Request{
		Method: http.MethodDelete,
		Path:   "/_api/aqlfunction/" + name,
		Params: map[string]any{"group": group},
	}

	return a.execute(ctx, req, func(resp *Response) (any, error) {
		if resp.StatusCode == http.StatusNotFound && ignoreMissing {
			return false, nil
		}

		if !resp.IsSuccess() {
			return nil, newServerError("delete aql function", resp)
		}

		return true, nil
	})
}

// AQLQueryCache is the query result cache API of one database.
type AQLQueryCache struct {
	apiWrapper
}

// Properties returns the cache configuration.
func (c *AQLQueryCache) Properties(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/query-cache/properties",
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("query cache properties", resp)
		}

		return resp.Body(), nil
	})
}

// Configure updates the cache configuration. Mode is "off", "on" or "demand".
func (c *AQLQueryCache) Configure(ctx context.Context, mode string, maxResults *int) (any, error) {
	data := map[string]any{}
	if mode != "" {
		data["mode"] = mode
	}

	if maxResults != nil {
		data["maxResults"] = *maxResults
	}

	req := &Request{
		Method: http.MethodPut,
		Path:   "/_api/query-cache/properties",
		Data:   data,
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("query cache configure", resp)
		}

		return resp.Body(), nil
	})
}

// Clear drops all cached query results.
func (c *AQLQueryCache) Clear(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodDelete,
		Path:   "/_api/query-cache",
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("query cache clear", resp)
		}

		return true, nil
	})
}
