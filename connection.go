package arango

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"

	headerContentType        = "Content-Type"
	headerContentTypeOptions = "X-Content-Type-Options"
)

// Connection is the HTTP transport bound to one database. It owns the URL
// prefix and credentials and is shared by every executor derived from it; the
// underlying *http.Client carries the pooled transport.
type Connection struct {
	client   *http.Client
	baseURL  string
	dbName   string
	username string
	auth     Authenticator
	logger   Logger
	metrics  Metrics
}

func newConnection(client *http.Client, baseURL, dbName string, auth Authenticator, logger Logger, metrics Metrics) *Connection {
	conn := &Connection{
		client:  client,
		baseURL: baseURL,
		dbName:  dbName,
		auth:    auth,
		logger:  logger,
		metrics: metrics,
	}

	if basic, ok := auth.(*BasicAuth); ok {
		conn.username = basic.Username
	}

	if jwt, ok := auth.(*JWTAuth); ok {
		conn.username = jwt.Username
	}

	return conn
}

// URLPrefix returns the fully qualified database URL prefix.
func (c *Connection) URLPrefix() string {
	return c.baseURL + "/_db/" + c.dbName
}

// DBName returns the database this connection is bound to.
func (c *Connection) DBName() string {
	return c.dbName
}

// Username returns the authenticated username.
func (c *Connection) Username() string {
	return c.username
}

// Send performs one blocking HTTP round trip. It adds the standard headers
// and credentials; it does not retry and does not interpret the response body
// beyond constructing the Response.
func (c *Connection) Send(ctx context.Context, req *Request) (*Response, error) {
	uri := c.URLPrefix() + req.Path
	if query := req.Query(); query != "" {
		uri += "?" + query
	}

	body, err := req.Body()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, uri, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerContentTypeOptions, "nosniff")

	for key, val := range req.Headers {
		httpReq.Header.Set(key, val)
	}

	if c.auth != nil {
		if err := c.auth.apply(ctx, c, httpReq); err != nil {
			return nil, err
		}
	}

	start := time.Now()

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: uri, Err: err}
	}

	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: uri, Err: err}
	}

	duration := time.Since(start).Microseconds()

	if c.logger != nil {
		c.logger.Debug(&QueryLog{
			Operation: req.Method,
			Database:  c.dbName,
			Endpoint:  req.Path,
			Duration:  duration,
		})
	}

	if c.metrics != nil {
		c.metrics.RecordHistogram(ctx, statsHistogramName, float64(duration),
			"endpoint", req.Path,
			"method", req.Method,
		)
	}

	return newResponse(req.Method, uri, httpResp.Header, httpResp.StatusCode, http.StatusText(httpResp.StatusCode), rawBody), nil
}
