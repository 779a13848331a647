// Package arango is a client for the ArangoDB REST API. Every operation can
// run in one of four execution contexts: synchronously (default), queued
// server-side (async), queued client-side and committed as one multipart call
// (batch), or folded into a single atomic server-side script (transaction).
package arango

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout     = 5 * time.Second
	defaultProtocol    = "http"
	statsHistogramName = "app_arango_stats"
	systemDatabase     = "_system"
)

var (
	errStatusDown   = errors.New("status down")
	errMissingField = errors.New("missing required field in config")
	errNotConnected = errors.New("client not connected")
)

// Config holds the connection settings for an ArangoDB server.
type Config struct {
	Protocol string
	Host     string
	Port     int
	User     string
	Password string

	// UseJWT switches authentication from HTTP basic auth to a bearer token
	// obtained from /_open/auth.
	UseJWT bool
}

// Client represents an ArangoDB client.
type Client struct {
	config   *Config
	http     *http.Client
	endpoint string
	logger   Logger
	metrics  Metrics
	tracer   trace.Tracer
}

// New creates a new ArangoDB client with the provided configuration.
func New(c Config) *Client {
	if c.Protocol == "" {
		c.Protocol = defaultProtocol
	}

	return &Client{
		config: &c,
		logger: NewLogger("info"),
	}
}

// UseLogger sets the logger for the ArangoDB client.
func (c *Client) UseLogger(logger any) {
	if l, ok := logger.(Logger); ok {
		c.logger = l
	}
}

// UseMetrics sets the metrics for the ArangoDB client.
func (c *Client) UseMetrics(metrics any) {
	if m, ok := metrics.(Metrics); ok {
		c.metrics = m
	}
}

// UseTracer sets the tracer for the ArangoDB client.
func (c *Client) UseTracer(tracer any) {
	if t, ok := tracer.(trace.Tracer); ok {
		c.tracer = t
	}
}

// Connect establishes and verifies the connection to the ArangoDB server.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.validateConfig(); err != nil {
		c.logger.Errorf("config validation error: %v", err)
		return err
	}

	c.endpoint = fmt.Sprintf("%s://%s:%d", c.config.Protocol, c.config.Host, c.config.Port)
	c.logger.Debugf("connecting to ArangoDB at %s", c.endpoint)

	if c.http == nil {
		c.http = &http.Client{}
	}

	verifyCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	conn := c.connection(systemDatabase)

	if _, err := c.serverVersion(verifyCtx, conn); err != nil {
		c.logger.Errorf("failed to verify connection: %v", err)
		return err
	}

	if c.metrics != nil {
		arangoBuckets := []float64{50, 75, 100, 125, 150, 200, 300, 500, 750,
			1000, 2000, 3000, 4000, 5000, 7500, 10000}
		c.metrics.NewHistogram(statsHistogramName,
			"Response time of ArangoDB operations in microseconds.", arangoBuckets...)
	}

	c.logger.Logf("connected to ArangoDB successfully at %s", c.endpoint)

	return nil
}

func (c *Client) validateConfig() error {
	if c.config.Host == "" {
		return fmt.Errorf("%w: host is empty", errMissingField)
	}

	if c.config.Port == 0 {
		return fmt.Errorf("%w: port is empty", errMissingField)
	}

	if c.config.User == "" {
		return fmt.Errorf("%w: user is empty", errMissingField)
	}

	if c.config.Password == "" {
		return fmt.Errorf("%w: password is empty", errMissingField)
	}

	return nil
}

// Database returns the wrapper for the named database, verifying access with
// a read call first.
func (c *Client) Database(ctx context.Context, name string) (*Database, error) {
	if c.http == nil {
		return nil, errNotConnected
	}

	tracerCtx, span := c.addTrace(ctx, "database", map[string]string{"DB": name})
	defer c.endTrace(span)

	conn := c.connection(name)
	db := newDatabase(conn, newDefaultExecutor(conn))

	if _, err := db.Ping(tracerCtx); err != nil {
		return nil, err
	}

	return db, nil
}

func (c *Client) connection(dbName string) *Connection {
	var auth Authenticator
	if c.config.UseJWT {
		auth = &JWTAuth{Username: c.config.User, Password: c.config.Password}
	} else {
		auth = &BasicAuth{Username: c.config.User, Password: c.config.Password}
	}

	return newConnection(c.http, c.endpoint, dbName, auth, c.logger, c.metrics)
}

func (c *Client) serverVersion(ctx context.Context, conn *Connection) (string, error) {
	db := newDatabase(conn, newDefaultExecutor(conn))

	version, err := Unwrap[string](db.Version(ctx))
	if err != nil {
		return "", err
	}

	return version, nil
}

// Health represents the health status of ArangoDB.
type Health struct {
	Status  string         `json:"status,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthCheck performs a health check against the server.
func (c *Client) HealthCheck(ctx context.Context) (any, error) {
	h := Health{
		Details: map[string]any{
			"endpoint": c.endpoint,
		},
	}

	if c.http == nil {
		h.Status = "DOWN"
		return &h, errNotConnected
	}

	version, err := c.serverVersion(ctx, c.connection(systemDatabase))
	if err != nil {
		h.Status = "DOWN"
		return &h, errStatusDown
	}

	h.Status = "UP"
	h.Details["version"] = version

	return &h, nil
}

// addTrace starts a span if a tracer is configured.
func (c *Client) addTrace(ctx context.Context, operation string, attributes map[string]string) (context.Context, trace.Span) {
	if c.tracer == nil {
		return ctx, nil
	}

	tracerCtx, span := c.tracer.Start(ctx, fmt.Sprintf("arangodb-%v", operation))

	span.SetAttributes(attribute.String("arangodb.operation", operation))

	for key, value := range attributes {
		span.SetAttributes(attribute.String(fmt.Sprintf("arangodb.%s", key), value))
	}

	return tracerCtx, span
}

func (*Client) endTrace(span trace.Span) {
	if span != nil {
		span.End()
	}
}
