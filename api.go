package arango

import "context"

// apiWrapper is the base every domain object composes: a Connection plus an
// Executor. All network activity of a wrapper flows through execute, and the
// executor's context tag is what lets a domain method render a different wire
// representation per execution context.
type apiWrapper struct {
	conn *Connection
	exec Executor
}

func newAPIWrapper(conn *Connection, exec Executor) apiWrapper {
	return apiWrapper{conn: conn, exec: exec}
}

// DBName returns the name of the database the wrapper is bound to.
func (w *apiWrapper) DBName() string {
	return w.conn.DBName()
}

// Username returns the username the wrapper authenticates as.
func (w *apiWrapper) Username() string {
	return w.conn.Username()
}

// Context returns the active execution context.
func (w *apiWrapper) Context() ExecContext {
	return w.exec.Context()
}

func (w *apiWrapper) execute(ctx context.Context, req *Request, handle ResponseHandler) (any, error) {
	return w.exec.Execute(ctx, req, handle)
}

func (w *apiWrapper) inTransaction() bool {
	return w.exec.Context() == ContextTransaction
}

// Unwrap converts the dynamic result of a wrapper method to a concrete type.
// It is a convenience for default-context calls, where the result is the
// handler's value rather than a Job handle.
func Unwrap[T any](result any, err error) (T, error) {
	var zero T

	if err != nil {
		return zero, err
	}

	value, ok := result.(T)
	if !ok {
		return zero, nil
	}

	return value, nil
}
