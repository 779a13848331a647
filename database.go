package arango

import (
	"context"
	"net/http"
)

// Database is the entry point to one ArangoDB database. All operations go
// through the wrapper's executor, so the same method queues a job instead of
// running synchronously when the wrapper came from BeginAsync, BeginBatch or
// BeginTransaction.
type Database struct {
	apiWrapper
}

func newDatabase(conn *Connection, exec Executor) *Database {
	return &Database{apiWrapper: newAPIWrapper(conn, exec)}
}

// Name returns the database name.
func (d *Database) Name() string {
	return d.DBName()
}

// AQL returns the AQL API wrapper for this database.
func (d *Database) AQL() *AQL {
	return newAQL(d.conn, d.exec)
}

// WAL returns the write-ahead log API wrapper for this database.
func (d *Database) WAL() *WAL {
	return newWAL(d.conn, d.exec)
}

// Collection returns the wrapper for the named collection. No server call is
// made; the collection may not exist.
func (d *Database) Collection(name string) *Collection {
	return newCollection(d.conn, d.exec, name)
}

// Graph returns the wrapper for the named graph. No server call is made; the
// graph may not exist.
func (d *Database) Graph(name string) *Graph {
	return newGraph(d.conn, d.exec, name)
}

// Properties returns the properties of the current database.
func (d *Database) Properties(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/database/current",
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("database properties", resp)
		}

		result, _ := resp.bodyField("result").(map[string]any)

		return result, nil
	})
}

// Version returns the server version string.
func (d *Database) Version(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/version",
		Params: map[string]any{"details": false},
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("server version", resp)
		}

		version, _ := resp.bodyField("version").(string)

		return version, nil
	})
}

// Details returns the server version details.
func (d *Database) Details(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/version",
		Params: map[string]any{"details": true},
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("server details", resp)
		}

		return resp.bodyField("details"), nil
	})
}

// TargetVersion returns the required version of the target database.
func (d *Database) TargetVersion(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_admin/database/target-version",
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("target version", resp)
		}

		return resp.bodyField("version"), nil
	})
}

// Engine returns the storage engine information.
func (d *Database) Engine(ctx context.Context) (any, error) {
	req := &Request{
		Method:  http.MethodGet,
		Path:    "/_api/engine",
		Command: "db._engine()",
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("server engine", resp)
		}

		return resp.Body(), nil
	})
}

// Role returns the role of the server in the cluster, such as "SINGLE" or
// "COORDINATOR".
func (d *Database) Role(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_admin/server/role",
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("server role", resp)
		}

		return resp.bodyField("role"), nil
	})
}

// Ping checks server reachability and credential validity. It returns the
// HTTP status code of the probe.
func (d *Database) Ping(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/collection",
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, newServerErrorMessage("ping", resp, "bad username and/or password")
		}

		if !resp.IsSuccess() {
			return nil, newServerError("ping", resp)
		}

		return resp.StatusCode, nil
	})
}

// Statistics returns the server statistics. With description set, the metric
// descriptions are returned instead of the values.
func (d *Database) Statistics(ctx context.Context, description bool) (any, error) {
	path := "/_admin/statistics"
	if description {
		path = "/_admin/statistics-description"
	}

	req := &Request{
		Method: http.MethodGet,
		Path:   path,
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("server statistics", resp)
		}

		stats := resp.bodyMap()
		delete(stats, "code")
		delete(stats, "error")

		return stats, nil
	})
}

// RawTransaction is a server-side transaction expressed directly as
// Javascript, as opposed to one assembled from queued operations by
// BeginTransaction.
type RawTransaction struct {
	// Command is the Javascript code to execute.
	Command string

	// Params are passed to the command as arguments.
	Params map[string]any

	// Read and Write declare the collections the transaction touches.
	Read  []string
	Write []string

	Sync          *bool
	LockTimeout   *int
	MaxSize       *int
	AllowImplicit *bool
}

// ExecuteTransaction runs raw Javascript code in a server-side transaction
// and returns its result.
func (d *Database) ExecuteTransaction(ctx context.Context, txn RawTransaction) (any, error) {
	collections := map[string]any{}
	if txn.AllowImplicit != nil {
		collections["allowImplicit"] = *txn.AllowImplicit
	}

	if txn.Read != nil {
		collections["read"] = txn.Read
	}

	if txn.Write != nil {
		collections["write"] = txn.Write
	}

	data := map[string]any{
		"action":      txn.Command,
		"collections": collections,
	}

	if txn.Params != nil {
		data["params"] = txn.Params
	}

	if txn.LockTimeout != nil {
		data["lockTimeout"] = *txn.LockTimeout
	}

	if txn.Sync != nil {
		data["waitForSync"] = *txn.Sync
	}

	if txn.MaxSize != nil {
		data["maxTransactionSize"] = *txn.MaxSize
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/transaction",
		Data:   data,
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("execute transaction", resp)
		}

		return resp.bodyField("result"), nil
	})
}

///////////////////////
// Database Management
///////////////////////

// Databases returns the names of all databases. Requires access to _system.
func (d *Database) Databases(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/database",
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("list databases", resp)
		}

		return resp.bodyField("result"), nil
	})
}

// DatabaseUser grants a user access to a newly created database.
type DatabaseUser struct {
	Username string
	Password string
	Active   *bool
	Extra    map[string]any
}

// CreateDatabase creates a new database. Only the admin and the current user
// get access unless users are passed explicitly.
func (d *Database) CreateDatabase(ctx context.Context, name string, users []DatabaseUser) (any, error) {
	data := map[string]any{"name": name}

	if users != nil {
		entries := make([]map[string]any, 0, len(users))

		for _, user := range users {
			active := true
			if user.Active != nil {
				active = *user.Active
			}

			entries = append(entries, map[string]any{
				"username": user.Username,
				"passwd":   user.Password,
				"active":   active,
				"extra":    user.Extra,
			})
		}

		data["users"] = entries
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/database",
		Data:   data,
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("create database", resp)
		}

		return resp.bodyField("result"), nil
	})
}

// DeleteDatabase drops the named database. Requires access to _system.
func (d *Database) DeleteDatabase(ctx context.Context, name string) (any, error) {
	req := &Request{
		Method: http.MethodDelete,
		Path:   "/_api/database/" + name,
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("delete database", resp)
		}

		return resp.bodyField("result"), nil
	})
}

/////////////////////////
// Collection Management
/////////////////////////

// Collections returns the descriptions of all collections in the database.
func (d *Database) Collections(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/collection",
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("list collections", resp)
		}

		records, _ := resp.bodyField("result").([]any)
		cols := make([]map[string]any, 0, len(records))

		for _, record := range records {
			col, ok := record.(map[string]any)
			if !ok {
				continue
			}

			cols = append(cols, map[string]any{
				"id":     col["id"],
				"name":   col["name"],
				"system": col["isSystem"],
				"type":   collectionType(col["type"]),
				"status": collectionStatus(col["status"]),
			})
		}

		return cols, nil
	})
}

// CollectionOptions configure collection creation.
type CollectionOptions struct {
	// Sync blocks writes until they are synchronized to disk.
	Sync bool

	// System marks the collection as a system collection. System collection
	// names carry a leading underscore.
	System bool

	// Edge creates an edge collection instead of a document collection.
	Edge bool

	// KeyGenerator is "traditional" or "autoincrement". Empty means
	// traditional.
	KeyGenerator string

	// UserKeys allows callers to supply their own document keys.
	UserKeys *bool

	KeyIncrement *int
	KeyOffset    *int

	JournalSize       *int
	ShardFields       []string
	ShardCount        *int
	ReplicationFactor *int
}

// CreateCollection creates a new collection and returns its wrapper.
func (d *Database) CreateCollection(ctx context.Context, name string, opts CollectionOptions) (any, error) {
	keyGenerator := opts.KeyGenerator
	if keyGenerator == "" {
		keyGenerator = "traditional"
	}

	userKeys := true
	if opts.UserKeys != nil {
		userKeys = *opts.UserKeys
	}

	keyOptions := map[string]any{
		"type":          keyGenerator,
		"allowUserKeys": userKeys,
	}

	if opts.KeyIncrement != nil {
		keyOptions["increment"] = *opts.KeyIncrement
	}

	if opts.KeyOffset != nil {
		keyOptions["offset"] = *opts.KeyOffset
	}

	colType := 2
	if opts.Edge {
		colType = 3
	}

	data := map[string]any{
		"name":        name,
		"waitForSync": opts.Sync,
		"isSystem":    opts.System,
		"type":        colType,
		"keyOptions":  keyOptions,
	}

	if opts.JournalSize != nil {
		data["journalSize"] = *opts.JournalSize
	}

	if opts.ShardCount != nil {
		data["numberOfShards"] = *opts.ShardCount
	}

	if opts.ShardFields != nil {
		data["shardKeys"] = opts.ShardFields
	}

	if opts.ReplicationFactor != nil {
		data["replicationFactor"] = *opts.ReplicationFactor
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/collection",
		Data:   data,
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("create collection", resp)
		}

		return d.Collection(name), nil
	})
}

// DeleteCollection drops the named collection. With ignoreMissing set, a
// missing collection yields false instead of an error.
func (d *Database) DeleteCollection(ctx context.Context, name string, ignoreMissing bool, system *bool) (any, error) {
	params := map[string]any{}
	if system != nil {
		params["isSystem"] = *system
	}

	req := &Request{
		Method: http.MethodDelete,
		Path:   "/_api/collection/" + name,
		Params: params,
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if resp.ErrorCode() == errCollectionNotFound && ignoreMissing {
			return false, nil
		}

		if !resp.IsSuccess() {
			return nil, newServerError("delete collection", resp)
		}

		return true, nil
	})
}

////////////////////
// Graph Management
////////////////////

// Graphs returns the descriptions of all graphs in the database.
func (d *Database) Graphs(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/gharial",
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("list graphs", resp)
		}

		records, _ := resp.bodyField("graphs").([]any)
		graphs := make([]map[string]any, 0, len(records))

		for _, record := range records {
			graph, ok := record.(map[string]any)
			if !ok {
				continue
			}

			graphs = append(graphs, map[string]any{
				"name":               graph["_key"],
				"revision":           graph["_rev"],
				"edge_definitions":   graph["edgeDefinitions"],
				"orphan_collections": graph["orphanCollections"],
				"smart":              graph["isSmart"],
				"smart_field":        graph["smartGraphAttribute"],
				"shard_count":        graph["numberOfShards"],
			})
		}

		return graphs, nil
	})
}

// EdgeDefinition declares one edge collection of a graph together with the
// vertex collections its edges may start and end in.
type EdgeDefinition struct {
	Collection string
	From       []string
	To         []string
}

// GraphOptions configure graph creation. The smart options apply to the
// enterprise edition only.
type GraphOptions struct {
	EdgeDefinitions   []EdgeDefinition
	OrphanCollections []string
	Smart             *bool
	SmartField        string
	ShardCount        *int
}

// CreateGraph creates a new graph and returns its wrapper.
func (d *Database) CreateGraph(ctx context.Context, name string, opts GraphOptions) (any, error) {
	data := map[string]any{"name": name}

	if opts.EdgeDefinitions != nil {
		definitions := make([]map[string]any, 0, len(opts.EdgeDefinitions))

		for _, definition := range opts.EdgeDefinitions {
			definitions = append(definitions, map[string]any{
				"collection": definition.Collection,
				"from":       definition.From,
				"to":         definition.To,
			})
		}

		data["edgeDefinitions"] = definitions
	}

	if opts.OrphanCollections != nil {
		data["orphanCollections"] = opts.OrphanCollections
	}

	if opts.Smart != nil {
		data["isSmart"] = *opts.Smart
	}

	if opts.SmartField != "" {
		data["smartGraphAttribute"] = opts.SmartField
	}

	if opts.ShardCount != nil {
		data["numberOfShards"] = *opts.ShardCount
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/gharial",
		Data:   data,
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("create graph", resp)
		}

		return d.Graph(name), nil
	})
}

// DeleteGraph drops the named graph. With dropCollections set, the graph's
// collections go too unless another graph uses them.
func (d *Database) DeleteGraph(ctx context.Context, name string, ignoreMissing bool, dropCollections *bool) (any, error) {
	params := map[string]any{}
	if dropCollections != nil {
		params["dropCollections"] = *dropCollections
	}

	req := &Request{
		Method: http.MethodDelete,
		Path:   "/_api/gharial/" + name,
		Params: params,
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if resp.ErrorCode() == errGraphNotFound && ignoreMissing {
			return false, nil
		}

		if !resp.IsSuccess() {
			return nil, newServerError("delete graph", resp)
		}

		return true, nil
	})
}

//////////////////////////
// Async Job Management
//////////////////////////

// AsyncJobs returns the ids of the server's async jobs with the given status,
// "pending" or "done".
func (d *Database) AsyncJobs(ctx context.Context, status string, count *int) (any, error) {
	params := map[string]any{}
	if count != nil {
		params["count"] = *count
	}

	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/job/" + status,
		Params: params,
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("list async jobs", resp)
		}

		return resp.Body(), nil
	})
}

// ClearAsyncJobs deletes stored async job results from the server. With a
// threshold, only results created before the unix timestamp are deleted.
// Queued or running jobs are not stopped.
func (d *Database) ClearAsyncJobs(ctx context.Context, threshold *int) (any, error) {
	path := "/_api/job/all"
	params := map[string]any{}

	if threshold != nil {
		path = "/_api/job/expired"
		params["stamp"] = *threshold
	}

	req := &Request{
		Method: http.MethodDelete,
		Path:   path,
		Params: params,
	}

	return d.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("clear async jobs", resp)
		}

		return true, nil
	})
}

//////////////////////
// Execution Contexts
//////////////////////

// BeginAsync returns a database wrapper whose operations are queued
// server-side. With returnResult set, operations return *AsyncJob handles;
// otherwise they return nil and the results are discarded server-side.
func (d *Database) BeginAsync(returnResult bool) *AsyncDatabase {
	return &AsyncDatabase{
		Database: *newDatabase(d.conn, newAsyncExecutor(d.conn, returnResult)),
	}
}

// BeginBatch returns a database wrapper whose operations are queued
// client-side and sent as one multipart call on Commit.
func (d *Database) BeginBatch(returnResult bool) *BatchDatabase {
	exec := newBatchExecutor(d.conn, returnResult)

	return &BatchDatabase{
		Database: *newDatabase(d.conn, exec),
		exec:     exec,
	}
}

// BeginTransaction returns a database wrapper whose operations are queued
// client-side and folded into one atomic server-side script on Commit.
func (d *Database) BeginTransaction(returnResult bool, opts TransactionOptions) *TransactionDatabase {
	exec := newTransactionExecutor(d.conn, returnResult, opts)

	return &TransactionDatabase{
		Database: *newDatabase(d.conn, exec),
		exec:     exec,
	}
}

// AsyncDatabase queues operations on the server and hands back job handles.
type AsyncDatabase struct {
	Database
}

// BatchDatabase queues operations client-side until Commit. Not safe for
// concurrent use.
type BatchDatabase struct {
	Database

	exec *batchExecutor
}

// QueuedJobs returns the jobs queued so far, in insertion order.
func (d *BatchDatabase) QueuedJobs() []*BatchJob {
	return d.exec.Jobs()
}

// Commit executes the queued requests in a single batch API request.
func (d *BatchDatabase) Commit(ctx context.Context) ([]*BatchJob, error) {
	return d.exec.Commit(ctx)
}

// TransactionDatabase queues operations client-side and commits them as one
// server-side transaction. Not safe for concurrent use.
type TransactionDatabase struct {
	Database

	exec *transactionExecutor
}

// QueuedJobs returns the jobs queued so far, in insertion order.
func (d *TransactionDatabase) QueuedJobs() []*TransactionJob {
	return d.exec.Jobs()
}

// Commit executes the queued commands in a single transaction API request.
func (d *TransactionDatabase) Commit(ctx context.Context) ([]*TransactionJob, error) {
	return d.exec.Commit(ctx)
}
