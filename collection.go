package arango

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Document is a JSON document body.
type Document = map[string]any

// Collection wraps one ArangoDB collection. Document operations carry both a
// REST rendering and a server-side Javascript rendering; the executor's
// context decides which one goes on the wire.
type Collection struct {
	apiWrapper

	name string
}

func newCollection(conn *Connection, exec Executor, name string) *Collection {
	return &Collection{apiWrapper: newAPIWrapper(conn, exec), name: name}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) idPrefix() string {
	return c.name + "/"
}

func (c *Collection) validateID(docID string) (string, error) {
	if !strings.HasPrefix(docID, c.idPrefix()) {
		return "", fmt.Errorf("%w: bad collection name in document ID %q", ErrDocumentParse, docID)
	}

	return docID, nil
}

// extractID returns the document ID from a document body, deriving it from
// the _key field when _id is absent.
func (c *Collection) extractID(doc Document) (string, error) {
	if id, ok := doc["_id"].(string); ok {
		return c.validateID(id)
	}

	if key, ok := doc["_key"].(string); ok {
		return c.idPrefix() + key, nil
	}

	return "", fmt.Errorf("%w: field \"_key\" or \"_id\" required", ErrDocumentParse)
}

// prepFromDoc normalizes a document reference, which may be an ID, a key or a
// body, into the REST handle, the transaction-side body and the revision
// check headers.
func (c *Collection) prepFromDoc(document any, rev string, checkRev bool) (string, any, map[string]string, error) {
	var docID string

	switch doc := document.(type) {
	case Document:
		id, err := c.extractID(doc)
		if err != nil {
			return "", nil, nil, err
		}

		docID = id

		if rev == "" {
			rev, _ = doc["_rev"].(string)
		}

		if !checkRev || rev == "" {
			return docID, docID, nil, nil
		}

		if c.inTransaction() {
			body := make(Document, len(doc)+1)
			for key, val := range doc {
				body[key] = val
			}

			body["_rev"] = rev

			return docID, body, map[string]string{"If-Match": rev}, nil
		}

		return docID, docID, map[string]string{"If-Match": rev}, nil
	case string:
		if strings.Contains(doc, "/") {
			id, err := c.validateID(doc)
			if err != nil {
				return "", nil, nil, err
			}

			docID = id
		} else {
			docID = c.idPrefix() + doc
		}

		if !checkRev || rev == "" {
			return docID, docID, nil, nil
		}

		if c.inTransaction() {
			return docID, Document{"_id": docID, "_rev": rev}, map[string]string{"If-Match": rev}, nil
		}

		return docID, docID, map[string]string{"If-Match": rev}, nil
	default:
		return "", nil, nil, fmt.Errorf("%w: expecting a document ID, key or body", ErrDocumentParse)
	}
}

var collectionTypes = map[int]string{
	2: "document",
	3: "edge",
}

var collectionStatuses = map[int]string{
	1: "new",
	2: "unloaded",
	3: "loaded",
	4: "unloading",
	5: "deleted",
	6: "loading",
}

func collectionType(code any) string {
	num, _ := code.(float64)
	return collectionTypes[int(num)]
}

func collectionStatus(code any) string {
	num, _ := code.(float64)
	return collectionStatuses[int(num)]
}

//////////////////////////
// Collection Operations
//////////////////////////

// Properties returns the collection properties.
func (c *Collection) Properties(ctx context.Context) (any, error) {
	req := &Request{
		Method:  http.MethodGet,
		Path:    "/_api/collection/" + c.name + "/properties",
		Command: fmt.Sprintf("db.%s.properties()", c.name),
		Read:    []string{c.name},
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("collection properties", resp)
		}

		return resp.Body(), nil
	})
}

// Rename renames the collection. Renames are not reflected in async, batch or
// transaction contexts, and existing wrappers keep the old name.
func (c *Collection) Rename(ctx context.Context, newName string) (any, error) {
	req := &Request{
		Method: http.MethodPut,
		Path:   "/_api/collection/" + c.name + "/rename",
		Data:   Document{"name": newName},
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("collection rename", resp)
		}

		c.name = newName

		return true, nil
	})
}

// Statistics returns the collection figures.
func (c *Collection) Statistics(ctx context.Context) (any, error) {
	req := &Request{
		Method:  http.MethodGet,
		Path:    "/_api/collection/" + c.name + "/figures",
		Command: fmt.Sprintf("db.%s.figures()", c.name),
		Read:    []string{c.name},
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("collection statistics", resp)
		}

		if figures, ok := resp.bodyField("figures").(map[string]any); ok {
			return figures, nil
		}

		return resp.Body(), nil
	})
}

// Revision returns the collection revision.
func (c *Collection) Revision(ctx context.Context) (any, error) {
	req := &Request{
		Method:  http.MethodGet,
		Path:    "/_api/collection/" + c.name + "/revision",
		Command: fmt.Sprintf("db.%s.revision()", c.name),
		Read:    []string{c.name},
	}

	inTxn := c.inTransaction()

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("collection revision", resp)
		}

		if inTxn {
			return fmt.Sprint(resp.Body()), nil
		}

		return resp.bodyField("revision"), nil
	})
}

// Checksum returns the collection checksum.
func (c *Collection) Checksum(ctx context.Context, withRev, withData bool) (any, error) {
	req := &Request{
		Method:  http.MethodGet,
		Path:    "/_api/collection/" + c.name + "/checksum",
		Params:  map[string]any{"withRevision": withRev, "withData": withData},
		Command: fmt.Sprintf("db.%s.checksum()", c.name),
		Read:    []string{c.name},
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("collection checksum", resp)
		}

		return resp.bodyField("checksum"), nil
	})
}

// Truncate deletes every document in the collection.
func (c *Collection) Truncate(ctx context.Context) (any, error) {
	req := &Request{
		Method:  http.MethodPut,
		Path:    "/_api/collection/" + c.name + "/truncate",
		Command: fmt.Sprintf("db.%s.truncate()", c.name),
		Write:   []string{c.name},
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("collection truncate", resp)
		}

		return true, nil
	})
}

// Count returns the number of documents in the collection.
func (c *Collection) Count(ctx context.Context) (any, error) {
	req := &Request{
		Method:  http.MethodGet,
		Path:    "/_api/collection/" + c.name + "/count",
		Command: fmt.Sprintf("db.%s.count()", c.name),
		Read:    []string{c.name},
	}

	inTxn := c.inTransaction()

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document count", resp)
		}

		if inTxn {
			return resp.Body(), nil
		}

		count, _ := resp.bodyField("count").(float64)

		return int(count), nil
	})
}

////////////////////////
// Document Operations
////////////////////////

// Has reports whether the referenced document exists.
func (c *Collection) Has(ctx context.Context, document any, rev string, checkRev bool) (any, error) {
	handle, body, headers, err := c.prepFromDoc(document, rev, checkRev)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method:  http.MethodGet,
		Path:    "/_api/document/" + handle,
		Headers: headers,
		Read:    []string{c.name},
	}

	if c.inTransaction() {
		req.Command = fmt.Sprintf("db.%s.exists(%s)", c.name, mustJSON(body))
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if resp.ErrorCode() == errDocumentNotFound {
			return false, nil
		}

		if !resp.IsSuccess() {
			return nil, newServerError("document check", resp)
		}

		switch body := resp.Body().(type) {
		case bool:
			return body, nil
		case nil:
			return false, nil
		default:
			return true, nil
		}
	})
}

// Get returns the referenced document, or nil when it does not exist.
func (c *Collection) Get(ctx context.Context, document any, rev string, checkRev bool) (any, error) {
	handle, body, headers, err := c.prepFromDoc(document, rev, checkRev)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method:  http.MethodGet,
		Path:    "/_api/document/" + handle,
		Headers: headers,
		Read:    []string{c.name},
	}

	if c.inTransaction() {
		req.Command = fmt.Sprintf("db.%s.exists(%s) || undefined", c.name, mustJSON(body))
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if resp.ErrorCode() == errDocumentNotFound {
			return nil, nil
		}

		if !resp.IsSuccess() {
			return nil, newServerError("document get", resp)
		}

		return resp.Body(), nil
	})
}

// GetMany returns the referenced documents, silently skipping missing ones.
// References may be keys, IDs or document bodies.
func (c *Collection) GetMany(ctx context.Context, documents []any) (any, error) {
	keys := make([]any, 0, len(documents))

	for _, document := range documents {
		if doc, ok := document.(Document); ok {
			id, err := c.extractID(doc)
			if err != nil {
				return nil, err
			}

			keys = append(keys, id)

			continue
		}

		keys = append(keys, document)
	}

	req := &Request{
		Method:  http.MethodPut,
		Path:    "/_api/simple/lookup-by-keys",
		Data:    Document{"collection": c.name, "keys": keys},
		Command: fmt.Sprintf("db.%s.document(%s)", c.name, mustJSON(keys)),
		Read:    []string{c.name},
	}

	inTxn := c.inTransaction()

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document get", resp)
		}

		records, _ := resp.Body().([]any)
		if !inTxn {
			records, _ = resp.bodyField("documents").([]any)
		}

		docs := make([]any, 0, len(records))

		for _, record := range records {
			if doc, ok := record.(map[string]any); ok {
				if _, ok := doc["_id"]; ok {
					docs = append(docs, doc)
				}
			}
		}

		return docs, nil
	})
}

// All returns a cursor over every document in the collection.
func (c *Collection) All(ctx context.Context, skip, limit *int) (any, error) {
	data := Document{"collection": c.name}
	if skip != nil {
		data["skip"] = *skip
	}

	if limit != nil && *limit != 0 {
		data["limit"] = *limit
	}

	req := &Request{
		Method: http.MethodPut,
		Path:   "/_api/simple/all",
		Data:   data,
		Read:   []string{c.name},
	}

	if c.inTransaction() {
		command := fmt.Sprintf("db.%s.all()", c.name)
		if skip != nil {
			command += fmt.Sprintf(".skip(%d)", *skip)
		}

		if limit != nil {
			command += fmt.Sprintf(".limit(%d)", *limit)
		}

		req.Command = command + ".toArray()"
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document get", resp)
		}

		return newCursor(c.conn, resp.Body()), nil
	})
}

// Find returns a cursor over the documents matching the given filters. A
// limit below 1 falls back to the server default of 100.
func (c *Collection) Find(ctx context.Context, filters Document, skip, limit int) (any, error) {
	if limit < 1 {
		limit = 100
	}

	req := &Request{
		Method: http.MethodPut,
		Path:   "/_api/simple/by-example",
		Data: Document{
			"collection": c.name,
			"example":    filters,
			"skip":       skip,
			"limit":      limit,
		},
		Read: []string{c.name},
	}

	if c.inTransaction() {
		req.Command = fmt.Sprintf("db.%s.byExample(%s).skip(%d).limit(%d).toArray()",
			c.name, mustJSON(filters), skip, limit)
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document find", resp)
		}

		return newCursor(c.conn, resp.Body()), nil
	})
}

// Keys returns a cursor over the keys of every document in the collection.
func (c *Collection) Keys(ctx context.Context) (any, error) {
	return c.allKeys(ctx, "key", "_key")
}

// IDs returns a cursor over the IDs of every document in the collection.
func (c *Collection) IDs(ctx context.Context) (any, error) {
	return c.allKeys(ctx, "id", "_id")
}

func (c *Collection) allKeys(ctx context.Context, kind, field string) (any, error) {
	req := &Request{
		Method:  http.MethodPut,
		Path:    "/_api/simple/all-keys",
		Data:    Document{"collection": c.name, "type": kind},
		Command: fmt.Sprintf("db.%s.toArray().map(d => d.%s)", c.name, field),
		Read:    []string{c.name},
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document keys", resp)
		}

		return newCursor(c.conn, resp.Body()), nil
	})
}

// ExportOptions configure a bulk collection export.
type ExportOptions struct {
	// Limit caps the number of exported documents.
	Limit *int

	// Count makes the cursor report the total result count.
	Count bool

	// BatchSize caps the number of documents per server round trip.
	BatchSize *int

	// TTL is the server-side cursor lifetime in seconds.
	TTL *int

	// Flush writes the write-ahead log before the export starts, so the
	// export sees the latest writes.
	Flush bool
}

// Export returns a cursor over every document, bypassing the AQL layer. Not
// available in the transaction context.
func (c *Collection) Export(ctx context.Context, opts ExportOptions) (any, error) {
	data := Document{"count": opts.Count, "flush": opts.Flush}
	if opts.Limit != nil {
		data["limit"] = *opts.Limit
	}

	if opts.BatchSize != nil {
		data["batchSize"] = *opts.BatchSize
	}

	if opts.TTL != nil {
		data["ttl"] = *opts.TTL
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/export",
		Params: map[string]any{"collection": c.name},
		Data:   data,
		Read:   []string{c.name},
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document export", resp)
		}

		return newExportCursor(c.conn, resp.Body()), nil
	})
}

// Random returns a random document from the collection.
func (c *Collection) Random(ctx context.Context) (any, error) {
	req := &Request{
		Method:  http.MethodPut,
		Path:    "/_api/simple/any",
		Data:    Document{"collection": c.name},
		Command: fmt.Sprintf("db.%s.any()", c.name),
		Read:    []string{c.name},
	}

	inTxn := c.inTransaction()

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document get", resp)
		}

		if inTxn {
			return resp.Body(), nil
		}

		return resp.bodyField("document"), nil
	})
}

// InsertOptions configure document inserts.
type InsertOptions struct {
	// ReturnNew includes the body of the new document in the result metadata.
	ReturnNew bool

	// Silent suppresses the result metadata entirely.
	Silent bool

	// Sync blocks until the insert is synchronized to disk.
	Sync *bool
}

// Insert inserts a new document and returns its metadata, or true when the
// silent option is set.
func (c *Collection) Insert(ctx context.Context, document Document, opts InsertOptions) (any, error) {
	params := map[string]any{
		"returnNew": opts.ReturnNew,
		"silent":    opts.Silent,
	}
	if opts.Sync != nil {
		params["waitForSync"] = *opts.Sync
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/document/" + c.name,
		Data:   document,
		Params: params,
		Write:  []string{c.name},
	}

	if c.inTransaction() {
		req.Command = fmt.Sprintf("db.%s.insert(%s,%s)", c.name, mustJSON(document), mustJSON(params))
	}

	silent := opts.Silent

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document insert", resp)
		}

		if silent {
			return true, nil
		}

		return resp.Body(), nil
	})
}

// InsertMany inserts multiple documents. Per-document failures do not fail
// the call: the result slice holds a *ServerError in place of the metadata of
// each document that could not be inserted.
func (c *Collection) InsertMany(ctx context.Context, documents []Document, opts InsertOptions) (any, error) {
	params := map[string]any{
		"returnNew": opts.ReturnNew,
		"silent":    opts.Silent,
	}
	if opts.Sync != nil {
		params["waitForSync"] = *opts.Sync
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/document/" + c.name,
		Data:   documents,
		Params: params,
		Write:  []string{c.name},
	}

	if c.inTransaction() {
		req.Command = fmt.Sprintf("db.%s.insert(%s,%s)", c.name, mustJSON(documents), mustJSON(params))
	}

	silent := opts.Silent

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document insert", resp)
		}

		if silent {
			return true, nil
		}

		records, _ := resp.Body().([]any)
		results := make([]any, 0, len(records))

		for _, record := range records {
			result, ok := record.(map[string]any)
			if ok {
				if _, ok := result["_id"]; ok {
					results = append(results, result)
					continue
				}
			}

			sub := newResponse(resp.Method, resp.URL, resp.Headers,
				resp.StatusCode, resp.StatusText, []byte(mustJSON(record)))
			results = append(results, newServerError("document insert", sub))
		}

		return results, nil
	})
}

// UpdateOptions configure partial document updates.
type UpdateOptions struct {
	// CheckRev compares the document's _rev field against the stored revision.
	// Defaults to true.
	CheckRev *bool

	// Merge merges sub-objects instead of replacing them. Defaults to true.
	Merge *bool

	// KeepNull retains fields set to null instead of removing them. Defaults
	// to true.
	KeepNull *bool

	ReturnNew bool
	ReturnOld bool
	Silent    bool
	Sync      *bool
}

// Update applies a partial update to a document. The document must carry the
// _id or _key field.
func (c *Collection) Update(ctx context.Context, document Document, opts UpdateOptions) (any, error) {
	docID, err := c.extractID(document)
	if err != nil {
		return nil, err
	}

	checkRev := boolOrDefault(opts.CheckRev, true)

	params := map[string]any{
		"keepNull":     boolOrDefault(opts.KeepNull, true),
		"mergeObjects": boolOrDefault(opts.Merge, true),
		"returnNew":    opts.ReturnNew,
		"returnOld":    opts.ReturnOld,
		"ignoreRevs":   !checkRev,
		"overwrite":    !checkRev,
		"silent":       opts.Silent,
	}
	if opts.Sync != nil {
		params["waitForSync"] = *opts.Sync
	}

	req := &Request{
		Method: http.MethodPatch,
		Path:   "/_api/document/" + docID,
		Data:   document,
		Params: params,
		Write:  []string{c.name},
	}

	if c.inTransaction() {
		doc := mustJSON(document)
		req.Command = fmt.Sprintf("db.%s.update(%s,%s,%s)", c.name, doc, doc, mustJSON(params))
	}

	silent := opts.Silent

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document update", resp)
		}

		if silent {
			return true, nil
		}

		return resp.Body(), nil
	})
}

// UpdateMany applies partial updates to multiple documents. Every document
// must carry the _id or _key field. Per-document failures do not fail the
// call: the result slice holds a *ServerError in place of the metadata of
// each document that could not be updated.
func (c *Collection) UpdateMany(ctx context.Context, documents []Document, opts UpdateOptions) (any, error) {
	for _, document := range documents {
		if _, err := c.extractID(document); err != nil {
			return nil, err
		}
	}

	checkRev := boolOrDefault(opts.CheckRev, true)

	params := map[string]any{
		"keepNull":     boolOrDefault(opts.KeepNull, true),
		"mergeObjects": boolOrDefault(opts.Merge, true),
		"returnNew":    opts.ReturnNew,
		"returnOld":    opts.ReturnOld,
		"ignoreRevs":   !checkRev,
		"overwrite":    !checkRev,
		"silent":       opts.Silent,
	}
	if opts.Sync != nil {
		params["waitForSync"] = *opts.Sync
	}

	req := &Request{
		Method: http.MethodPatch,
		Path:   "/_api/document/" + c.name,
		Data:   documents,
		Params: params,
		Write:  []string{c.name},
	}

	if c.inTransaction() {
		docs := mustJSON(documents)
		req.Command = fmt.Sprintf("db.%s.update(%s,%s,%s)", c.name, docs, docs, mustJSON(params))
	}

	silent := opts.Silent

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document update", resp)
		}

		if silent {
			return true, nil
		}

		records, _ := resp.Body().([]any)
		results := make([]any, 0, len(records))

		for _, record := range records {
			result, ok := record.(map[string]any)
			if ok {
				if _, ok := result["_id"]; ok {
					results = append(results, result)
					continue
				}
			}

			sub := newResponse(resp.Method, resp.URL, resp.Headers,
				resp.StatusCode, resp.StatusText, []byte(mustJSON(record)))
			results = append(results, newServerError("document update", sub))
		}

		return results, nil
	})
}

// UpdateMatchOptions configure update-by-example calls.
type UpdateMatchOptions struct {
	// Limit caps the number of documents updated. Not supported on sharded
	// collections.
	Limit *int

	// KeepNull retains fields set to null instead of removing them. Defaults
	// to true.
	KeepNull *bool

	// Merge merges sub-objects instead of replacing them. Defaults to true.
	Merge *bool

	Sync *bool
}

// UpdateMatch applies a partial update to every document matching the given
// filters and returns the number of documents updated.
func (c *Collection) UpdateMatch(ctx context.Context, filters, body Document, opts UpdateMatchOptions) (any, error) {
	data := Document{
		"collection":   c.name,
		"example":      filters,
		"newValue":     body,
		"keepNull":     boolOrDefault(opts.KeepNull, true),
		"mergeObjects": boolOrDefault(opts.Merge, true),
	}
	if opts.Limit != nil {
		data["limit"] = *opts.Limit
	}

	if opts.Sync != nil {
		data["waitForSync"] = *opts.Sync
	}

	req := &Request{
		Method: http.MethodPut,
		Path:   "/_api/simple/update-by-example",
		Data:   data,
		Write:  []string{c.name},
	}

	if c.inTransaction() {
		req.Command = fmt.Sprintf("db.%s.updateByExample(%s,%s,%s)",
			c.name, mustJSON(filters), mustJSON(body), mustJSON(data))
	}

	inTxn := c.inTransaction()

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document update", resp)
		}

		if inTxn {
			return resp.Body(), nil
		}

		count, _ := resp.bodyField("updated").(float64)

		return int(count), nil
	})
}

// ReplaceOptions configure full document replacement.
type ReplaceOptions struct {
	// CheckRev compares the document's _rev field against the stored revision.
	// Defaults to true.
	CheckRev *bool

	ReturnNew bool
	ReturnOld bool
	Silent    bool
	Sync      *bool
}

// Replace replaces a document wholesale. The document must carry the _id or
// _key field.
func (c *Collection) Replace(ctx context.Context, document Document, opts ReplaceOptions) (any, error) {
	docID, err := c.extractID(document)
	if err != nil {
		return nil, err
	}

	checkRev := boolOrDefault(opts.CheckRev, true)

	params := map[string]any{
		"returnNew":  opts.ReturnNew,
		"returnOld":  opts.ReturnOld,
		"ignoreRevs": !checkRev,
		"overwrite":  !checkRev,
		"silent":     opts.Silent,
	}
	if opts.Sync != nil {
		params["waitForSync"] = *opts.Sync
	}

	req := &Request{
		Method: http.MethodPut,
		Path:   "/_api/document/" + docID,
		Data:   document,
		Params: params,
		Write:  []string{c.name},
	}

	if c.inTransaction() {
		doc := mustJSON(document)
		req.Command = fmt.Sprintf("db.%s.replace(%s,%s,%s)", c.name, doc, doc, mustJSON(params))
	}

	silent := opts.Silent

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("document replace", resp)
		}

		if silent {
			return true, nil
		}

		return resp.Body(), nil
	})
}

// DeleteOptions configure document deletion.
type DeleteOptions struct {
	// Rev is the expected revision. Overrides the document's _rev field.
	Rev string

	// CheckRev compares the revision against the stored one. Defaults to true.
	CheckRev *bool

	// IgnoreMissing turns a missing document into a false result instead of
	// an error. Has no effect inside transactions.
	IgnoreMissing bool

	ReturnOld bool
	Silent    bool
	Sync      *bool
}

// Delete removes the referenced document, which may be an ID, key or body.
func (c *Collection) Delete(ctx context.Context, document any, opts DeleteOptions) (any, error) {
	checkRev := boolOrDefault(opts.CheckRev, true)

	handle, body, headers, err := c.prepFromDoc(document, opts.Rev, checkRev)
	if err != nil {
		return nil, err
	}

	params := map[string]any{
		"returnOld":  opts.ReturnOld,
		"ignoreRevs": !checkRev,
		"overwrite":  !checkRev,
		"silent":     opts.Silent,
	}
	if opts.Sync != nil {
		params["waitForSync"] = *opts.Sync
	}

	req := &Request{
		Method:  http.MethodDelete,
		Path:    "/_api/document/" + handle,
		Params:  params,
		Headers: headers,
		Write:   []string{c.name},
	}

	if c.inTransaction() {
		req.Command = fmt.Sprintf("db.%s.remove(%s,%s)", c.name, mustJSON(body), mustJSON(params))
	}

	ignoreMissing := opts.IgnoreMissing
	silent := opts.Silent

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if resp.ErrorCode() == errDocumentNotFound && ignoreMissing {
			return false, nil
		}

		if !resp.IsSuccess() {
			return nil, newServerError("document delete", resp)
		}

		if silent {
			return true, nil
		}

		return resp.Body(), nil
	})
}

/////////////////////
// Index Management
/////////////////////

// Indexes returns the collection indexes.
func (c *Collection) Indexes(ctx context.Context) (any, error) {
	req := &Request{
		Method:  http.MethodGet,
		Path:    "/_api/index",
		Params:  map[string]any{"collection": c.name},
		Command: fmt.Sprintf("db.%s.getIndexes()", c.name),
		Read:    []string{c.name},
	}

	inTxn := c.inTransaction()

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("list indexes", resp)
		}

		if inTxn {
			return resp.Body(), nil
		}

		return resp.bodyField("indexes"), nil
	})
}

// IndexOptions configure index creation.
type IndexOptions struct {
	Fields    []string
	Unique    *bool
	Sparse    *bool
	MinLength *int
}

func (c *Collection) addIndex(ctx context.Context, data Document) (any, error) {
	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/index",
		Params: map[string]any{"collection": c.name},
		Data:   data,
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("create index", resp)
		}

		return resp.Body(), nil
	})
}

// AddHashIndex creates a hash index on the given fields.
func (c *Collection) AddHashIndex(ctx context.Context, opts IndexOptions) (any, error) {
	data := Document{"type": "hash", "fields": opts.Fields}
	if opts.Unique != nil {
		data["unique"] = *opts.Unique
	}

	if opts.Sparse != nil {
		data["sparse"] = *opts.Sparse
	}

	return c.addIndex(ctx, data)
}

// AddSkiplistIndex creates a skiplist index on the given fields.
func (c *Collection) AddSkiplistIndex(ctx context.Context, opts IndexOptions) (any, error) {
	data := Document{"type": "skiplist", "fields": opts.Fields}
	if opts.Unique != nil {
		data["unique"] = *opts.Unique
	}

	if opts.Sparse != nil {
		data["sparse"] = *opts.Sparse
	}

	return c.addIndex(ctx, data)
}

// AddPersistentIndex creates a persistent index on the given fields.
func (c *Collection) AddPersistentIndex(ctx context.Context, opts IndexOptions) (any, error) {
	data := Document{"type": "persistent", "fields": opts.Fields}
	if opts.Unique != nil {
		data["unique"] = *opts.Unique
	}

	if opts.Sparse != nil {
		data["sparse"] = *opts.Sparse
	}

	return c.addIndex(ctx, data)
}

// AddFulltextIndex creates a fulltext index on the given fields.
func (c *Collection) AddFulltextIndex(ctx context.Context, opts IndexOptions) (any, error) {
	data := Document{"type": "fulltext", "fields": opts.Fields}
	if opts.MinLength != nil {
		data["minLength"] = *opts.MinLength
	}

	return c.addIndex(ctx, data)
}

// DeleteIndex removes the index with the given id.
func (c *Collection) DeleteIndex(ctx context.Context, indexID string, ignoreMissing bool) (any, error) {
	req := &Request{
		Method: http.MethodDelete,
		Path:   "/_api/index/" + c.name + "/" + indexID,
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if resp.StatusCode == http.StatusNotFound && ignoreMissing {
			return false, nil
		}

		if !resp.IsSuccess() {
			return nil, newServerError("delete index", resp)
		}

		return true, nil
	})
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}

	return *v
}
