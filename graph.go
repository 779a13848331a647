package arango

import (
	"context"
	"fmt"
	"net/http"
)

// Graph wraps one named graph managed through the gharial API. Vertex and
// edge operations run through the general-graph module when queued inside a
// transaction, so the graph's edge definitions stay enforced in every
// execution context.
type Graph struct {
	apiWrapper

	name string
}

func newGraph(conn *Connection, exec Executor, name string) *Graph {
	return &Graph{apiWrapper: newAPIWrapper(conn, exec), name: name}
}

// Name returns the graph name.
func (g *Graph) Name() string {
	return g.name
}

// Properties returns the graph properties.
func (g *Graph) Properties(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/gharial/" + g.name,
	}

	return g.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("graph properties", resp)
		}

		return resp.bodyField("graph"), nil
	})
}

// VertexCollection returns the wrapper for a vertex collection of the graph.
func (g *Graph) VertexCollection(name string) *VertexCollection {
	return &VertexCollection{
		graphCollection: newGraphCollection(g.conn, g.exec, g.name, name, "vertex"),
	}
}

// VertexCollections returns the names of the graph's vertex collections.
func (g *Graph) VertexCollections(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/gharial/" + g.name + "/vertex",
	}

	return g.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("list vertex collections", resp)
		}

		return resp.bodyField("collections"), nil
	})
}

// CreateVertexCollection adds a vertex collection to the graph and returns
// its wrapper.
func (g *Graph) CreateVertexCollection(ctx context.Context, name string) (any, error) {
	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/gharial/" + g.name + "/vertex",
		Data:   Document{"collection": name},
	}

	return g.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("create vertex collection", resp)
		}

		return g.VertexCollection(name), nil
	})
}

// DeleteVertexCollection removes a vertex collection from the graph. With
// purge set, the collection is dropped from the database as well.
func (g *Graph) DeleteVertexCollection(ctx context.Context, name string, purge bool) (any, error) {
	req := &Request{
		Method: http.MethodDelete,
		Path:   "/_api/gharial/" + g.name + "/vertex/" + name,
		Params: map[string]any{"dropCollection": purge},
	}

	return g.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("delete vertex collection", resp)
		}

		return true, nil
	})
}

// EdgeCollection returns the wrapper for an edge collection of the graph.
func (g *Graph) EdgeCollection(name string) *EdgeCollection {
	return &EdgeCollection{
		graphCollection: newGraphCollection(g.conn, g.exec, g.name, name, "edge"),
	}
}

// EdgeDefinitions returns the edge definitions of the graph.
func (g *Graph) EdgeDefinitions(ctx context.Context) (any, error) {
	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/gharial/" + g.name,
	}

	return g.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("list edge definitions", resp)
		}

		graph, _ := resp.bodyField("graph").(map[string]any)
		if graph == nil {
			return nil, nil
		}

		return graph["edgeDefinitions"], nil
	})
}

// CreateEdgeDefinition adds an edge definition, and its edge collection, to
// the graph.
func (g *Graph) CreateEdgeDefinition(ctx context.Context, definition EdgeDefinition) (any, error) {
	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/gharial/" + g.name + "/edge",
		Data: Document{
			"collection": definition.Collection,
			"from":       definition.From,
			"to":         definition.To,
		},
	}

	return g.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("create edge definition", resp)
		}

		return g.EdgeCollection(definition.Collection), nil
	})
}

// ReplaceEdgeDefinition replaces the from and to collections of an existing
// edge definition.
func (g *Graph) ReplaceEdgeDefinition(ctx context.Context, definition EdgeDefinition) (any, error) {
	req := &Request{
		Method: http.MethodPut,
		Path:   "/_api/gharial/" + g.name + "/edge/" + definition.Collection,
		Data: Document{
			"collection": definition.Collection,
			"from":       definition.From,
			"to":         definition.To,
		},
	}

	return g.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("replace edge definition", resp)
		}

		return true, nil
	})
}

// DeleteEdgeDefinition removes an edge definition from the graph. With purge
// set, the edge collection is dropped from the database as well.
func (g *Graph) DeleteEdgeDefinition(ctx context.Context, name string, purge bool) (any, error) {
	req := &Request{
		Method: http.MethodDelete,
		Path:   "/_api/gharial/" + g.name + "/edge/" + name,
		Params: map[string]any{"dropCollection": purge},
	}

	return g.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("delete edge definition", resp)
		}

		return true, nil
	})
}

// TraversalOptions configure a graph traversal.
type TraversalOptions struct {
	// Direction is "outbound", "inbound" or "any". Empty means outbound.
	Direction string

	// ItemOrder is "forward" or "backward".
	ItemOrder string

	// Strategy is "depthfirst" or "breadthfirst".
	Strategy string

	// Order is "preorder", "postorder" or "preorder-expander".
	Order string

	// VertexUniqueness and EdgeUniqueness are "global", "path" or "none".
	VertexUniqueness string
	EdgeUniqueness   string

	MinDepth *int
	MaxDepth *int
	MaxIter  *int

	// Javascript hook bodies, passed through verbatim.
	InitFunc    string
	SortFunc    string
	FilterFunc  string
	VisitorFunc string
}

// Traverse walks the graph from the start vertex and returns the visited
// vertices and paths.
func (g *Graph) Traverse(ctx context.Context, startVertex string, opts TraversalOptions) (any, error) {
	direction := opts.Direction
	if direction == "" {
		direction = "outbound"
	}

	data := Document{
		"startVertex": startVertex,
		"graphName":   g.name,
		"direction":   direction,
	}

	if opts.ItemOrder != "" {
		data["itemOrder"] = opts.ItemOrder
	}

	if opts.Strategy != "" {
		data["strategy"] = opts.Strategy
	}

	if opts.Order != "" {
		data["order"] = opts.Order
	}

	uniqueness := Document{}
	if opts.VertexUniqueness != "" {
		uniqueness["vertices"] = opts.VertexUniqueness
	}

	if opts.EdgeUniqueness != "" {
		uniqueness["edges"] = opts.EdgeUniqueness
	}

	if len(uniqueness) > 0 {
		data["uniqueness"] = uniqueness
	}

	if opts.MinDepth != nil {
		data["minDepth"] = *opts.MinDepth
	}

	if opts.MaxDepth != nil {
		data["maxDepth"] = *opts.MaxDepth
	}

	if opts.MaxIter != nil {
		data["maxIterations"] = *opts.MaxIter
	}

	if opts.InitFunc != "" {
		data["init"] = opts.InitFunc
	}

	if opts.SortFunc != "" {
		data["sort"] = opts.SortFunc
	}

	if opts.FilterFunc != "" {
		data["filter"] = opts.FilterFunc
	}

	if opts.VisitorFunc != "" {
		data["visitor"] = opts.VisitorFunc
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/_api/traversal",
		Data:   data,
	}

	return g.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("graph traverse", resp)
		}

		result, _ := resp.bodyField("result").(map[string]any)
		if result == nil {
			return nil, nil
		}

		return result["visited"], nil
	})
}

// graphCollection is the shared core of vertex and edge collections: the
// document plumbing of Collection, plus the graph name and the gharial
// endpoint kind.
type graphCollection struct {
	Collection

	graph string
	kind  string
}

func newGraphCollection(conn *Connection, exec Executor, graph, name, kind string) graphCollection {
	return graphCollection{
		Collection: *newCollection(conn, exec, name),
		graph:      graph,
		kind:       kind,
	}
}

// Graph returns the name of the graph the collection belongs to.
func (c *graphCollection) Graph() string {
	return c.graph
}

func (c *graphCollection) docPath(handle string) string {
	return "/_api/gharial/" + c.graph + "/" + c.kind + "/" + handle
}

// prepFromBody normalizes a document body into its ID and revision check
// headers.
func (c *graphCollection) prepFromBody(doc Document, checkRev bool) (string, map[string]string, error) {
	docID, err := c.extractID(doc)
	if err != nil {
		return "", nil, err
	}

	rev, ok := doc["_rev"].(string)
	if !checkRev || !ok {
		return docID, nil, nil
	}

	return docID, map[string]string{"If-Match": rev}, nil
}

func (c *graphCollection) get(ctx context.Context, document any, rev string, checkRev bool) (any, error) {
	handle, body, headers, err := c.prepFromDoc(document, rev, checkRev)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method:  http.MethodGet,
		Path:    c.docPath(handle),
		Headers: headers,
		Read:    []string{c.name},
	}

	inTxn := c.inTransaction()
	if inTxn {
		req.Command = fmt.Sprintf("gm._graph(%q).%s.document(%s)", c.graph, c.name, mustJSON(body))
	}

	kind := c.kind

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if resp.ErrorCode() == errDocumentNotFound {
			return nil, nil
		}

		if !resp.IsSuccess() {
			return nil, newServerError(kind+" get", resp)
		}

		if inTxn {
			return resp.Body(), nil
		}

		return resp.bodyField(kind), nil
	})
}

func (c *graphCollection) insert(ctx context.Context, doc Document, sync *bool, silent bool) (any, error) {
	params := map[string]any{"silent": silent}
	if sync != nil {
		params["waitForSync"] = *sync
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   c.docPath(c.name),
		Data:   doc,
		Params: params,
		Write:  []string{c.name},
	}

	inTxn := c.inTransaction()
	if inTxn {
		req.Command = fmt.Sprintf("gm._graph(%q).%s.save(%s,%s)", c.graph, c.name, mustJSON(doc), mustJSON(params))
	}

	kind := c.kind

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError(kind+" insert", resp)
		}

		if silent {
			return true, nil
		}

		if inTxn {
			return resp.Body(), nil
		}

		return resp.bodyField(kind), nil
	})
}

func (c *graphCollection) update(ctx context.Context, doc Document, checkRev bool, sync *bool, silent bool) (any, error) {
	docID, headers, err := c.prepFromBody(doc, checkRev)
	if err != nil {
		return nil, err
	}

	params := map[string]any{
		"keepNull":  true,
		"overwrite": !checkRev,
		"silent":    silent,
	}
	if sync != nil {
		params["waitForSync"] = *sync
	}

	req := &Request{
		Method:  http.MethodPatch,
		Path:    c.docPath(docID),
		Headers: headers,
		Data:    doc,
		Params:  params,
		Write:   []string{c.name},
	}

	inTxn := c.inTransaction()
	if inTxn {
		req.Command = fmt.Sprintf("gm._graph(%q).%s.update(%q,%s,%s)",
			c.graph, c.name, docID, mustJSON(doc), mustJSON(params))
	}

	kind := c.kind

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError(kind+" update", resp)
		}

		if silent {
			return true, nil
		}

		if inTxn {
			return resp.Body(), nil
		}

		return resp.bodyField(kind), nil
	})
}

func (c *graphCollection) replace(ctx context.Context, doc Document, checkRev bool, sync *bool, silent bool) (any, error) {
	docID, headers, err := c.prepFromBody(doc, checkRev)
	if err != nil {
		return nil, err
	}

	params := map[string]any{"silent": silent}
	if sync != nil {
		params["waitForSync"] = *sync
	}

	req := &Request{
		Method:  http.MethodPut,
		Path:    c.docPath(docID),
		Headers: headers,
		Data:    doc,
		Params:  params,
		Write:   []string{c.name},
	}

	inTxn := c.inTransaction()
	if inTxn {
		req.Command = fmt.Sprintf("gm._graph(%q).%s.replace(%q,%s,%s)",
			c.graph, c.name, docID, mustJSON(doc), mustJSON(params))
	}

	kind := c.kind

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError(kind+" replace", resp)
		}

		if silent {
			return true, nil
		}

		if inTxn {
			return resp.Body(), nil
		}

		return resp.bodyField(kind), nil
	})
}

func (c *graphCollection) delete(ctx context.Context, document any, rev string, checkRev, ignoreMissing bool, sync *bool) (any, error) {
	handle, _, headers, err := c.prepFromDoc(document, rev, checkRev)
	if err != nil {
		return nil, err
	}

	params := map[string]any{}
	if sync != nil {
		params["waitForSync"] = *sync
	}

	req := &Request{
		Method:  http.MethodDelete,
		Path:    c.docPath(handle),
		Headers: headers,
		Params:  params,
		Write:   []string{c.name},
	}

	if c.inTransaction() {
		req.Command = fmt.Sprintf("gm._graph(%q).%s.remove(%q,%s)",
			c.graph, c.name, handle, mustJSON(params))
	}

	kind := c.kind

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if resp.ErrorCode() == errDocumentNotFound && ignoreMissing {
			return false, nil
		}

		if !resp.IsSuccess() {
			return nil, newServerError(kind+" delete", resp)
		}

		return true, nil
	})
}

// VertexCollection manages vertex documents of one graph.
type VertexCollection struct {
	graphCollection
}

// Get returns a vertex document, or nil when it does not exist.
func (c *VertexCollection) Get(ctx context.Context, vertex any, rev string, checkRev bool) (any, error) {
	return c.get(ctx, vertex, rev, checkRev)
}

// Insert inserts a new vertex document.
func (c *VertexCollection) Insert(ctx context.Context, vertex Document, sync *bool, silent bool) (any, error) {
	return c.insert(ctx, vertex, sync, silent)
}

// Update applies a partial update to a vertex document.
func (c *VertexCollection) Update(ctx context.Context, vertex Document, checkRev bool, sync *bool, silent bool) (any, error) {
	return c.update(ctx, vertex, checkRev, sync, silent)
}

// Replace replaces a vertex document wholesale.
func (c *VertexCollection) Replace(ctx context.Context, vertex Document, checkRev bool, sync *bool, silent bool) (any, error) {
	return c.replace(ctx, vertex, checkRev, sync, silent)
}

// Delete removes a vertex document.
func (c *VertexCollection) Delete(ctx context.Context, vertex any, rev string, checkRev, ignoreMissing bool, sync *bool) (any, error) {
	return c.delete(ctx, vertex, rev, checkRev, ignoreMissing, sync)
}

// EdgeCollection manages edge documents of one graph. Edge documents carry
// _from and _to fields and are validated against the graph's edge definitions
// on insert.
type EdgeCollection struct {
	graphCollection
}

// Get returns an edge document, or nil when it does not exist.
func (c *EdgeCollection) Get(ctx context.Context, edge any, rev string, checkRev bool) (any, error) {
	return c.get(ctx, edge, rev, checkRev)
}

// Insert inserts a new edge document. The document must carry the _from and
// _to fields.
func (c *EdgeCollection) Insert(ctx context.Context, edge Document, sync *bool, silent bool) (any, error) {
	return c.insert(ctx, edge, sync, silent)
}

// Update applies a partial update to an edge document.
func (c *EdgeCollection) Update(ctx context.Context, edge Document, checkRev bool, sync *bool, silent bool) (any, error) {
	return c.update(ctx, edge, checkRev, sync, silent)
}

// Replace replaces an edge document wholesale.
func (c *EdgeCollection) Replace(ctx context.Context, edge Document, checkRev bool, sync *bool, silent bool) (any, error) {
	return c.replace(ctx, edge, checkRev, sync, silent)
}

// Delete removes an edge document.
func (c *EdgeCollection) Delete(ctx context.Context, edge any, rev string, checkRev, ignoreMissing bool, sync *bool) (any, error) {
	return c.delete(ctx, edge, rev, checkRev, ignoreMissing, sync)
}

// Link inserts an edge from one vertex to another, with any extra fields of
// data merged into the edge document.
func (c *EdgeCollection) Link(ctx context.Context, from, to string, data Document, sync *bool, silent bool) (any, error) {
	edge := make(Document, len(data)+2)
	for key, val := range data {
		edge[key] = val
	}

	edge["_from"] = from
	edge["_to"] = to

	return c.insert(ctx, edge, sync, silent)
}

// Edges returns the edges attached to the given vertex. Direction is "in",
// "out" or empty for both.
func (c *EdgeCollection) Edges(ctx context.Context, vertex string, direction string) (any, error) {
	params := map[string]any{"vertex": vertex}
	if direction != "" {
		params["direction"] = direction
	}

	req := &Request{
		Method: http.MethodGet,
		Path:   "/_api/edges/" + c.name,
		Params: params,
		Read:   []string{c.name},
	}

	return c.execute(ctx, req, func(resp *Response) (any, error) {
		if !resp.IsSuccess() {
			return nil, newServerError("edge list", resp)
		}

		return resp.bodyField("edges"), nil
	})
}
