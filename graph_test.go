package arango

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGraphProperties(t *testing.T) {
	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_db/test/_api/gharial/social", r.URL.Path)
		jsonHandler(http.StatusOK,
			`{"graph":{"_key":"social","edgeDefinitions":[{"collection":"follows"}]},"code":200,"error":false}`)(w, r)
	}))

	graph := db.Graph("social")
	require.Equal(t, "social", graph.Name())

	props, err := Unwrap[map[string]any](graph.Properties(context.Background()))
	require.NoError(t, err)
	require.Equal(t, "social", props["_key"])

	definitions, err := Unwrap[[]any](graph.EdgeDefinitions(context.Background()))
	require.NoError(t, err)
	require.Len(t, definitions, 1)
}

func TestGraphVertexCollections(t *testing.T) {
	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			jsonHandler(http.StatusOK, `{"collections":["users"],"code":200,"error":false}`)(w, r)
		case http.MethodPost:
			jsonHandler(http.StatusAccepted, `{"graph":{"_key":"social"},"code":202,"error":false}`)(w, r)
		case http.MethodDelete:
			require.Equal(t, "dropCollection=1", r.URL.RawQuery)
			jsonHandler(http.StatusAccepted, `{"graph":{"_key":"social"},"code":202,"error":false}`)(w, r)
		}
	}))

	graph := db.Graph("social")

	names, err := Unwrap[[]any](graph.VertexCollections(context.Background()))
	require.NoError(t, err)
	require.Equal(t, []any{"users"}, names)

	result, err := graph.CreateVertexCollection(context.Background(), "places")
	require.NoError(t, err)

	col, ok := result.(*VertexCollection)
	require.True(t, ok)
	require.Equal(t, "places", col.Name())
	require.Equal(t, "social", col.Graph())

	dropped, err := Unwrap[bool](graph.DeleteVertexCollection(context.Background(), "places", true))
	require.NoError(t, err)
	require.True(t, dropped)
}

func TestVertexCollectionRoundTrip(t *testing.T) {
	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			require.Equal(t, "/_db/test/_api/gharial/social/vertex/users", r.URL.Path)
			jsonHandler(http.StatusAccepted,
				`{"vertex":{"_id":"users/john","_key":"john","_rev":"_abc"},"code":202,"error":false}`)(w, r)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/john"):
			require.Equal(t, "/_db/test/_api/gharial/social/vertex/users/john", r.URL.Path)
			jsonHandler(http.StatusOK,
				`{"vertex":{"_id":"users/john","_key":"john"},"code":200,"error":false}`)(w, r)
		case r.Method == http.MethodGet:
			jsonHandler(http.StatusNotFound,
				`{"error":true,"errorNum":1202,"errorMessage":"document not found","code":404}`)(w, r)
		case r.Method == http.MethodPatch:
			jsonHandler(http.StatusAccepted,
				`{"vertex":{"_id":"users/john","_rev":"_new"},"code":202,"error":false}`)(w, r)
		case r.Method == http.MethodDelete:
			jsonHandler(http.StatusAccepted, `{"removed":true,"code":202,"error":false}`)(w, r)
		}
	}))

	col := db.Graph("social").VertexCollection("users")

	meta, err := Unwrap[map[string]any](col.Insert(context.Background(), Document{"_key": "john"}, nil, false))
	require.NoError(t, err)
	require.Equal(t, "users/john", meta["_id"])

	vertex, err := Unwrap[map[string]any](col.Get(context.Background(), "john", "", true))
	require.NoError(t, err)
	require.Equal(t, "john", vertex["_key"])

	missing, err := col.Get(context.Background(), "ghost", "", true)
	require.NoError(t, err)
	require.Nil(t, missing)

	meta, err = Unwrap[map[string]any](col.Update(context.Background(),
		Document{"_key": "john", "age": 31}, true, nil, false))
	require.NoError(t, err)
	require.Equal(t, "_new", meta["_rev"])

	removed, err := Unwrap[bool](col.Delete(context.Background(), "john", "", true, false, nil))
	require.NoError(t, err)
	require.True(t, removed)
}

func TestEdgeCollectionLink(t *testing.T) {
	var captured Document

	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_db/test/_api/gharial/social/edge/follows", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		jsonHandler(http.StatusAccepted,
			`{"edge":{"_id":"follows/1","_key":"1"},"code":202,"error":false}`)(w, r)
	}))

	col := db.Graph("social").EdgeCollection("follows")

	meta, err := Unwrap[map[string]any](col.Link(context.Background(),
		"users/john", "users/jane", Document{"since": 2020}, nil, false))
	require.NoError(t, err)
	require.Equal(t, "follows/1", meta["_id"])

	require.Equal(t, "users/john", captured["_from"])
	require.Equal(t, "users/jane", captured["_to"])
	require.Equal(t, float64(2020), captured["since"])
}

func TestEdgeCollectionEdges(t *testing.T) {
	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_db/test/_api/edges/follows", r.URL.Path)
		require.Equal(t, "users/john", r.URL.Query().Get("vertex"))
		require.Equal(t, "out", r.URL.Query().Get("direction"))
		jsonHandler(http.StatusOK,
			`{"edges":[{"_id":"follows/1","_from":"users/john","_to":"users/jane"}],"code":200,"error":false}`)(w, r)
	}))

	edges, err := Unwrap[[]any](db.Graph("social").EdgeCollection("follows").
		Edges(context.Background(), "users/john", "out"))
	require.NoError(t, err)
	require.Len(t, edges, 1)
}

func TestGraphTraverse(t *testing.T) {
	var captured map[string]any

	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_db/test/_api/traversal", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		jsonHandler(http.StatusOK,
			`{"result":{"visited":{"vertices":[{"_key":"john"}],"paths":[]}},"code":200,"error":false}`)(w, r)
	}))

	visited, err := Unwrap[map[string]any](db.Graph("social").Traverse(context.Background(),
		"users/john", TraversalOptions{
			Strategy:         "depthfirst",
			VertexUniqueness: "global",
			MaxDepth:         intPtr(3),
		}))
	require.NoError(t, err)
	require.Len(t, visited["vertices"].([]any), 1)

	require.Equal(t, "users/john", captured["startVertex"])
	require.Equal(t, "social", captured["graphName"])
	require.Equal(t, "outbound", captured["direction"])
	require.Equal(t, "depthfirst", captured["strategy"])
	require.Equal(t, float64(3), captured["maxDepth"])
	require.Equal(t, "global", captured["uniqueness"].(map[string]any)["vertices"])
}

func TestGraphCollection_TransactionCommands(t *testing.T) {
	var captured map[string]any

	var jobs []*TransactionJob

	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		result := map[string]any{
			jobs[0].ID(): map[string]any{"_id": "users/john"},
			jobs[1].ID(): map[string]any{"_id": "follows/1"},
		}

		body, err := json.Marshal(map[string]any{"result": result, "code": 200, "error": false})
		require.NoError(t, err)

		jsonHandler(http.StatusOK, string(body))(w, r)
	}))

	txn := db.BeginTransaction(true, TransactionOptions{})
	graph := txn.Graph("social")

	_, err := graph.VertexCollection("users").Insert(context.Background(),
		Document{"_key": "john"}, nil, false)
	require.NoError(t, err)

	_, err = graph.EdgeCollection("follows").Link(context.Background(),
		"users/john", "users/jane", nil, nil, false)
	require.NoError(t, err)

	jobs = txn.QueuedJobs()
	require.Len(t, jobs, 2)

	_, err = txn.Commit(context.Background())
	require.NoError(t, err)

	action := captured["action"].(string)
	require.Contains(t, action, fmt.Sprintf(`result[%q] = gm._graph("social").users.save(`, jobs[0].ID()))
	require.Contains(t, action, `gm._graph("social").follows.save(`)

	collections := captured["collections"].(map[string]any)
	require.Equal(t, []any{"follows", "users"}, collections["write"])

	value, err := jobs[0].Result(context.Background())
	require.NoError(t, err)
	require.Equal(t, "users/john", value.(map[string]any)["_id"])
}
