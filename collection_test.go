package arango

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectionExtractID(t *testing.T) {
	col := newCollection(nil, newDefaultExecutor(nil), "users")

	id, err := col.extractID(Document{"_id": "users/john"})
	require.NoError(t, err)
	require.Equal(t, "users/john", id)

	id, err = col.extractID(Document{"_key": "john"})
	require.NoError(t, err)
	require.Equal(t, "users/john", id)

	_, err = col.extractID(Document{"_id": "posts/1"})
	require.ErrorIs(t, err, ErrDocumentParse)

	_, err = col.extractID(Document{"name": "john"})
	require.ErrorIs(t, err, ErrDocumentParse)
}

func TestCollectionPrepFromDoc(t *testing.T) {
	col := newCollection(nil, newDefaultExecutor(nil), "users")

	t.Run("key string", func(t *testing.T) {
		handle, body, headers, err := col.prepFromDoc("john", "", true)
		require.NoError(t, err)
		require.Equal(t, "users/john", handle)
		require.Equal(t, "users/john", body)
		require.Nil(t, headers)
	})

	t.Run("id string from wrong collection", func(t *testing.T) {
		_, _, _, err := col.prepFromDoc("posts/1", "", true)
		require.ErrorIs(t, err, ErrDocumentParse)
	})

	t.Run("body with revision", func(t *testing.T) {
		handle, _, headers, err := col.prepFromDoc(Document{"_key": "john", "_rev": "_abc"}, "", true)
		require.NoError(t, err)
		require.Equal(t, "users/john", handle)
		require.Equal(t, "_abc", headers["If-Match"])
	})

	t.Run("revision ignored without check", func(t *testing.T) {
		_, _, headers, err := col.prepFromDoc(Document{"_key": "john", "_rev": "_abc"}, "", false)
		require.NoError(t, err)
		require.Nil(t, headers)
	})

	t.Run("unsupported reference", func(t *testing.T) {
		_, _, _, err := col.prepFromDoc(42, "", true)
		require.ErrorIs(t, err, ErrDocumentParse)
	})
}

func TestCollectionPrepFromDoc_TransactionBody(t *testing.T) {
	conn := &Connection{}
	col := newCollection(conn, newTransactionExecutor(conn, true, TransactionOptions{}), "users")

	_, body, headers, err := col.prepFromDoc("john", "_abc", true)
	require.NoError(t, err)
	require.Equal(t, Document{"_id": "users/john", "_rev": "_abc"}, body)
	require.Equal(t, "_abc", headers["If-Match"])
}

func TestCollectionHas(t *testing.T) {
	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/_db/test/_api/document/users/john" {
			jsonHandler(http.StatusOK, `{"_id":"users/john","_key":"john","_rev":"_abc"}`)(w, r)
			return
		}

		jsonHandler(http.StatusNotFound,
			`{"error":true,"errorNum":1202,"errorMessage":"document not found","code":404}`)(w, r)
	}))

	col := db.Collection("users")

	exists, err := Unwrap[bool](col.Has(context.Background(), "john", "", true))
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = Unwrap[bool](col.Has(context.Background(), "ghost", "", true))
	require.NoError(t, err)
	require.False(t, exists)
}

func TestCollectionGet(t *testing.T) {
	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/_db/test/_api/document/users/john":
			if r.Header.Get("If-Match") == "_stale" {
				jsonHandler(http.StatusPreconditionFailed,
					`{"error":true,"errorNum":1200,"errorMessage":"conflict","code":412}`)(w, r)
				return
			}

			jsonHandler(http.StatusOK, `{"_id":"users/john","_key":"john","_rev":"_abc"}`)(w, r)
		default:
			jsonHandler(http.StatusNotFound,
				`{"error":true,"errorNum":1202,"errorMessage":"document not found","code":404}`)(w, r)
		}
	}))

	col := db.Collection("users")

	doc, err := Unwrap[map[string]any](col.Get(context.Background(), "john", "", true))
	require.NoError(t, err)
	require.Equal(t, "users/john", doc["_id"])

	// Missing documents resolve to nil, not an error.
	result, err := col.Get(context.Background(), "ghost", "", true)
	require.NoError(t, err)
	require.Nil(t, result)

	_, err = col.Get(context.Background(), "john", "_stale", true)
	require.Error(t, err)
	require.True(t, IsRevisionMismatch(err))
}

func TestCollectionGetMany(t *testing.T) {
	var captured map[string]any

	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_db/test/_api/simple/lookup-by-keys", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		// Missing keys come back as lookup error stubs without an _id.
		jsonHandler(http.StatusOK,
			`{"documents":[{"_id":"users/john","_key":"john"},{"error":true,"errorNum":1202}],"code":200}`)(w, r)
	}))

	docs, err := Unwrap[[]any](db.Collection("users").GetMany(context.Background(),
		[]any{"john", Document{"_key": "ghost"}}))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "users/john", docs[0].(map[string]any)["_id"])

	require.Equal(t, "users", captured["collection"])
	require.Equal(t, []any{"john", "users/ghost"}, captured["keys"])
}

func TestCollectionInsert(t *testing.T) {
	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/_db/test/_api/document/users", r.URL.Path)
		require.Equal(t, "returnNew=1&silent=0", r.URL.RawQuery)
		jsonHandler(http.StatusAccepted,
			`{"_id":"users/john","_key":"john","_rev":"_abc","new":{"_key":"john","age":30}}`)(w, r)
	}))

	meta, err := Unwrap[map[string]any](db.Collection("users").Insert(context.Background(),
		Document{"_key": "john", "age": 30}, InsertOptions{ReturnNew: true}))
	require.NoError(t, err)
	require.Equal(t, "users/john", meta["_id"])
	require.Contains(t, meta, "new")
}

func TestCollectionInsert_Silent(t *testing.T) {
	db := newTestDatabase(t, jsonHandler(http.StatusAccepted, `{}`))

	result, err := Unwrap[bool](db.Collection("users").Insert(context.Background(),
		Document{"_key": "john"}, InsertOptions{Silent: true}))
	require.NoError(t, err)
	require.True(t, result)
}

func TestCollectionInsertMany_PartialFailure(t *testing.T) {
	db := newTestDatabase(t, jsonHandler(http.StatusAccepted,
		`[{"_id":"users/a","_key":"a","_rev":"_x"},`+
			`{"error":true,"errorNum":1210,"errorMessage":"unique constraint violated"}]`))

	results, err := Unwrap[[]any](db.Collection("users").InsertMany(context.Background(),
		[]Document{{"_key": "a"}, {"_key": "a"}}, InsertOptions{}))
	require.NoError(t, err)
	require.Len(t, results, 2)

	meta := results[0].(map[string]any)
	require.Equal(t, "users/a", meta["_id"])

	srvErr, ok := results[1].(*ServerError)
	require.True(t, ok)
	require.Equal(t, errUniqueConstraint, srvErr.ErrorCode)
	require.Contains(t, srvErr.Error(), "unique constraint violated")
}

func TestCollectionUpdate(t *testing.T) {
	var captured Document

	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/_db/test/_api/document/users/john", r.URL.Path)

		params := r.URL.Query()
		require.Equal(t, "1", params.Get("keepNull"))
		require.Equal(t, "1", params.Get("mergeObjects"))
		require.Equal(t, "0", params.Get("ignoreRevs"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		jsonHandler(http.StatusAccepted, `{"_id":"users/john","_rev":"_new","_oldRev":"_abc"}`)(w, r)
	}))

	meta, err := Unwrap[map[string]any](db.Collection("users").Update(context.Background(),
		Document{"_key": "john", "age": 31}, UpdateOptions{}))
	require.NoError(t, err)
	require.Equal(t, "_new", meta["_rev"])
	require.Equal(t, float64(31), captured["age"])
}

func TestCollectionUpdateMany_PartialFailure(t *testing.T) {
	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/_db/test/_api/document/users", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("keepNull"))

		jsonHandler(http.StatusAccepted,
			`[{"_id":"users/a","_key":"a","_rev":"_y","_oldRev":"_x"},`+
				`{"error":true,"errorNum":1202,"errorMessage":"document not found"}]`)(w, r)
	}))

	results, err := Unwrap[[]any](db.Collection("users").UpdateMany(context.Background(),
		[]Document{{"_key": "a", "age": 31}, {"_key": "ghost", "age": 31}}, UpdateOptions{}))
	require.NoError(t, err)
	require.Len(t, results, 2)

	meta := results[0].(map[string]any)
	require.Equal(t, "_y", meta["_rev"])

	srvErr, ok := results[1].(*ServerError)
	require.True(t, ok)
	require.Equal(t, errDocumentNotFound, srvErr.ErrorCode)
}

func TestCollectionUpdateMany_MissingKey(t *testing.T) {
	db := newTestDatabase(t, jsonHandler(http.StatusAccepted, `[]`))

	_, err := db.Collection("users").UpdateMany(context.Background(),
		[]Document{{"age": 31}}, UpdateOptions{})
	require.ErrorIs(t, err, ErrDocumentParse)
}

func TestCollectionUpdateMatch(t *testing.T) {
	var captured Document

	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/_db/test/_api/simple/update-by-example", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		jsonHandler(http.StatusOK, `{"updated":3,"code":200,"error":false}`)(w, r)
	}))

	updated, err := Unwrap[int](db.Collection("users").UpdateMatch(context.Background(),
		Document{"active": false}, Document{"active": true},
		UpdateMatchOptions{Limit: intPtr(10), KeepNull: boolPtr(false)}))
	require.NoError(t, err)
	require.Equal(t, 3, updated)

	require.Equal(t, "users", captured["collection"])
	require.Equal(t, map[string]any{"active": false}, captured["example"])
	require.Equal(t, map[string]any{"active": true}, captured["newValue"])
	require.Equal(t, float64(10), captured["limit"])
	require.Equal(t, false, captured["keepNull"])
	require.Equal(t, true, captured["mergeObjects"])
}

func TestCollectionReplace(t *testing.T) {
	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "1", r.URL.Query().Get("ignoreRevs"))
		jsonHandler(http.StatusAccepted, `{"_id":"users/john","_rev":"_new"}`)(w, r)
	}))

	meta, err := Unwrap[map[string]any](db.Collection("users").Replace(context.Background(),
		Document{"_key": "john", "age": 32}, ReplaceOptions{CheckRev: boolPtr(false)}))
	require.NoError(t, err)
	require.Equal(t, "_new", meta["_rev"])
}

func TestCollectionDelete(t *testing.T) {
	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)

		if r.URL.Path == "/_db/test/_api/document/users/john" {
			jsonHandler(http.StatusAccepted, `{"_id":"users/john","_key":"john","_rev":"_abc"}`)(w, r)
			return
		}

		jsonHandler(http.StatusNotFound,
			`{"error":true,"errorNum":1202,"errorMessage":"document not found","code":404}`)(w, r)
	}))

	col := db.Collection("users")

	meta, err := Unwrap[map[string]any](col.Delete(context.Background(), "john", DeleteOptions{}))
	require.NoError(t, err)
	require.Equal(t, "users/john", meta["_id"])

	gone, err := col.Delete(context.Background(), "ghost", DeleteOptions{IgnoreMissing: true})
	require.NoError(t, err)
	require.Equal(t, false, gone)

	_, err = col.Delete(context.Background(), "ghost", DeleteOptions{})
	require.True(t, IsDocumentMissing(err))
}

func TestCollectionCount(t *testing.T) {
	db := newTestDatabase(t, jsonHandler(http.StatusOK, `{"count":42,"code":200,"error":false}`))

	count, err := Unwrap[int](db.Collection("users").Count(context.Background()))
	require.NoError(t, err)
	require.Equal(t, 42, count)
}

func TestCollectionAll(t *testing.T) {
	var captured Document

	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_db/test/_api/simple/all", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		jsonHandler(http.StatusCreated,
			`{"hasMore":false,"result":[{"_key":"a"},{"_key":"b"}],"code":201,"error":false}`)(w, r)
	}))

	result, err := db.Collection("users").All(context.Background(), intPtr(5), intPtr(10))
	require.NoError(t, err)

	cursor, ok := result.(*Cursor)
	require.True(t, ok)
	require.Len(t, cursor.Batch(), 2)

	require.Equal(t, "users", captured["collection"])
	require.Equal(t, float64(5), captured["skip"])
	require.Equal(t, float64(10), captured["limit"])
}

func TestCollectionFind(t *testing.T) {
	var captured Document

	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_db/test/_api/simple/by-example", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		jsonHandler(http.StatusCreated,
			`{"hasMore":false,"result":[{"_key":"a","active":true}],"code":201,"error":false}`)(w, r)
	}))

	result, err := db.Collection("users").Find(context.Background(),
		Document{"active": true}, 0, 0)
	require.NoError(t, err)

	cursor, ok := result.(*Cursor)
	require.True(t, ok)
	require.Len(t, cursor.Batch(), 1)

	require.Equal(t, "users", captured["collection"])
	require.Equal(t, map[string]any{"active": true}, captured["example"])
	require.Equal(t, float64(0), captured["skip"])
	// A limit below 1 falls back to the server default.
	require.Equal(t, float64(100), captured["limit"])
}

func TestCollectionKeysAndIDs(t *testing.T) {
	var captured Document

	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_db/test/_api/simple/all-keys", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		if captured["type"] == "id" {
			jsonHandler(http.StatusCreated,
				`{"hasMore":false,"result":["users/a","users/b"],"code":201,"error":false}`)(w, r)
			return
		}

		jsonHandler(http.StatusCreated,
			`{"hasMore":false,"result":["a","b"],"code":201,"error":false}`)(w, r)
	}))

	col := db.Collection("users")

	result, err := col.Keys(context.Background())
	require.NoError(t, err)
	require.Equal(t, "key", captured["type"])
	require.Equal(t, "users", captured["collection"])

	cursor, ok := result.(*Cursor)
	require.True(t, ok)

	key, err := cursor.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a", key)

	result, err = col.IDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, "id", captured["type"])

	cursor = result.(*Cursor)
	for i := 0; i < 2; i++ {
		_, err = cursor.Next(context.Background())
		require.NoError(t, err)
	}

	_, err = cursor.Next(context.Background())
	require.True(t, IsNoMoreDocuments(err))
}

func TestCollectionExport(t *testing.T) {
	var captured Document

	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_db/test/_api/export", r.URL.Path)
		require.Equal(t, "users", r.URL.Query().Get("collection"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		jsonHandler(http.StatusCreated,
			`{"hasMore":false,"result":[{"_key":"a"}],"count":1,"code":201,"error":false}`)(w, r)
	}))

	result, err := db.Collection("users").Export(context.Background(), ExportOptions{
		Flush: true,
		Limit: intPtr(1000),
	})
	require.NoError(t, err)

	cursor, ok := result.(*Cursor)
	require.True(t, ok)
	require.Len(t, cursor.Batch(), 1)

	require.Equal(t, true, captured["flush"])
	require.Equal(t, float64(1000), captured["limit"])
}

func TestCollectionRename(t *testing.T) {
	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_db/test/_api/collection/users/rename", r.URL.Path)
		jsonHandler(http.StatusOK, `{"name":"people","code":200,"error":false}`)(w, r)
	}))

	col := db.Collection("users")

	renamed, err := Unwrap[bool](col.Rename(context.Background(), "people"))
	require.NoError(t, err)
	require.True(t, renamed)
	require.Equal(t, "people", col.Name())
}

func TestCollectionIndexes(t *testing.T) {
	var captured Document

	db := newTestDatabase(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_db/test/_api/index", r.URL.Path)
		require.Equal(t, "users", r.URL.Query().Get("collection"))

		switch r.Method {
		case http.MethodGet:
			jsonHandler(http.StatusOK,
				`{"indexes":[{"id":"users/0","type":"primary"}],"code":200,"error":false}`)(w, r)
		case http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			jsonHandler(http.StatusCreated,
				`{"id":"users/9001","type":"hash","code":201,"error":false}`)(w, r)
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))

	col := db.Collection("users")

	indexes, err := Unwrap[[]any](col.Indexes(context.Background()))
	require.NoError(t, err)
	require.Len(t, indexes, 1)

	_, err = col.AddHashIndex(context.Background(), IndexOptions{
		Fields: []string{"email"},
		Unique: boolPtr(true),
	})
	require.NoError(t, err)

	require.Equal(t, "hash", captured["type"])
	require.Equal(t, []any{"email"}, captured["fields"])
	require.Equal(t, true, captured["unique"])
}

func TestCollectionDeleteIndex(t *testing.T) {
	db := newTestDatabase(t, jsonHandler(http.StatusNotFound,
		`{"error":true,"errorNum":1212,"errorMessage":"index not found","code":404}`))

	col := db.Collection("users")

	dropped, err := Unwrap[bool](col.DeleteIndex(context.Background(), "9001", true))
	require.NoError(t, err)
	require.False(t, dropped)

	_, err = col.DeleteIndex(context.Background(), "9001", false)
	require.Error(t, err)
}
