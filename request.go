package arango

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Request describes a single outbound call against the ArangoDB REST API.
// Domain wrappers build one per operation and hand it to an Executor; after
// that the request must be treated as immutable.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Params  map[string]any
	Data    any

	// Command is the server-side Javascript form of the operation. It is set
	// only for operations that can run inside a transaction; the transaction
	// executor rejects requests without it.
	Command string

	// Read and Write hold the collection names this operation touches. They
	// are folded into the declared-collections envelope on transaction commit.
	Read  []string
	Write []string
}

// Query returns the encoded query string. Boolean values are normalized to
// "0"/"1" as required by the ArangoDB HTTP API.
func (r *Request) Query() string {
	if len(r.Params) == 0 {
		return ""
	}

	values := url.Values{}

	for key, val := range r.Params {
		values.Set(key, paramValue(val))
	}

	return values.Encode()
}

// Body returns the serialized request payload. Strings and raw bytes pass
// through unchanged; any other value is marshaled as JSON.
func (r *Request) Body() ([]byte, error) {
	switch data := r.Data.(type) {
	case nil:
		return nil, nil
	case []byte:
		return data, nil
	case string:
		return []byte(data), nil
	default:
		body, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}

		return body, nil
	}
}

// WireFormat renders the request as a literal HTTP/1.1 message. Batch commits
// embed this rendering as the body of each multipart part.
func (r *Request) WireFormat() (string, error) {
	path := r.Path
	if query := r.Query(); query != "" {
		path += "?" + query
	}

	lines := []string{fmt.Sprintf("%s %s HTTP/1.1", r.Method, path)}

	headers := make(map[string]string, len(r.Headers)+1)
	for key, val := range r.Headers {
		headers[key] = val
	}

	if _, ok := headers["Content-Type"]; !ok {
		headers["Content-Type"] = contentTypeJSON
	}

	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		lines = append(lines, key+": "+headers[key])
	}

	body, err := r.Body()
	if err != nil {
		return "", err
	}

	if body != nil {
		lines = append(lines, "\r\n"+string(body))
	}

	return strings.Join(lines, "\r\n"), nil
}

func paramValue(val any) string {
	switch v := val.(type) {
	case bool:
		if v {
			return "1"
		}

		return "0"
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// mustJSON marshals a value for embedding into a transaction command. The
// values involved are documents and option maps already known to marshal.
func mustJSON(val any) string {
	out, err := json.Marshal(val)
	if err != nil {
		return "null"
	}

	return string(out)
}
