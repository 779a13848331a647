package arango

import (
	"encoding/json"
	"net/http"
)

// Response holds the outcome of a single HTTP call against the server. The
// raw body is parsed as JSON at construction; bodies that are not valid JSON
// retain the raw text verbatim.
type Response struct {
	Method     string
	URL        string
	Headers    http.Header
	StatusCode int
	StatusText string
	RawBody    []byte

	body         any
	errorCode    int
	errorMessage string
	success      bool
}

func newResponse(method, rawURL string, headers http.Header, statusCode int, statusText string, rawBody []byte) *Response {
	resp := &Response{
		Method:     method,
		URL:        rawURL,
		Headers:    headers,
		StatusCode: statusCode,
		StatusText: statusText,
		RawBody:    rawBody,
	}

	var parsed any
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		resp.body = string(rawBody)
	} else {
		resp.body = parsed
	}

	if obj, ok := resp.body.(map[string]any); ok {
		if num, ok := obj["errorNum"].(float64); ok {
			resp.errorCode = int(num)
		}

		if msg, ok := obj["errorMessage"].(string); ok {
			resp.errorMessage = msg
		}
	}

	httpOK := statusCode >= 200 && statusCode < 300
	resp.success = httpOK && resp.errorCode == 0

	return resp
}

// Body returns the parsed JSON body, or the raw text when the body was not
// valid JSON.
func (r *Response) Body() any {
	return r.body
}

// ErrorCode returns the ArangoDB error number embedded in the body, or zero.
func (r *Response) ErrorCode() int {
	return r.errorCode
}

// ErrorMessage returns the ArangoDB error message embedded in the body.
func (r *Response) ErrorMessage() string {
	return r.errorMessage
}

// IsSuccess reports whether the call succeeded at both the HTTP and the
// application level. The server can answer HTTP 200 with an embedded error
// object, so a 2xx status alone is not sufficient.
func (r *Response) IsSuccess() bool {
	return r.success
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.RawBody, v)
}

// bodyMap returns the body as a JSON object, or nil when it is not one.
func (r *Response) bodyMap() map[string]any {
	obj, _ := r.body.(map[string]any)
	return obj
}

// bodyField returns a single field of a JSON object body.
func (r *Response) bodyField(key string) any {
	if obj := r.bodyMap(); obj != nil {
		return obj[key]
	}

	return nil
}
