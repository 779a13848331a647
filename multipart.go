package arango

import (
	"fmt"
	"strconv"
	"strings"
)

// Batch commits ride on ArangoDB's multipart batch protocol: each part wraps
// one complete HTTP message, labeled with the job's correlation id in a
// Content-Id header. The response reuses the request boundary.

const batchPartContentType = "application/x-arango-batchpart"

type batchPartRequest struct {
	ContentID string
	Body      string
}

type batchPartResponse struct {
	ContentID  string
	StatusCode int
	StatusText string
	Body       string
}

func encodeBatchRequest(boundary string, parts []batchPartRequest) string {
	lines := make([]string, 0, len(parts)*4+1)

	for _, part := range parts {
		lines = append(lines,
			"--"+boundary,
			"Content-Type: "+batchPartContentType,
			"Content-Id: "+part.ContentID,
			"\r\n"+part.Body,
		)
	}

	lines = append(lines, "--"+boundary+"--")

	return strings.Join(lines, "\r\n")
}

func decodeBatchResponse(boundary, raw string) ([]batchPartResponse, error) {
	chunks := strings.Split(raw, "--"+boundary)
	if len(chunks) < 2 {
		return nil, fmt.Errorf("%w: boundary %q not found", ErrBadBatchResponse, boundary)
	}

	// Drop the preamble and the closing "--" fragment.
	chunks = chunks[1 : len(chunks)-1]

	parts := make([]batchPartResponse, 0, len(chunks))

	for i, chunk := range chunks {
		part, err := decodeBatchPart(chunk)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}

		parts = append(parts, part)
	}

	return parts, nil
}

func decodeBatchPart(chunk string) (batchPartResponse, error) {
	var part batchPartResponse

	trimmed := strings.TrimSpace(chunk)

	bodyIdx := strings.LastIndex(trimmed, "\r\n\r\n")
	if bodyIdx < 0 {
		return part, fmt.Errorf("%w: missing header separator", ErrBadBatchResponse)
	}

	part.Body = trimmed[bodyIdx+4:]

	for _, line := range strings.Split(trimmed[:bodyIdx], "\r\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(strings.ToLower(line), "content-id:"):
			part.ContentID = strings.TrimSpace(line[len("content-id:"):])
		case strings.HasPrefix(line, "HTTP/"):
			fields := strings.SplitN(line, " ", 3)
			if len(fields) < 2 {
				return part, fmt.Errorf("%w: malformed status line %q", ErrBadBatchResponse, line)
			}

			code, err := strconv.Atoi(fields[1])
			if err != nil {
				return part, fmt.Errorf("%w: malformed status code %q", ErrBadBatchResponse, fields[1])
			}

			part.StatusCode = code

			if len(fields) == 3 {
				part.StatusText = fields[2]
			}
		}
	}

	if part.ContentID == "" {
		return part, fmt.Errorf("%w: part missing Content-Id", ErrBadBatchResponse)
	}

	if part.StatusCode == 0 {
		return part, fmt.Errorf("%w: part missing status line", ErrBadBatchResponse)
	}

	return part, nil
}
