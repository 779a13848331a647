package arango

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var errAuthFailed = errors.New("authentication failed")

// Authenticator applies credentials to an outgoing HTTP request.
type Authenticator interface {
	apply(ctx context.Context, conn *Connection, req *http.Request) error
}

// BasicAuth authenticates every request with HTTP basic auth.
type BasicAuth struct {
	Username string
	Password string
}

func (a *BasicAuth) apply(_ context.Context, _ *Connection, req *http.Request) error {
	req.SetBasicAuth(a.Username, a.Password)
	return nil
}

// JWTAuth obtains a JSON web token from the server's /_open/auth endpoint and
// sends it as a bearer token. The token is refreshed shortly before the
// expiry recorded in its claims.
type JWTAuth struct {
	Username string
	Password string

	token  string
	expiry time.Time
}

// refreshLeeway is how long before expiry a cached token is discarded.
const refreshLeeway = 30 * time.Second

func (a *JWTAuth) apply(ctx context.Context, conn *Connection, req *http.Request) error {
	if a.token == "" || (!a.expiry.IsZero() && time.Until(a.expiry) < refreshLeeway) {
		if err := a.refresh(ctx, conn); err != nil {
			return err
		}
	}

	req.Header.Set("Authorization", "bearer "+a.token)

	return nil
}

func (a *JWTAuth) refresh(ctx context.Context, conn *Connection) error {
	payload, err := json.Marshal(map[string]string{
		"username": a.Username,
		"password": a.Password,
	})
	if err != nil {
		return err
	}

	uri := conn.baseURL + "/_open/auth"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)

	httpResp, err := conn.client.Do(httpReq)
	if err != nil {
		return &TransportError{Method: http.MethodPost, URL: uri, Err: err}
	}

	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &TransportError{Method: http.MethodPost, URL: uri, Err: err}
	}

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d from /_open/auth", errAuthFailed, httpResp.StatusCode)
	}

	var result struct {
		JWT string `json:"jwt"`
	}

	if err := json.Unmarshal(rawBody, &result); err != nil || result.JWT == "" {
		return fmt.Errorf("%w: no token in /_open/auth response", errAuthFailed)
	}

	a.token = result.JWT
	a.expiry = tokenExpiry(result.JWT)

	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the token
// was just issued by the server we authenticate against.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}
	}

	return time.Unix(int64(exp), 0)
}
