package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/certportal/internal/common"
	"github.com/dmitrijs2005/certportal/internal/logging"
	"github.com/google/uuid"
)

// TokenSource yields the currently persisted bearer token, or "" when the
// session is unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

func withAccessToken(req *http.Request, token string) {
	req.Header.Del(common.AuthorizationHeaderName)
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+token)
	}
}

// accessTokenTransport attaches the bearer token and a request id to every
// outgoing request. The token is looked up per request.
type accessTokenTransport struct {
	base   http.RoundTripper
	tokens TokenSource
	log    logging.Logger
}

func (t *accessTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	// RoundTrippers must not modify the caller's request.
	req = req.Clone(ctx)

	token, err := t.tokens.Token(ctx)
	if err != nil {
		// An unreadable store is treated as "no token"; the backend
		// answers 401 and the caller handles it like any other.
		t.log.Warn(ctx, "token lookup failed, sending request unauthenticated", "error", err)
		token = ""
	}
	withAccessToken(req, token)

	if req.Header.Get(common.RequestIDHeaderName) == "" {
		req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	}

	t.log.Debug(ctx, "api request",
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", req.Header.Get(common.RequestIDHeaderName),
		"authenticated", token != "",
	)

	return t.base.RoundTrip(req)
}
