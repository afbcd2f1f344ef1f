// Package common contains constants and small helpers shared by the
// portal client packages.
package common

const (
	// TokenStorageKey is the well-known key under which the bearer token is
	// persisted in the local store.
	TokenStorageKey = "token"

	// TokenSavedAtKey records when the token was last written.
	TokenSavedAtKey = "token_saved_at"

	// AuthorizationHeaderName carries the bearer credential on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme prefixes the token in the authorization header.
	BearerScheme = "Bearer "

	// RequestIDHeaderName correlates client log lines with backend logs.
	RequestIDHeaderName = "X-Request-ID"
)
