// Package client talks to the certificate portal's REST API.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see Client): auth endpoints,
//     the user's certificates, upload, and the admin review endpoints.
//  2. A concrete JSON-over-HTTP implementation (see HTTPClient) whose
//     transport attaches the current bearer token to every request.
//
// # Credentials
//
// The token is read from a TokenSource at request time, never cached, so a
// logout immediately stops authenticating later requests and a fresh login
// authenticates them without rebuilding the client.
//
// # Error Handling
//
// Failures are exposed as sentinel errors matched with errors.Is:
// ErrUnavailable, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrBadRequest,
// ErrServer and ErrMalformedResponse. Non-2xx responses come back as
// *APIError carrying the backend's message; use ErrorMessage to pick the
// text shown to the user.
package client
