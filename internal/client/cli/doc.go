// Package cli provides the interactive certificate portal client.
//
// It wires configuration, the local session database, the REST client, the
// session store and the certificate services into a REPL. Every page is
// addressed by its route path (/, /login, /dashboard, /upload, /admin) and
// every navigation goes through the route guard, so a page that needs a
// session is only rendered once the guard allows it.
//
// The session is restored in the background when the REPL starts; pages
// opened before that finishes wait for it.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
