// Package httpserver owns the ledger's http.Server construction. Per-request
// deadlines live in the router's timeout middleware, so only the connection
// level timeouts are set here.
package httpserver

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
)

// New builds the server for the given listen address and router.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
}
