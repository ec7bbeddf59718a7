// package server contains middleware & handlers for the reader backend API
package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging and CORS.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the reader backend.
//
// Each implementation owns one feature area (auth, novels, bookmarks,
// history, static assets) and registers itself under the path prefixes it
// returns from Routes, dispatching method and subpath internally.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handler(handler Handler)                          // Handler registers a feature Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}
