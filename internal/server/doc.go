// HTTP surface for the novel reader backend.
//
// The package exposes the [Router] and [Handler] abstractions plus the
// feature handlers: session lifecycle, novel catalog and content, bookmarks,
// reading history, health, and SPA static serving. Handlers resolve the
// session cookie themselves and build an upstream client per request via
// [ClientFactory].
package server
