// Package internal contains the implementation packages for mimic.
//
// The packages are organized by functional domain:
//
//   - element: the HTML element tree, its renderer, queries and HTML import
//   - document: loading trees from YAML documents or HTML files
//   - config: viper-backed configuration with validation
//   - errors: structured errors with type, code and context
//   - logging: slog-based structured logging
//   - watcher: file system monitoring with debouncing
//   - websocket: the live-reload hub
//   - preview: the HTTP preview server
//   - version: build information
//
// The element package depends only on errors and logging, which it uses to
// report swallowed file write failures. The document loader builds on
// element and errors, and preview ties the loader, watcher and websocket
// hub together behind an http.Handler.
package internal
