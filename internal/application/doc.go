// Package application provides dependency wiring for the serve command. It
// creates the run store, metrics collector, packing service, handlers,
// routers and HTTP server, keeping the main package focused on CLI parsing
// and orchestration.
package application
