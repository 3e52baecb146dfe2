// Package packer runs packing problems end to end. A Service validates the
// problem, builds the constraint model, drives the solver with a trace and a
// throttled progress logger attached, verifies the converged layout against
// the model, records metrics and keeps the report in a run store.
//
// CompareModes solves one problem under every separation mode, and the
// built-in reference problems give the command line and the HTTP surface
// something to run without a problem file.
package packer
