// Package services defines the error kinds and context helpers shared by the
// resolvers, catalog clients and the batch runner.
//
// Every failure that crosses a package boundary is wrapped with one of the
// sentinel kinds so the runner can tell "not found" from "transient failure"
// from "malformed input" and report each as a per-record status. Context
// helpers stamp run IDs, stage names and row indexes for structured logging.
package services
