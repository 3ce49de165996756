// Package resolution holds the tagged outcome returned by every resolver:
// Resolved, Ambiguous or Unresolved, with the error kind from the services
// package attached to anything that is not a clean match.
package resolution
