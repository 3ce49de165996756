// Package rescache holds the per-run memo of catalog fetches. A Cache is
// built when a batch starts and handed to every stage; nothing is persisted.
package rescache
