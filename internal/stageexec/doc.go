// Package stageexec runs one pipeline stage over a record file with
// checkpoint locking, resume, and output writing.
package stageexec
