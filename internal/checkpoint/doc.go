// Package checkpoint persists the working record table during a batch run.
//
// Two stores are provided: CSVStore writes the table atomically through a
// temp file and rename, and SQLiteStore keeps header and rows in a versioned
// SQLite database replaced in one transaction per flush. Both skip a flush
// whose content is identical to the last checkpoint. Lock guards a
// checkpoint path so two runs cannot write it at once.
package checkpoint
