// Package records holds the working CSV table a batch run reads and
// annotates. Output columns are appended on first write; absent values are
// empty cells.
package records
