// Package identity resolves free-text player names to canonical MLBAM
// identifiers.
//
// A Table is loaded once from a reference CSV and never written back. The
// Resolver tries the table's normalized-name index first and only falls back
// to fuzzy scoring across every entry when the exact lookup misses. Fuzzy
// matches below the configured threshold stay unresolved, with the best
// guess attached for review.
package identity
