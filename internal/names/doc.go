// Package names turns free-text player names into the comparable form used by
// every resolver: trimmed, ASCII-folded, lower-cased, with "Last, First"
// rewritten as "First Last".
package names
