// Package features holds the continuous pitch measurements used to break
// ties between otherwise identical catalog candidates.
package features
