// Package similarity scores pairs of normalized names on a [0,1] scale.
//
// Two scorers are available, both backed by go-fuzzywuzzy: Ratio compares
// the strings as given, and TokenSort sorts tokens first so that names
// differing only in word order compare as equal. Both are symmetric;
// thresholds elsewhere in the repository use the same [0,1] scale.
package similarity
