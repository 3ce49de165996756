// Package events resolves a tabular pitch observation to a single catalog
// event.
//
// Resolution is a cascade of progressively looser filters. Candidates must
// match the query's pitch number (when known) and pitch type, then the
// pitcher name must score at or above the name threshold. A single survivor
// is the answer. Several survivors are separated by Euclidean distance over
// the speed, spin and movement features the query carries; if that is not
// possible the first survivor is returned flagged as ambiguous so callers can
// keep it distinguishable from a confident match.
package events
