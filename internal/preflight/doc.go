// Package preflight provides readiness checks for the catalogs and
// filesystem paths pitchdna depends on.
//
// The CLI "pitchdna config check" command runs RunAll and prints one line per
// check; it exits non-zero when any check fails.
package preflight
