// Package testsupport holds shared fixtures for package tests: temp configs,
// CSV fixtures, and an in-memory catalog.
package testsupport
