// Package e2e holds end-to-end tests that run the server over real HTTP.
//
// Run with: go test -tags=e2e ./tests/e2e/...
package e2e
