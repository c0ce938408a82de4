// Package integration exercises the database cache backends end to end
// against real databases started with testcontainers.
//
// Run with: go test -tags=integration ./tests/integration/...
package integration
