// Package integration contains integration tests for the brawl
// leaderboard service.
//
// These tests use testcontainers to spin up real dependencies (Redis)
// and exercise the store operations the caching and rate limiting layers
// depend on, in an environment that closely matches production.
package integration
