// Package database provides connection management for mysql, postgres and
// sqlite through Bun, versioned migrations of registered models, YAML
// fixtures, query hooks, SQL error classification, and health checks.
package database
