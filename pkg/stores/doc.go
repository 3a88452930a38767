// Package stores persists run history. It provides SQLite-based storage
// with WAL mode, embedded migrations, and an adapter implementing the
// resolver's history interface.
package stores
