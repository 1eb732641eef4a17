// Package queue persists video jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema migrations, stats queries,
// heartbeat tracking, stuck-item recovery, and status transitions that mirror
// the public workflow enum. Queue items capture the topic, generated script,
// scene data, staging locations, and progress so stages can coordinate
// without additional state.
//
// The database is treated as transient storage for in-flight jobs rather than
// a long-term archive. Schema changes are applied through embedded migrations
// recorded in the schema_migrations table.
//
// Treat this package as the single source of truth for queue semantics; when
// you add new statuses or item fields, add a migration under migrations/.
package queue
