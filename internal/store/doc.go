// Package store records batch runs in a SQLite database.
//
// Two tables hold the history:
//   - batches: one row per batch (engine, sources, repetitions, outcome)
//   - executions: one row per completed (query, repetition) pair, with its
//     item count and duration
//
// Batch IDs are UUIDv7, so ORDER BY id is start order. Executions are
// ordered by their per-batch seq, the order they completed in.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks instead of failing
//   - foreign_keys=ON: executions must reference a recorded batch
//
// A Recorder adapts the store to batch.Observer.
package store
