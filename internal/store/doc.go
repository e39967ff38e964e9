// Package store provides SQLite-backed local storage for QuickBill.
//
// The store holds three independent tables:
//   - documents: full invoice/estimate snapshots, indexed by status, type and client name
//   - contacts: address-book entries
//   - settings: a single record under a fixed key
//
// # Contract
//
// Every table supports put, get, get-all and delete. Put without an id
// inserts and returns the id minted by the store; put with an id overwrites
// the whole record under that id. Ids come from AUTOINCREMENT and are never
// reused, even after deletion.
//
// Every driver error is returned as an apperr STORAGE_FAILURE. Nothing is
// retried. There are no cross-table transactions: a caller that issues two
// puts gets two independent writes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One open connection: all access is serialized
package store
