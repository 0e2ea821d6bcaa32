// Package plan implements the shared plan registry used to track multi-step
// task progress: CRUD and status tracking over named, ordered step lists,
// plus the deterministic text rendering consumed by step locators.
//
// The store is a keyed in-memory map of plans. The map itself is guarded by
// a mutex, but mutation of any single plan id is assumed to come from one
// execution context at a time; concurrent writers to the same plan id are
// undefined.
package plan
