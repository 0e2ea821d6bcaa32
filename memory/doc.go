// Package memory provides the bounded, ordered conversation log owned by a
// single agent. The log is append-only except for FIFO eviction of the
// oldest entries once the configured capacity is exceeded.
package memory
