// Package suite runs named verification suites against storage
// providers and produces per-provider pass/fail records.
//
// Three suites exist: conformance exercises the contract round trip,
// performance measures timed and concurrent transfers, and security
// covers signed URLs, absent-key behavior, and metadata integrity.
// Steps within a suite run sequentially and are isolated; a panicking
// or failing step is recorded and the suite moves on. State a step
// produces for a later one travels in an explicit state value, so
// concurrent suite runs against different providers cannot contaminate
// each other.
package suite
