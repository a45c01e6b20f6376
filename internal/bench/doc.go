// Package bench measures storage provider throughput: timed single
// transfers, a large-object round trip, and a concurrent upload
// fan-out with a success ratio.
//
// Timing brackets only the operation under measurement; payload
// construction and cleanup sit outside the clock. Every measurement
// deletes the object it created, and only cleanup errors are
// swallowed, so repeated runs do not accumulate storage.
package bench
