// Package progress turns batch completion events into percentage and
// estimated-time-remaining snapshots and publishes them to any number of
// subscribers over an event bus.
//
// Observers never block or break the batch: each subscriber is invoked
// synchronously on the batch's consumer goroutine and a panicking subscriber
// is logged and skipped.
package progress
