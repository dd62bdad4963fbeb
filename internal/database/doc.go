// Package database provides the SQLite batch history store.
//
// Every finished batch is recorded with its summary (state, counts, elapsed
// time, output path) and the full ordered list of per-URL outcomes, so past
// runs can be listed, inspected and re-exported as CSV without refetching.
//
// The database uses WAL mode and initializes its schema on open.
package database
