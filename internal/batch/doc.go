// Package batch runs one URL list through the fetch pipeline and owns the
// batch lifecycle.
//
// A batch moves Idle -> Running -> Completed or Failed. While running, each
// outcome produced by the scheduler is handed to the progress reporter and to
// the streaming CSV writer, which writes rows in input order. Per-URL
// failures are recorded as error rows and never fail the batch; only output
// I/O failures do, and those are reported as *FatalIOError.
//
// Observers registered on a Runner always receive a terminal 100% signal,
// either "Processing complete." or "Processing failed: <cause>". Finished
// batches are recorded in metrics and, when configured, in the history store.
package batch
