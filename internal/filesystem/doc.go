/*
Package filesystem opens the URL list and creates the CSV report with retry
logic for transient network filesystem errors.

Input lists and reports often live on NFS or SMB mounts. A stale file handle
(ESTALE) or an interrupted system call (EINTR) on open is retried with
exponential backoff; every other error is returned on the first attempt.

	file, err := filesystem.CreateWithRetry("/mnt/reports/image_details.csv", filesystem.DefaultRetryConfig())

Retries, stale handle errors and operation latency are exported through the
pixelpeek_filesystem_* Prometheus metrics.
*/
package filesystem
