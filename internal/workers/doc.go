/*
Package workers sizes concurrency pools in containerized environments.

Go sets GOMAXPROCS from the container CPU limit, while runtime.NumCPU still
reports the host's CPUs. Sizing from GOMAXPROCS keeps a pod limited to 2 CPUs
on a 64-core node from opening hundreds of concurrent fetches.

	// max_concurrent: 0 in the config selects automatic sizing
	limit := workers.Resolve(cfg.MaxConcurrent)

For a pod limited to 2 CPUs:
  - workers.ForFetch() returns 8
  - workers.ForIO(16) returns 4
  - workers.Count(1.0, 0) returns 2

All functions are safe for concurrent use.
*/
package workers
