// Package scheduler fans a URL list out to fetch workers under a fixed-size
// permit pool and collects the outcomes.
//
// Every URL gets its own goroutine as soon as Start is called; only permit
// acquisition inside the worker throttles network activity, so at most
// MaxConcurrent fetches are active at any instant. Outcomes are published on
// Run.Events in completion order and reassembled in input order by Run.Wait.
package scheduler
