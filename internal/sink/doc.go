// Package sink writes batch outcomes as CSV rows in input order.
//
// Schema:
//
//	URL,Width,Height,Mode,Format
//	https://a/x.png,200,100,RGB,PNG
//	https://a/y.png,Error,Failed to fetch (HTTP 404),,
//
// Write handles a fully collected batch. OrderedWriter accepts outcomes in
// completion order, holds back anything that arrives ahead of its turn and
// writes each contiguous run immediately, so an interrupted batch leaves a
// well-formed file holding a prefix of the input.
package sink
