// Package audit implements the per-URL check pipeline: URL normalization,
// response and content classification, retry with exponential backoff, the
// check orchestrator state machine, and the bounded-concurrency scheduler.
package audit
