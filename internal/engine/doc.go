// Package engine is the queue-analytics core: it turns a sequence of
// per-frame person detections into per-zone wait times, queue-length time
// series, and summary statistics.
//
// A Session owns all per-analysis state (Ledger, Aggregator, Sampler) and
// processes frames strictly sequentially; independent sessions may run
// concurrently. Frame indices, not wall clocks, drive all timing, so the
// same frame sequence always produces the same result.
package engine
