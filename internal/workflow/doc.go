// Package workflow implements C9, the workflow runner: discovering papers
// from the arXiv search API into a persistent queue, and processing that
// queue through the full per-paper ingestion pipeline under a bounded
// worker pool with a separate, typically smaller, concurrency bound around
// oracle calls.
package workflow
