// Package pipeline runs the crawl of a region range.
//
// Regions are processed one after another. For each region the Orchestrator
// discovers the sub-regions in a dedicated session, then crawls every
// (region, sub-region) pair as an independent task. Tasks of one region run
// concurrently up to the configured worker count, each with its own Walker
// and therefore its own server-side session.
//
// A task never fails the run. Errors and panics are turned into zero-filled
// rows with status "failed" and written like any other row, so that the
// output always contains one row per pair. Only a sink failure or
// cancellation of the context stops Run early.
package pipeline
