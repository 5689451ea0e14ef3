// Package model defines the data structures shared by the crawler, the
// aggregator, the orchestrator and the output sinks.
//
// This package contains the following main types:
//   - Region and SubRegion: the two-level hierarchy of crawl targets
//   - StateTokens: the hidden-field snapshot echoed on every postback
//   - PostbackAction: a (target, argument) navigation unit
//   - TimeBucket and BucketRange: the (year, month) aggregation keys
//   - CountRow: one output row per (Region, SubRegion) pair
//
// The types are kept in their own package so that crawler, pipeline,
// report and database can share them without import cycles.
package model
