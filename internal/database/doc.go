// Package database provides the SQLite run store of fircount.
//
// The RunDB stores:
//   - one count row per (region, sub-region) pair, upserted as tasks finish
//   - one record per crawl run with its parameters and final statistics
//
// Rows carry their status, so a resumed run can skip the pairs that were
// already crawled to completion and retry failed or partial ones. The
// report command reads the stored rows back to build a summary.
//
// The database is a single file written through modernc.org/sqlite, which
// needs no cgo.
package database
