// Package main provides the entry point for the fircount CLI.
//
// fircount counts First Information Reports per month for every
// (district, police station) pair of an ASP.NET WebForms FIR listing, by
// replaying the page's postbacks in one server-side session per pair.
//
// Usage:
//
//	fircount crawl
//	fircount crawl --first-region 5 --last-region 7 --resume
//	fircount report --format markdown
//
// See --help for all available options.
package main

// main is the entry point for fircount.
func main() {
	Execute()
}
