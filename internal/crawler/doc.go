// Package crawler drives an ASP.NET WebForms page through postbacks and
// extracts what the rest of fircount needs from the rendered HTML.
//
// # Components
//
//   - ExtractTokens, ExtractOptions, ExtractRows, ExtractPostbacks: pure
//     functions from a parsed page to typed values. A missing element
//     yields an empty value, never an error.
//   - FormBuilder: assembles the url.Values of each postback from the
//     configured field names and the latest StateTokens snapshot.
//   - Walker: runs the navigation sequence of one session. It discovers
//     the sub-regions of a region, or selects a (region, sub-region) pair,
//     submits the search and follows page-turn postbacks until none is
//     left.
//
// # State tokens
//
// Every response carries hidden fields that the next request must echo.
// The Walker threads a model.StateTokens value from step to step and
// replaces it with the snapshot of each response it parses. Tokens are
// never taken from a page that has not been visited.
//
// # Usage
//
//	w := crawler.NewWalker(sessionClient, crawler.NewFormBuilder(cfg.Form))
//	subs, err := w.DiscoverSubRegions(ctx, region)
//	agg := aggregate.New(buckets)
//	res, err := w.Walk(ctx, region, subs[0], agg)
package crawler
