// Package log provides the slog setup used by fircount.
//
// ASP.NET pages carry hidden state fields (__VIEWSTATE, __EVENTVALIDATION)
// that are often tens of kilobytes of base64. Logging a postback payload as
// is buries every other attribute, so the Handler in this package shortens
// those values and masks session cookies before records reach the
// underlying text or JSON handler.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("postback",
//	    "__VIEWSTATE", tokens.ViewState,          // shortened
//	    "cookie", "ASP.NET_SessionId=abc",        // masked
//	)
package log
