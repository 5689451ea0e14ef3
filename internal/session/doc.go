// Package session provides the HTTP client of one crawl session.
//
// A Client talks to a single postback URL. It owns its transport and
// cookie jar, so the ASP.NET session cookie and pooled connections are
// never shared with another session. Every request carries a fixed
// User-Agent and Referer and is preceded by a short random pause.
//
// Transient failures (network errors and the statuses of the retry policy)
// are retried on a deterministic exponential schedule. Other statuses fail
// at once. Every failure that leaves the Client is a *TransportError.
package session
