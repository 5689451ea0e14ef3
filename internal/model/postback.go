package model

import "strings"

// DefaultPageMarker is the substring that identifies page-turn arguments
// in ASP.NET GridView postbacks (e.g. "Page$2", "Page$Next").
const DefaultPageMarker = "Page$"

// PostbackAction is a single unit of server-side navigation: the values
// submitted as __EVENTTARGET and __EVENTARGUMENT.
type PostbackAction struct {
	Target   string
	Argument string
}

// IsPageTurn reports whether the action's argument carries the page marker.
// An empty marker never matches.
func (a PostbackAction) IsPageTurn(marker string) bool {
	return marker != "" && strings.Contains(a.Argument, marker)
}
