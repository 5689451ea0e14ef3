package model

// Names of the hidden state fields issued by the server on every response.
const (
	FieldLastFocus          = "__LASTFOCUS"
	FieldViewState          = "__VIEWSTATE"
	FieldViewStateGenerator = "__VIEWSTATEGENERATOR"
	FieldEventValidation    = "__EVENTVALIDATION"
)

// StateTokens is the snapshot of opaque hidden-state values taken from the
// most recent response of a session. A snapshot is always replaced as a
// whole, never merged with an earlier one. Absent fields are empty strings.
type StateTokens struct {
	LastFocus          string
	ViewState          string
	ViewStateGenerator string
	EventValidation    string
}

// TokenField is one (name, value) pair of a StateTokens snapshot.
type TokenField struct {
	Name  string
	Value string
}

// Fields returns the four hidden fields in the order they are submitted.
func (t StateTokens) Fields() []TokenField {
	return []TokenField{
		{Name: FieldLastFocus, Value: t.LastFocus},
		{Name: FieldViewState, Value: t.ViewState},
		{Name: FieldViewStateGenerator, Value: t.ViewStateGenerator},
		{Name: FieldEventValidation, Value: t.EventValidation},
	}
}

// IsZero reports whether no token was found at all. A zero snapshot usually
// means the server answered with an error page instead of the form.
func (t StateTokens) IsZero() bool {
	return t == StateTokens{}
}
