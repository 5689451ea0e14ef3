package config

// Form holds the names and values that describe the ASP.NET WebForms page
// being driven. The defaults match FIRiew.aspx on scrb.bihar.gov.in; other
// deployments of the same page template only need a different form block
// in the configuration file.
type Form struct {
	// EventTarget and EventArgument are the postback control fields.
	EventTarget   string `yaml:"eventTarget,omitempty"`
	EventArgument string `yaml:"eventArgument,omitempty"`

	// RegionField is the name of the region <select>. A postback with this
	// name as event target reloads the sub-region list.
	RegionField string `yaml:"regionField,omitempty"`

	// SubRegionField is the name of the sub-region <select>.
	SubRegionField string `yaml:"subRegionField,omitempty"`

	// SubRegionSelectID is the id attribute of the sub-region <select>.
	SubRegionSelectID string `yaml:"subRegionSelectId,omitempty"`

	// UnsetSubRegion is the option value meaning "nothing selected".
	UnsetSubRegion string `yaml:"unsetSubRegion,omitempty"`

	// ModeField is the search-mode radio group.
	ModeField string `yaml:"modeField,omitempty"`

	// DiscoveryMode is submitted while loading the sub-region list.
	DiscoveryMode string `yaml:"discoveryMode,omitempty"`

	// SearchMode is submitted for the search and every page turn.
	SearchMode string `yaml:"searchMode,omitempty"`

	// SearchTextField is the free-text search box, always submitted empty.
	SearchTextField string `yaml:"searchTextField,omitempty"`

	// SubmitField and SubmitValue identify the search button. They are only
	// sent with the search submission.
	SubmitField string `yaml:"submitField,omitempty"`
	SubmitValue string `yaml:"submitValue,omitempty"`

	// ResultsTableID is the id attribute of the results <table>.
	ResultsTableID string `yaml:"resultsTableId,omitempty"`

	// PageMarker identifies page-turn postback arguments.
	PageMarker string `yaml:"pageMarker,omitempty"`

	// FirstPageArgument is the argument of the page shown right after the
	// search. It is treated as already visited.
	FirstPageArgument string `yaml:"firstPageArgument,omitempty"`
}

// Default form values for the FIR listing page.
const (
	DefaultEventTarget       = "__EVENTTARGET"
	DefaultEventArgument     = "__EVENTARGUMENT"
	DefaultRegionField       = "ctl00$ContentPlaceHolder1$ddlDistrict"
	DefaultSubRegionField    = "ctl00$ContentPlaceHolder1$ddlPoliceStation"
	DefaultSubRegionSelectID = "ctl00_ContentPlaceHolder1_ddlPoliceStation"
	DefaultUnsetSubRegion    = "0"
	DefaultModeField         = "ctl00$ContentPlaceHolder1$optionsRadios"
	DefaultDiscoveryMode     = "radioPetioner"
	DefaultSearchMode        = "radioFIR"
	DefaultSearchTextField   = "ctl00$ContentPlaceHolder1$txtSearchBy"
	DefaultSubmitField       = "ctl00$ContentPlaceHolder1$btnSearch"
	DefaultSubmitValue       = "Search"
	DefaultResultsTableID    = "example"
	DefaultPageMarker        = "Page$"
	DefaultFirstPageArgument = "Page$1"
)

// DefaultForm returns the form layout of the FIR listing page.
func DefaultForm() Form {
	return Form{
		EventTarget:       DefaultEventTarget,
		EventArgument:     DefaultEventArgument,
		RegionField:       DefaultRegionField,
		SubRegionField:    DefaultSubRegionField,
		SubRegionSelectID: DefaultSubRegionSelectID,
		UnsetSubRegion:    DefaultUnsetSubRegion,
		ModeField:         DefaultModeField,
		DiscoveryMode:     DefaultDiscoveryMode,
		SearchMode:        DefaultSearchMode,
		SearchTextField:   DefaultSearchTextField,
		SubmitField:       DefaultSubmitField,
		SubmitValue:       DefaultSubmitValue,
		ResultsTableID:    DefaultResultsTableID,
		PageMarker:        DefaultPageMarker,
		FirstPageArgument: DefaultFirstPageArgument,
	}
}

// Merge returns f with every non-empty field of override applied on top.
func (f Form) Merge(override Form) Form {
	result := f
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&result.EventTarget, override.EventTarget)
	set(&result.EventArgument, override.EventArgument)
	set(&result.RegionField, override.RegionField)
	set(&result.SubRegionField, override.SubRegionField)
	set(&result.SubRegionSelectID, override.SubRegionSelectID)
	set(&result.UnsetSubRegion, override.UnsetSubRegion)
	set(&result.ModeField, override.ModeField)
	set(&result.DiscoveryMode, override.DiscoveryMode)
	set(&result.SearchMode, override.SearchMode)
	set(&result.SearchTextField, override.SearchTextField)
	set(&result.SubmitField, override.SubmitField)
	set(&result.SubmitValue, override.SubmitValue)
	set(&result.ResultsTableID, override.ResultsTableID)
	set(&result.PageMarker, override.PageMarker)
	set(&result.FirstPageArgument, override.FirstPageArgument)
	return result
}

// Validate checks that every field name needed to build a postback is set.
// UnsetSubRegion and FirstPageArgument may legitimately be empty.
func (f Form) Validate() error {
	required := []string{
		f.EventTarget, f.EventArgument, f.RegionField, f.SubRegionField,
		f.SubRegionSelectID, f.ModeField, f.SearchTextField, f.SubmitField,
		f.ResultsTableID, f.PageMarker,
	}
	for _, v := range required {
		if v == "" {
			return ErrIncompleteForm
		}
	}
	return nil
}
