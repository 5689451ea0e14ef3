package crawler

import (
	"net/url"

	"github.com/nao1215/fircount/internal/config"
	"github.com/nao1215/fircount/internal/model"
)

// FormBuilder assembles postback payloads. Every payload carries the event
// fields, the four state tokens, the region and sub-region selectors, the
// search mode and the empty search text.
type FormBuilder struct {
	form config.Form
}

// NewFormBuilder creates a FormBuilder for the given page layout.
func NewFormBuilder(form config.Form) *FormBuilder {
	return &FormBuilder{form: form}
}

// Form returns the page layout the builder was created with.
func (b *FormBuilder) Form() config.Form {
	return b.form
}

// RegionChange builds the postback fired by changing the region selector.
// The sub-region is reset to the unset sentinel so the server reloads its
// option list.
func (b *FormBuilder) RegionChange(tokens model.StateTokens, region model.Region, mode string) url.Values {
	return b.base(tokens, model.PostbackAction{Target: b.form.RegionField}, region, model.SubRegion(b.form.UnsetSubRegion), mode)
}

// Search builds the submission of the search button for a (region,
// sub-region) pair. It is the only payload that carries the submit field.
func (b *FormBuilder) Search(tokens model.StateTokens, region model.Region, sub model.SubRegion) url.Values {
	v := b.base(tokens, model.PostbackAction{}, region, sub, b.form.SearchMode)
	v.Set(b.form.SubmitField, b.form.SubmitValue)
	return v
}

// PageTurn builds the postback that displays another result page.
func (b *FormBuilder) PageTurn(tokens model.StateTokens, region model.Region, sub model.SubRegion, action model.PostbackAction) url.Values {
	return b.base(tokens, action, region, sub, b.form.SearchMode)
}

func (b *FormBuilder) base(tokens model.StateTokens, action model.PostbackAction, region model.Region, sub model.SubRegion, mode string) url.Values {
	v := url.Values{}
	v.Set(b.form.EventTarget, action.Target)
	v.Set(b.form.EventArgument, action.Argument)
	for _, f := range tokens.Fields() {
		v.Set(f.Name, f.Value)
	}
	v.Set(b.form.RegionField, region.String())
	v.Set(b.form.SubRegionField, string(sub))
	v.Set(b.form.ModeField, mode)
	v.Set(b.form.SearchTextField, "")
	return v
}
