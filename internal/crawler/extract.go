package crawler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/fircount/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// postbackPattern matches __doPostBack('target','argument') in onclick and
// href attributes.
var postbackPattern = regexp.MustCompile(`__doPostBack\('([^']*)'\s*,\s*'([^']*)'\)`)

// ExtractTokens reads the four hidden state fields by input id.
// Missing inputs and inputs without a value attribute yield "".
func ExtractTokens(doc *goquery.Document) model.StateTokens {
	value := func(id string) string {
		return doc.Find(idSelector("input", id)).First().AttrOr("value", "")
	}
	return model.StateTokens{
		LastFocus:          value(model.FieldLastFocus),
		ViewState:          value(model.FieldViewState),
		ViewStateGenerator: value(model.FieldViewStateGenerator),
		EventValidation:    value(model.FieldEventValidation),
	}
}

// ExtractOptions returns the option values of the <select> with the given
// id, trimmed and de-duplicated in first-seen order. Empty values and the
// unset sentinel are skipped. A missing <select> yields nil.
func ExtractOptions(doc *goquery.Document, selectID, unset string) []model.SubRegion {
	sel := doc.Find(idSelector("select", selectID)).First()
	if sel.Length() == 0 {
		return nil
	}

	var subs []model.SubRegion
	seen := make(map[string]bool)
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		v := strings.TrimSpace(opt.AttrOr("value", ""))
		if v == "" || v == unset || seen[v] {
			return
		}
		seen[v] = true
		subs = append(subs, model.SubRegion(v))
	})
	return subs
}

// ExtractRows returns the body rows of the <table> with the given id. Each
// row is the normalized text of its direct <td> cells; rows without cells,
// such as header rows made of <th>, are skipped. A missing table yields nil.
// Rows placed directly under <table> are read too: the HTML parser wraps
// them in an implied <tbody>, as ASP.NET GridView markup relies on.
func ExtractRows(doc *goquery.Document, tableID string) [][]string {
	table := doc.Find(idSelector("table", tableID)).First()
	if table.Length() == 0 {
		return nil
	}
	body := table.ChildrenFiltered("tbody")
	if body.Length() == 0 {
		return nil
	}

	var rows [][]string
	body.ChildrenFiltered("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		for _, td := range cells.Nodes {
			row = append(row, cellText(td))
		}
		rows = append(rows, row)
	})
	return rows
}

// ExtractPostbacks scans <a> and <button> elements for __doPostBack calls,
// looking at onclick before href. The result is de-duplicated by
// (target, argument) in document order.
func ExtractPostbacks(doc *goquery.Document) []model.PostbackAction {
	var actions []model.PostbackAction
	seen := make(map[model.PostbackAction]bool)
	doc.Find("a, button").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"onclick", "href"} {
			source, ok := s.Attr(attr)
			if !ok || source == "" {
				continue
			}
			m := postbackPattern.FindStringSubmatch(source)
			if m == nil {
				continue
			}
			action := model.PostbackAction{Target: m[1], Argument: m[2]}
			if !seen[action] {
				seen[action] = true
				actions = append(actions, action)
			}
		}
	})
	return actions
}

// PageActions keeps the page-turn actions, de-duplicated by argument in
// the order given.
func PageActions(actions []model.PostbackAction, marker string) []model.PostbackAction {
	var pages []model.PostbackAction
	seen := make(map[string]bool)
	for _, a := range actions {
		if !a.IsPageTurn(marker) || seen[a.Argument] {
			continue
		}
		seen[a.Argument] = true
		pages = append(pages, a)
	}
	return pages
}

// idSelector builds an attribute selector, which unlike "#id" tolerates
// ids containing CSS metacharacters such as "$".
func idSelector(element, id string) string {
	return fmt.Sprintf("%s[id=%q]", element, id)
}

// cellText joins the text nodes under n with single spaces, applies NFKC
// so that full-width digits and separators become ASCII, and collapses
// whitespace.
func cellText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	text := norm.NFKC.String(strings.Join(parts, " "))
	return strings.Join(strings.Fields(text), " ")
}
