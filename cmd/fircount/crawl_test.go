package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/fircount/internal/config"
	"github.com/nao1215/fircount/internal/report"
)

// fakePortal imitates the FIR listing: district 1 has two stations, the
// first with two result pages and the second always failing; district 2
// has none.
type fakePortal struct {
	mu       sync.Mutex
	form     config.Form
	sessions int
	searches map[string]int
}

func newFakePortal() *fakePortal {
	return &fakePortal{form: config.DefaultForm(), searches: make(map[string]int)}
}

func (p *fakePortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r.Method == http.MethodGet {
		p.sessions++
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: fmt.Sprint(p.sessions), Path: "/"})
		fmt.Fprint(w, portalForm("vs-get"))
		return
	}
	if _, err := r.Cookie("ASP.NET_SessionId"); err != nil {
		http.Error(w, "session expired", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	district := r.PostForm.Get(p.form.RegionField)
	station := r.PostForm.Get(p.form.SubRegionField)
	switch {
	case r.PostForm.Get(p.form.EventTarget) == p.form.RegionField:
		if district == "1" {
			fmt.Fprint(w, portalForm("vs-region", "11", "12"))
		} else {
			fmt.Fprint(w, portalForm("vs-region"))
		}
	case r.PostForm.Has(p.form.SubmitField):
		p.searches[station]++
		if station == "12" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, portalResults("vs-p1", []string{"01/01/2020", "15-01-2020", "3.2.2019"}, "Page$2"))
	case r.PostForm.Get(p.form.EventArgument) == "Page$2":
		if r.PostForm.Get("__VIEWSTATE") != "vs-p1" {
			http.Error(w, "invalid view state", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, portalResults("vs-p2", []string{"28/02/20"}, "Page$1"))
	default:
		http.Error(w, "unexpected postback", http.StatusBadRequest)
	}
}

func portalForm(viewState string, stations ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><form><input type="hidden" id="__VIEWSTATE" value="%s" />`, viewState)
	b.WriteString(`<select id="ctl00_ContentPlaceHolder1_ddlPoliceStation"><option value="0">Select</option>`)
	for _, s := range stations {
		fmt.Fprintf(&b, `<option value="%s">PS %s</option>`, s, s)
	}
	b.WriteString(`</select></form></body></html>`)
	return b.String()
}

func portalResults(viewState string, dates []string, pages ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><form><input type="hidden" id="__VIEWSTATE" value="%s" />`, viewState)
	b.WriteString(`<table id="example"><thead><tr><th>No</th><th>Date</th></tr></thead><tbody>`)
	for i, d := range dates {
		fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td></tr>`, i+1, d)
	}
	b.WriteString(`</tbody></table>`)
	for _, arg := range pages {
		fmt.Fprintf(&b, `<a href="javascript:__doPostBack('ctl00$ContentPlaceHolder1$gv','%s')">%s</a>`, arg, arg)
	}
	b.WriteString(`</form></body></html>`)
	return b.String()
}

// writeFastConfig writes a configuration file without pauses or backoff.
func writeFastConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "fast.yaml")
	content := `retry:
  maxAttempts: 2
  base: 1ms
jitter:
  min: 1ms
  max: 2ms
  start: 1ms
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestCrawlEndToEnd tests crawl, report and history against a fake portal.
func TestCrawlEndToEnd(t *testing.T) {
	t.Parallel()

	portal := newFakePortal()
	srv := httptest.NewServer(portal)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := writeFastConfig(t, dir)
	csvPath := filepath.Join(dir, "counts.csv")
	dbDir := filepath.Join(dir, "db")

	crawlArgs := []string{
		"crawl",
		"-c", cfgPath,
		"--url", srv.URL + "/FIRiew.aspx",
		"--first-region", "1", "--last-region", "2",
		"--start-year", "2019", "--end-year", "2020",
		"-o", csvPath,
		"--db-dir", dbDir,
		"-w", "2",
	}

	out, err := runRoot(t, crawlArgs...)
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}
	if !strings.Contains(out, "completed: 3 rows") {
		t.Errorf("unexpected crawl output: %q", out)
	}

	records := readCSV(t, csvPath)
	if len(records) != 4 {
		t.Fatalf("expected header and 3 rows, got %d records", len(records))
	}
	if width := len(records[0]); width != len(report.Header(testRange())) {
		t.Errorf("unexpected header width %d", width)
	}

	byPair := make(map[string][]string)
	for _, rec := range records[1:] {
		byPair[rec[0]+"/"+rec[1]] = rec
	}
	ok := byPair["1/11"]
	if ok == nil {
		t.Fatalf("missing row 1/11 in %v", records)
	}
	// 2019-02 is column 2+1, 2020-01 is column 2+12, 2020-02 is column 2+13.
	if ok[3] != "1" || ok[14] != "2" || ok[15] != "1" {
		t.Errorf("unexpected counts for 1/11: %v", ok)
	}
	for _, pair := range []string{"1/12", "2/"} {
		rec := byPair[pair]
		if rec == nil {
			t.Fatalf("missing row %s", pair)
		}
		for _, v := range rec[2:] {
			if v != "0" {
				t.Errorf("expected zero row for %s, got %v", pair, rec)
				break
			}
		}
	}

	out, err = runRoot(t, "report", "-c", cfgPath, "--db-dir", dbDir,
		"--start-year", "2019", "--end-year", "2020", "--format", "json")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	var summary report.JSONSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("invalid report JSON: %v\n%s", err, out)
	}
	if summary.Total != 4 || summary.Statuses.OK != 1 || summary.Statuses.Failed != 1 || summary.Statuses.Empty != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	// Resume retries only the failed station and keeps the stored row.
	out, err = runRoot(t, append(crawlArgs, "--resume")...)
	if err != nil {
		t.Fatalf("resumed crawl failed: %v", err)
	}
	if !strings.Contains(out, "skipped 1") {
		t.Errorf("expected one skipped station, got %q", out)
	}
	portal.mu.Lock()
	searches11 := portal.searches["11"]
	portal.mu.Unlock()
	if searches11 != 1 {
		t.Errorf("expected station 11 to be searched once, got %d", searches11)
	}
	if records := readCSV(t, csvPath); len(records) != 4 {
		t.Errorf("expected resumed CSV to keep 3 rows without duplicates, got %d records", len(records))
	}

	out, err = runRoot(t, "history", "-c", cfgPath, "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "Runs (2)") || !strings.Contains(out, "completed") {
		t.Errorf("unexpected history output: %q", out)
	}
}

// TestCrawlConfigErrors tests configuration failures.
func TestCrawlConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "reversed years", args: []string{"crawl", "--start-year", "2025", "--end-year", "2020", "--no-db"}, want: "year range"},
		{name: "zero workers", args: []string{"crawl", "-w", "0", "--no-db"}, want: "workers"},
		{name: "missing config", args: []string{"crawl", "-c", "/nonexistent/fircount.yaml"}, want: "not found"},
		{name: "missing database", args: []string{"report", "--db-dir", "/nonexistent/fircount", "--format", "json"}, want: "database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := runRoot(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

// TestWriteReport tests format selection.
func TestWriteReport(t *testing.T) {
	t.Parallel()

	summary := report.NewSummary(testRange(), nil, testTime)
	for _, format := range []string{formatText, formatMarkdown, formatJSON} {
		var buf bytes.Buffer
		if err := writeReport(&buf, format, summary); err != nil {
			t.Errorf("%s: unexpected error: %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("%s: expected output", format)
		}
	}
	if err := writeReport(&bytes.Buffer{}, "pdf", summary); err == nil {
		t.Error("expected error for unknown format")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read CSV: %v", err)
	}
	return records
}
