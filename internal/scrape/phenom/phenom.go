// Package phenom extracts postings from Phenom People career boards
// (Mastercard, Citi and friends). These pages embed their search results as
// a phApp.ddo JSON blob inside a script tag; no headless browser needed.
package phenom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/types"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/util"
)

var ddoRe = regexp.MustCompile(`phApp\.ddo\s*=\s*(\{.*?\});`)

type Board struct {
	Name    string // source name, e.g. "mastercard"
	Company string // display name
	URL     string // board landing page
}

type Scraper struct {
	board   Board
	hc      *http.Client
	limiter *util.HostLimiter
}

func New(board Board, limiter *util.HostLimiter) *Scraper {
	return &Scraper{
		board:   board,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
	}
}

func (s *Scraper) Name() string { return s.board.Name }

func (s *Scraper) Produce(ctx context.Context, emit func(types.Raw) error) error {
	if err := s.limiter.WaitURL(ctx, s.board.URL); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.board.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	res, err := s.hc.Do(req)
	if err != nil {
		return fmt.Errorf("phenom get board: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return fmt.Errorf("phenom board status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return fmt.Errorf("phenom parse board html: %w", err)
	}

	jobs, err := extractJobs(doc)
	if err != nil {
		return err
	}

	for _, j := range jobs {
		raw := types.Raw{
			SourceIDHint: strings.TrimSpace(str(j["jobId"])),
			Title:        str(j["title"]),
			Company:      s.board.Company,
			Location:     firstNonEmpty(str(j["city"]), str(j["location"])),
			URL:          firstNonEmpty(str(j["applyUrl"]), str(j["jobUrl"])),
			DatePosted:   isoDate(str(j["dateCreated"])),
		}
		if sal := strings.TrimSpace(str(j["salary"])); sal != "" {
			raw.Salary = &sal
		}
		if err := emit(raw); err != nil {
			return err
		}
	}
	return nil
}

// extractJobs pulls the embedded phApp.ddo JSON out of the page scripts and
// walks the known result paths.
func extractJobs(doc *goquery.Document) ([]map[string]any, error) {
	var blob string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if m := ddoRe.FindStringSubmatch(sel.Text()); m != nil {
			blob = m[1]
			return false
		}
		return true
	})
	if blob == "" {
		// boards with no embedded search state yield zero results, which
		// the pipeline reports as a health warning, not an error
		return nil, nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		return nil, fmt.Errorf("phenom parse ddo json: %w", err)
	}

	for _, path := range [][]string{
		{"eagerLoadRefineSearch", "data", "jobs"},
		{"refineSearch", "data", "jobs"},
	} {
		if jobs := walk(data, path); jobs != nil {
			return jobs, nil
		}
	}
	return nil, nil
}

func walk(data map[string]any, path []string) []map[string]any {
	cur := any(data)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	list, ok := cur.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, it := range list {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// isoDate normalizes the assorted timestamp formats Phenom reports into an
// ISO-8601 date, or nil when unparseable.
func isoDate(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d := t.Format("2006-01-02")
			return &d
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			d := t.Format("2006-01-02")
			return &d
		}
	}
	return nil
}
