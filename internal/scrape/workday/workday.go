// Package workday extracts postings from Workday-hosted career boards via
// the public CXS search endpoint that the board's own frontend uses.
package workday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/types"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/util"
)

const pageSize = 20

type Board struct {
	Name    string // source name, e.g. "scotiabank"
	Company string
	URL     string // full board URL, e.g. https://tenant.wd3.myworkdayjobs.com/site
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

type cxsRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type cxsResponse struct {
	Total       int          `json:"total"`
	JobPostings []cxsPosting `json:"jobPostings"`
}

type cxsPosting struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	LocationsText string   `json:"locationsText"`
	PostedOnDate  string   `json:"postedOnDate"`
	BulletFields  []string `json:"bulletFields"` // first entry is usually the req id
}

// Produce walks the board page by page, emitting as each page lands, so a
// failure partway leaves the earlier pages already processed.
func (s *Scraper) Produce(ctx context.Context, emit func(types.Raw) error) error {
	b, err := parseBoard(s.board.URL)
	if err != nil {
		return err
	}

	for offset := 0; ; offset += pageSize {
		page, err := s.fetchPage(ctx, b, offset)
		if err != nil {
			return err
		}
		for _, p := range page.JobPostings {
			if err := emit(s.toRaw(b, p)); err != nil {
				return err
			}
		}
		if len(page.JobPostings) < pageSize || offset+pageSize >= page.Total {
			return nil
		}
	}
}

func (s *Scraper) fetchPage(ctx context.Context, b board, offset int) (*cxsResponse, error) {
	endpoint := fmt.Sprintf("%s://%s/wday/cxs/%s/%s/jobs", b.scheme, b.host, b.tenant, b.site)
	if err := s.limiter.WaitURL(ctx, endpoint); err != nil {
		return nil, err
	}

	body, _ := json.Marshal(cxsRequest{
		AppliedFacets: map[string]any{},
		Limit:         pageSize,
		Offset:        offset,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("workday search: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("workday search status %d", res.StatusCode)
	}

	var out cxsResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("workday decode: %w", err)
	}
	return &out, nil
}

func (s *Scraper) toRaw(b board, p cxsPosting) types.Raw {
	raw := types.Raw{
		Title:    p.Title,
		Company:  s.board.Company,
		Location: p.LocationsText,
		URL:      fmt.Sprintf("%s://%s/%s%s", b.scheme, b.host, b.site, p.ExternalPath),
	}
	if len(p.BulletFields) > 0 {
		raw.SourceIDHint = strings.TrimSpace(p.BulletFields[0])
	}
	if d := parsePostedOn(p.PostedOnDate); d != "" {
		raw.DatePosted = &d
	}
	return raw
}

type board struct {
	scheme, host, tenant, site string
}

// parseBoard splits https://<tenant>.wdN.myworkdayjobs.com/<site>[/...] into
// the pieces the CXS endpoint needs.
func parseBoard(raw string) (board, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return board{}, fmt.Errorf("workday board url %q is invalid", raw)
	}
	tenant, _, ok := strings.Cut(u.Host, ".")
	if !ok || tenant == "" {
		return board{}, fmt.Errorf("workday board url %q has no tenant", raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	site := ""
	for _, p := range parts {
		// skip locale segments like en-US
		if len(p) == 5 && p[2] == '-' {
			continue
		}
		site = p
		break
	}
	if site == "" {
		return board{}, fmt.Errorf("workday board url %q has no site", raw)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return board{scheme: scheme, host: u.Host, tenant: tenant, site: site}, nil
}

func parsePostedOn(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02")
	}
	// "Posted Today" / "Posted 3 Days Ago" style labels get no date; the
	// pipeline stores nil rather than a guess
	return ""
}
