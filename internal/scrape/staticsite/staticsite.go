// Package staticsite is the generic adapter for career boards that render
// plain HTML: extraction is driven entirely by CSS selectors from config, so
// adding a site is a config change, not code.
package staticsite

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/CDMonsalveA/JobSearchTools/internal/config"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/types"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/util"
)

type Scraper struct {
	site    config.StaticSite
	hc      *http.Client
	limiter *util.HostLimiter
}

func New(site config.StaticSite, limiter *util.HostLimiter) *Scraper {
	return &Scraper{
		site:    site,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
	}
}

func (s *Scraper) Name() string { return s.site.Name }

func (s *Scraper) Produce(ctx context.Context, emit func(types.Raw) error) error {
	if err := s.limiter.WaitURL(ctx, s.site.URL); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.site.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	res, err := s.hc.Do(req)
	if err != nil {
		return fmt.Errorf("static get %s: %w", s.site.Name, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return fmt.Errorf("static %s status %d", s.site.Name, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return fmt.Errorf("static parse %s: %w", s.site.Name, err)
	}

	base, _ := url.Parse(s.site.URL)
	sel := s.site.Selectors

	var emitErr error
	doc.Find(sel.Item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		raw := types.Raw{
			Title:   util.CleanText(item.Find(sel.Title).First().Text()),
			Company: s.site.Company,
		}
		if sel.Location != "" {
			raw.Location = util.CleanText(item.Find(sel.Location).First().Text())
		}
		if sel.IDAttr != "" {
			raw.SourceIDHint, _ = item.Attr(sel.IDAttr)
		}
		if sel.DatePosted != "" {
			if d := util.CleanText(item.Find(sel.DatePosted).First().Text()); d != "" {
				raw.DatePosted = &d
			}
		}

		link := item
		if sel.Link != "" {
			link = item.Find(sel.Link).First()
		}
		if href, ok := link.Attr("href"); ok {
			raw.URL = resolve(base, href)
		}

		if emitErr = emit(raw); emitErr != nil {
			return false
		}
		return true
	})
	return emitErr
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}
