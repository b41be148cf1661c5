package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cristian-franco-ml/Hotel-v2/models"
)

// SearchURL builds the search page URL with placeholder dates.
func SearchURL(base string, q models.SearchQuery, today time.Time) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	v := u.Query()
	v.Set("lang", q.Locale)
	v.Set("selected_currency", q.Currency)
	v.Set("checkin", today.Format(models.DateLayout))
	v.Set("checkout", today.AddDate(0, 0, 1).Format(models.DateLayout))
	u.RawQuery = v.Encode()
	return u.String(), nil
}

// ResolveProperty drives a fresh tab from the search page to the property's
// detail page and confirms it carries a pricing table. Only two outcomes are
// fatal: ErrPropertyNotFound and ErrNoPricingData.
func (s *Scraper) ResolveProperty(ctx context.Context, q models.SearchQuery) (models.Property, error) {
	logger := s.logger.With("hotel", q.PropertyName)
	prop := models.Property{Name: q.PropertyName}

	searchURL, err := SearchURL(s.cfg.SearchURL, q, s.now())
	if err != nil {
		return prop, err
	}

	search, err := s.browser.NewPage(ctx, s.pickUserAgent())
	if err != nil {
		return prop, fmt.Errorf("open search tab: %w", err)
	}
	defer search.Close()

	logger.Info("loading search page", "url", searchURL)
	if err := search.Navigate(ctx, searchURL); err != nil {
		return prop, fmt.Errorf("load search page: %w", err)
	}

	s.submitSearch(ctx, search, q.PropertyName)

	search.WaitIdle(ctx, s.cfg.NetworkIdleTimeout)
	DismissPopups(ctx, search, PopupSelectors)

	link, ok := PropertyLinkChain.Await(ctx, search, nil, s.cfg.ResultsTimeout, 0)
	if !ok {
		if ctx.Err() != nil {
			return prop, ctx.Err()
		}
		return prop, fmt.Errorf("%w: %q", ErrPropertyNotFound, q.PropertyName)
	}

	detail, err := search.FollowLink(ctx, link.Selector, s.cfg.NewTabTimeout)
	if err != nil {
		return prop, fmt.Errorf("%w: open property link: %v", ErrPropertyNotFound, err)
	}
	if detail != search {
		defer detail.Close()
		logger.Debug("property opened in a new tab")
	}

	suppressor := StartSuppressor(ctx, detail, PopupSelectors, s.cfg.PopupInterval, logger)
	defer suppressor.Stop()

	detail.WaitIdle(ctx, s.cfg.NetworkIdleTimeout)

	if _, ok := PricingTableChain.Await(ctx, detail, IsPricingTable, s.cfg.TableTimeout, 0); !ok {
		if ctx.Err() != nil {
			return prop, ctx.Err()
		}
		return prop, fmt.Errorf("%w: %q", ErrNoPricingData, q.PropertyName)
	}

	prop.URL, err = detail.Location(ctx)
	if err != nil {
		return prop, fmt.Errorf("read property url: %w", err)
	}
	if bodies, err := detail.OuterHTML(ctx, "body"); err == nil && len(bodies) > 0 {
		fillPropertyInfo(&prop, bodies[0])
	}

	logger.Info("property resolved", "url", prop.URL, "name", prop.Name)
	return prop, nil
}

// submitSearch types the property name, picks the first suggestion (or
// falls back to Enter) and submits the form. Every failure here is absorbed;
// a search that went nowhere shows up as a missing property link.
func (s *Scraper) submitSearch(ctx context.Context, page Page, name string) {
	fillCtx, cancel := context.WithTimeout(ctx, s.cfg.ClickTimeout)
	err := page.Fill(fillCtx, SearchInputSelector, name)
	cancel()
	if err != nil {
		s.logger.Warn("search input not filled", "err", err)
		return
	}

	picked := false
	if m, ok := SuggestionChain.Await(ctx, page, nil, s.cfg.SuggestionTimeout, 0); ok {
		picked, err = page.ScriptClick(ctx, m.Selector, ClickOptions{Index: m.Index, PreferChild: SuggestionButton})
		if err != nil {
			picked = false
		}
	}
	if !picked {
		s.logger.Debug("no suggestion picked, submitting by enter")
		enterCtx, cancel := context.WithTimeout(ctx, s.cfg.ClickTimeout)
		if err := page.PressEnter(enterCtx, SearchInputSelector); err != nil {
			s.logger.Debug("enter on search input failed", "err", err)
		}
		cancel()
	}

	DismissPopups(ctx, page, PopupSelectors)

	clickCtx, cancel := context.WithTimeout(ctx, s.cfg.ClickTimeout)
	err = page.Click(clickCtx, SubmitButtonSelector)
	cancel()
	if err != nil {
		if ok, _ := page.ScriptClick(ctx, SubmitButtonSelector, ClickOptions{}); !ok {
			s.logger.Debug("submit button not clicked", "err", err)
		}
	}
}

func fillPropertyInfo(p *models.Property, body string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return
	}
	if name, ok := PropertyNameChain.FirstText(doc.Selection, 2); ok {
		p.Name = name
	}
	if addr, ok := AddressChain.FirstText(doc.Selection, 5); ok {
		p.Address = addr
	}
	p.Stars = min(StarsChain.Within(doc.Selection).Length(), 5)
}
