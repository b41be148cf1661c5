package scraper

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// SelectorChain is an ordered list of candidate selectors for one page target.
type SelectorChain []string

// Match is the element a chain resolved to.
type Match struct {
	Selector string
	Index    int
	HTML     string
}

// Validator accepts or rejects a candidate element by its outer HTML.
type Validator func(outerHTML string) bool

type querier interface {
	OuterHTML(ctx context.Context, selector string) ([]string, error)
}

// Resolve returns the first element, in chain order, that passes valid.
// A nil valid accepts any element. Lookup errors count as a miss.
func (c SelectorChain) Resolve(ctx context.Context, q querier, valid Validator) (Match, bool) {
	for _, sel := range c {
		if ctx.Err() != nil {
			return Match{}, false
		}
		nodes, err := q.OuterHTML(ctx, sel)
		if err != nil {
			continue
		}
		for i, html := range nodes {
			if valid == nil || valid(html) {
				return Match{Selector: sel, Index: i, HTML: html}, true
			}
		}
	}
	return Match{}, false
}

// Await polls Resolve until it matches or timeout elapses.
func (c SelectorChain) Await(ctx context.Context, q querier, valid Validator, timeout, poll time.Duration) (Match, bool) {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if m, ok := c.Resolve(ctx, q, valid); ok {
			return m, true
		}
		select {
		case <-ctx.Done():
			return Match{}, false
		case <-deadline.C:
			return Match{}, false
		case <-time.After(poll):
		}
	}
}

// Within returns the matches of the first selector that finds anything
// under s.
func (c SelectorChain) Within(s *goquery.Selection) *goquery.Selection {
	for _, sel := range c {
		if found := s.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return s.Slice(0, 0)
}

// FirstText returns the text of the first selector whose first match has at
// least minLen characters.
func (c SelectorChain) FirstText(s *goquery.Selection, minLen int) (string, bool) {
	for _, sel := range c {
		found := s.Find(sel)
		if found.Length() == 0 {
			continue
		}
		text := cleanText(found.First().Text())
		if utf8.RuneCountInString(text) >= minLen {
			return text, true
		}
	}
	return "", false
}

// cleanText collapses whitespace; unicode.IsSpace covers non-breaking spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
