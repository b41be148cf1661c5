package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cristian-franco-ml/Hotel-v2/config"
)

type fakePage struct {
	mu      sync.Mutex
	url     string
	dom     func(url string) map[string][]string
	errs    map[string]error
	next    *fakePage
	onVisit func(url string)

	visited []string
	clicks  []string
	filled  string
	entered bool
	closed  bool
	browser *fakeBrowser
}

func staticDOM(m map[string][]string) func(string) map[string][]string {
	return func(string) map[string][]string { return m }
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	if p.onVisit != nil {
		p.onVisit(url)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.visited = append(p.visited, url)
	return ctx.Err()
}

func (p *fakePage) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) nodes(sel string) []string {
	if p.dom == nil {
		return nil
	}
	return p.dom(p.url)[sel]
}

func (p *fakePage) OuterHTML(ctx context.Context, selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.errs[selector]; err != nil {
		return nil, err
	}
	return append([]string(nil), p.nodes(selector)...), nil
}

func (p *fakePage) Fill(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.nodes(selector)) == 0 {
		return fmt.Errorf("no node for %s", selector)
	}
	p.filled = text
	return nil
}

func (p *fakePage) PressEnter(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entered = true
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.nodes(selector)) == 0 {
		return fmt.Errorf("no node for %s", selector)
	}
	p.clicks = append(p.clicks, selector)
	return nil
}

func (p *fakePage) ScriptClick(ctx context.Context, selector string, opts ClickOptions) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.nodes(selector)) <= opts.Index {
		return false, nil
	}
	p.clicks = append(p.clicks, selector)
	return true, nil
}

func (p *fakePage) WaitIdle(ctx context.Context, timeout time.Duration) bool {
	return true
}

func (p *fakePage) FollowLink(ctx context.Context, selector string, wait time.Duration) (Page, error) {
	if err := p.Click(ctx, selector); err != nil {
		return nil, err
	}
	if p.next != nil {
		return p.next, nil
	}
	return p, nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	already := p.closed
	p.closed = true
	p.mu.Unlock()
	if p.browser != nil && !already {
		p.browser.release()
	}
	return nil
}

func (p *fakePage) clicked(sel string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.clicks {
		if c == sel {
			return true
		}
	}
	return false
}

func (p *fakePage) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakeBrowser struct {
	mu      sync.Mutex
	factory func(n int) *fakePage
	pages   []*fakePage
	agents  []string
	open    int
	maxOpen int
}

func (b *fakeBrowser) NewPage(ctx context.Context, userAgent string) (Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.factory(len(b.pages))
	p.browser = b
	b.pages = append(b.pages, p)
	b.agents = append(b.agents, userAgent)
	b.open++
	b.maxOpen = max(b.maxOpen, b.open)
	return p, nil
}

func (b *fakeBrowser) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open--
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.SuggestionTimeout = 50 * time.Millisecond
	cfg.ResultsTimeout = 50 * time.Millisecond
	cfg.NewTabTimeout = 10 * time.Millisecond
	cfg.NetworkIdleTimeout = time.Millisecond
	cfg.SettleDelay = 0
	cfg.PopupInterval = 5 * time.Millisecond
	cfg.TableTimeout = 50 * time.Millisecond
	cfg.ClickTimeout = 50 * time.Millisecond
	cfg.UserAgents = []string{"ua-test"}
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const roomTable = `<table id="hprt-table"><thead><tr><th>Room type</th><th>Price</th></tr></thead><tbody>
<tr><th><span class="hprt-roomtype-icon-link">Deluxe King Room</span></th><td>2 guests</td><td class="hprt-table-cell-price">MXN&nbsp;1,250</td></tr>
<tr><th><span class="hprt-roomtype-icon-link">Deluxe King Room</span></th><td class="hprt-table-cell-price">MXN 1,250</td></tr>
<tr><th><span class="hprt-roomtype-icon-link">Junior Suite</span></th><td class="hprt-table-cell-price">MXN 2,100.50</td></tr>
<tr><td>Row without header</td><td>$99</td></tr>
<tr><th><i class="bicon"></i></th><td class="hprt-table-cell-price">$10</td></tr>
</tbody></table>`

const detailBody = `<body><div id="hp_hotel_name"><h2>Grand Hotel Tijuana</h2></div>
<span class="hp_address_subtitle">Blvd. Agua Caliente 4500, Tijuana</span>
<div data-testid="rating-stars"><span></span><span></span><span></span><span></span></div></body>`

func detailDOM() map[string][]string {
	return map[string][]string{
		"#hprt-table": {roomTable},
		"body":        {detailBody},
	}
}
