package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/emulation"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

const stealthScript = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
window.chrome = window.chrome || { runtime: {} };
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en', 'es-MX'] });`

// ChromeBrowser opens tabs on one shared Chrome process.
type ChromeBrowser struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	logger     *slog.Logger
}

// NewChromeBrowser starts the browser behind allocCtx. Close releases it.
func NewChromeBrowser(allocCtx context.Context, logger *slog.Logger) (*ChromeBrowser, error) {
	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(chromeLogf(logger)))
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return &ChromeBrowser{browserCtx: browserCtx, cancel: cancel, logger: logger}, nil
}

func (b *ChromeBrowser) Close() {
	b.cancel()
}

// NewPage opens a tab with its own user agent and the stealth init script.
func (b *ChromeBrowser) NewPage(ctx context.Context, userAgent string) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx, chromedp.WithLogf(chromeLogf(b.logger)))
	p := newChromePage(tabCtx, cancel, userAgent)

	// The first Run allocates the target and binds it to the context it is
	// given, so it must see tabCtx itself.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	if err := p.run(ctx, p.setup()...); err != nil {
		cancel()
		return nil, fmt.Errorf("prepare tab: %w", err)
	}
	return p, nil
}

type chromePage struct {
	ctx       context.Context
	cancel    context.CancelFunc
	userAgent string
	idle      chan struct{}
}

func newChromePage(tabCtx context.Context, cancel context.CancelFunc, userAgent string) *chromePage {
	p := &chromePage{ctx: tabCtx, cancel: cancel, userAgent: userAgent, idle: make(chan struct{}, 1)}
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if e, ok := ev.(*cdppage.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			select {
			case p.idle <- struct{}{}:
			default:
			}
		}
	})
	return p
}

func (p *chromePage) setup() []chromedp.Action {
	actions := []chromedp.Action{
		cdppage.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := cdppage.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	}
	if p.userAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(p.userAgent))
	}
	return actions
}

// run executes actions on the tab, aborting when either the tab or ctx ends.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	p.drainIdle()
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *chromePage) Location(ctx context.Context) (string, error) {
	var loc string
	err := p.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (p *chromePage) OuterHTML(ctx context.Context, selector string) ([]string, error) {
	var out []string
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(el => el.outerHTML)`, selector)
	if err := p.run(ctx, chromedp.Evaluate(script, &out)); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *chromePage) Fill(ctx context.Context, selector, text string) error {
	return p.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

func (p *chromePage) PressEnter(ctx context.Context, selector string) error {
	return p.run(ctx,
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, kb.Enter, chromedp.ByQuery),
	)
}

func (p *chromePage) Click(ctx context.Context, selector string) error {
	return p.run(ctx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
	)
}

func (p *chromePage) ScriptClick(ctx context.Context, selector string, opts ClickOptions) (bool, error) {
	var clicked bool
	script := fmt.Sprintf(`
		(() => {
			const nodes = Array.from(document.querySelectorAll(%q));
			const el    = nodes[%d];
			if (!el) return false;
			if (%t && !(el.offsetWidth || el.offsetHeight || el.getClientRects().length)) return false;
			const childSel = %q;
			const child    = childSel ? el.querySelector(childSel) : null;
			(child || el).click();
			return true;
		})();
	`, selector, opts.Index, opts.VisibleOnly, opts.PreferChild)
	if err := p.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, err
	}
	return clicked, nil
}

func (p *chromePage) WaitIdle(ctx context.Context, timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-p.idle:
		return true
	case <-t.C:
		return false
	case <-ctx.Done():
		return false
	case <-p.ctx.Done():
		return false
	}
}

func (p *chromePage) FollowLink(ctx context.Context, selector string, wait time.Duration) (Page, error) {
	newTab := chromedp.WaitNewTarget(p.ctx, func(info *target.Info) bool {
		return info.Type == "page" && info.URL != ""
	})

	p.drainIdle()
	if err := p.Click(ctx, selector); err != nil {
		ok, scriptErr := p.ScriptClick(ctx, selector, ClickOptions{})
		if scriptErr != nil || !ok {
			return nil, fmt.Errorf("click %s: %w", selector, err)
		}
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case id := <-newTab:
		tabCtx, cancel := chromedp.NewContext(p.ctx, chromedp.WithTargetID(id))
		np := newChromePage(tabCtx, cancel, p.userAgent)
		if err := chromedp.Run(tabCtx); err != nil {
			cancel()
			return nil, fmt.Errorf("attach new tab: %w", err)
		}
		if err := np.run(ctx, np.setup()...); err != nil {
			cancel()
			return nil, fmt.Errorf("attach new tab: %w", err)
		}
		return np, nil
	case <-t.C:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}

func (p *chromePage) drainIdle() {
	select {
	case <-p.idle:
	default:
	}
}

func chromeLogf(logger *slog.Logger) func(string, ...any) {
	return func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...), "source", "chromedp")
	}
}
