package utils

import (
	"context"
	"math/rand/v2"

	"github.com/chromedp/chromedp"

	"github.com/cristian-franco-ml/Hotel-v2/config"
)

// NewAllocator creates a Chrome exec allocator context from the given Config.
// Tabs override the user agent individually; the allocator only sets the
// first one as the process default.
func NewAllocator(parent context.Context, cfg config.Config) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", cfg.Locale),
		chromedp.WindowSize(1440, 900),
	)
	if ua := PickUserAgent(cfg.UserAgents); ua != "" {
		opts = append(opts, chromedp.UserAgent(ua))
	}
	return chromedp.NewExecAllocator(parent, opts...)
}

// PickUserAgent returns a uniformly random entry, or "" for an empty list.
func PickUserAgent(agents []string) string {
	if len(agents) == 0 {
		return ""
	}
	return agents[rand.IntN(len(agents))]
}
