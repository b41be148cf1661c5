package scraper

import (
	"context"
	"time"
)

// Page is the set of tab operations the navigation and extraction steps use.
// Implementations must be safe for concurrent use by the popup suppressor.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)

	// OuterHTML returns the outer HTML of every element matching selector,
	// or an empty slice when nothing matches.
	OuterHTML(ctx context.Context, selector string) ([]string, error)

	Fill(ctx context.Context, selector, text string) error
	PressEnter(ctx context.Context, selector string) error

	// Click performs a native, pointer-driven click on the first match.
	Click(ctx context.Context, selector string) error
	// ScriptClick invokes the DOM click() of a matching element. It reports
	// false when no element qualified.
	ScriptClick(ctx context.Context, selector string, opts ClickOptions) (bool, error)

	// WaitIdle waits for network idle, at most timeout. It reports whether
	// idle was observed.
	WaitIdle(ctx context.Context, timeout time.Duration) bool

	// FollowLink clicks the first link matching selector and returns the page
	// the destination loaded in: a new tab when one opens within wait, else
	// the receiver itself.
	FollowLink(ctx context.Context, selector string, wait time.Duration) (Page, error)

	Close() error
}

// ClickOptions tune ScriptClick.
type ClickOptions struct {
	Index       int
	PreferChild string // clicked instead of the element when present
	VisibleOnly bool
}

// Browser opens isolated tabs on a shared browser process.
type Browser interface {
	NewPage(ctx context.Context, userAgent string) (Page, error)
}
