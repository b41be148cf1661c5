package scraper

import (
	"context"
	"log/slog"
	"time"
)

// PopupSelectorSet is a read-only list of overlay dismiss triggers.
type PopupSelectorSet []string

// DismissPopups clicks every visible overlay trigger once and returns how many
// were clicked. Errors are ignored: a missing overlay is the normal case.
func DismissPopups(ctx context.Context, page Page, set PopupSelectorSet) int {
	clicked := 0
	for _, sel := range set {
		if ctx.Err() != nil {
			break
		}
		ok, err := page.ScriptClick(ctx, sel, ClickOptions{VisibleOnly: true})
		if err == nil && ok {
			clicked++
		}
	}
	return clicked
}

// Suppressor dismisses overlays on a page in the background until stopped.
type Suppressor struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartSuppressor runs DismissPopups on page every interval. The loop ends
// when ctx is done or Stop is called.
func StartSuppressor(ctx context.Context, page Page, set PopupSelectorSet, interval time.Duration, logger *slog.Logger) *Suppressor {
	loopCtx, cancel := context.WithCancel(ctx)
	s := &Suppressor{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if n := DismissPopups(loopCtx, page, set); n > 0 {
					logger.Debug("popups dismissed", "count", n)
				}
			}
		}
	}()

	return s
}

// Stop cancels the loop without waiting for an in-flight pass to finish.
func (s *Suppressor) Stop() {
	s.cancel()
}

// Done is closed once the loop has exited.
func (s *Suppressor) Done() <-chan struct{} {
	return s.done
}
