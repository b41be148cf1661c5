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

// RewriteDates points a property URL at the given check-in date and the
// following day as check-out.
func RewriteDates(rawURL string, checkin time.Time) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse property url: %w", err)
	}
	q := u.Query()
	q.Set("checkin", checkin.Format(models.DateLayout))
	q.Set("checkout", checkin.AddDate(0, 0, 1).Format(models.DateLayout))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// IsPricingTable reports whether a captured element is a table whose content
// mentions rooms.
func IsPricingTable(outerHTML string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outerHTML))
	if err != nil {
		return false
	}
	root := doc.Find("body").Children().First()
	if goquery.NodeName(root) != "table" {
		return false
	}
	inner, err := root.Html()
	if err != nil {
		return false
	}
	inner = strings.ToLower(inner)
	for _, kw := range roomKeywords {
		if strings.Contains(inner, kw) {
			return true
		}
	}
	return false
}

// ParseRooms extracts the (room type, price) rows of a pricing table.
func ParseRooms(tableHTML string) []models.RoomQuote {
	rooms := []models.RoomQuote{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		return rooms
	}

	RowChain.Within(doc.Selection).Each(func(_ int, row *goquery.Selection) {
		roomType, ok := RoomTypeChain.FirstText(row, minRoomTypeLen)
		if !ok {
			return
		}
		price, ok := MatchPrice(row)
		if !ok {
			return
		}
		rooms = append(rooms, models.RoomQuote{RoomType: roomType, Price: price})
	})

	return Dedup(rooms)
}

// MatchPrice applies the price patterns in order over the row's price cells
// and returns the first match verbatim.
func MatchPrice(row *goquery.Selection) (string, bool) {
	for _, sel := range PriceCellChain {
		cells := row.Find(sel)
		if cells.Length() == 0 {
			continue
		}
		texts := make([]string, 0, cells.Length())
		cells.Each(func(_ int, c *goquery.Selection) {
			texts = append(texts, cleanText(c.Text()))
		})
		if price, ok := matchPriceText(texts); ok {
			return price, true
		}
	}
	return "", false
}

func matchPriceText(texts []string) (string, bool) {
	for _, re := range pricePatterns {
		for _, t := range texts {
			if m := re.FindString(t); m != "" {
				return strings.TrimSpace(m), true
			}
		}
	}
	return "", false
}

// Dedup drops quotes whose (room type, price) pair was already seen, keeping
// first-seen order. The result is never nil.
func Dedup(rooms []models.RoomQuote) []models.RoomQuote {
	out := make([]models.RoomQuote, 0, len(rooms))
	seen := make(map[models.RoomQuote]struct{}, len(rooms))
	for _, r := range rooms {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// ExtractDay loads the property page for one check-in date and parses its
// pricing table. The returned DayResult is always usable; a non-nil error is a
// *PerDateError explaining an empty result.
func (s *Scraper) ExtractDay(ctx context.Context, page Page, baseURL string, date time.Time) (models.DayResult, error) {
	day := models.DayResult{Date: date.Format(models.DateLayout), Rooms: []models.RoomQuote{}}
	fail := func(err error) (models.DayResult, error) {
		return day, &PerDateError{Date: day.Date, Err: err}
	}

	target, err := RewriteDates(baseURL, date)
	if err != nil {
		return fail(err)
	}
	if err := page.Navigate(ctx, target); err != nil {
		return fail(fmt.Errorf("navigate: %w", err))
	}
	if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
		return fail(err)
	}
	page.WaitIdle(ctx, s.cfg.NetworkIdleTimeout)

	table, ok := PricingTableChain.Await(ctx, page, IsPricingTable, s.cfg.TableTimeout, 0)
	if !ok {
		return fail(ErrTableMissing)
	}

	day.Rooms = ParseRooms(table.HTML)
	return day, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
