package scraper

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/cristian-franco-ml/Hotel-v2/models"
)

func TestMatchPriceText(t *testing.T) {
	cases := []struct {
		cell string
		want string
		ok   bool
	}{
		{cell: "$1,250.00", want: "$1,250.00", ok: true},
		{cell: "MXN 980", want: "MXN 980", ok: true},
		{cell: "1,100 MXN", want: "1,100 MXN", ok: true},
		{cell: "Price for 2 nights US$120 incl. taxes", want: "US$120", ok: true},
		{cell: "€ 85", want: "€ 85", ok: true},
		{cell: "EUR 99.90", want: "EUR 99.90", ok: true},
		{cell: "Only 2 rooms left", ok: false},
		{cell: "", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.cell, func(t *testing.T) {
			got, ok := matchPriceText([]string{tc.cell})
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMatchPriceTextIsPatternMajor(t *testing.T) {
	got, ok := matchPriceText([]string{"1,100 MXN", "$95"})
	require.True(t, ok)
	require.Equal(t, "$95", got)
}

func TestParseRooms(t *testing.T) {
	got := ParseRooms(roomTable)
	want := []models.RoomQuote{
		{RoomType: "Deluxe King Room", Price: "MXN 1,250"},
		{RoomType: "Junior Suite", Price: "MXN 2,100.50"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseRooms mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRoomsFallsBackToPlainRows(t *testing.T) {
	html := `<table class="roomstable"><tr><th>Family Suite</th><td>Sleeps 4</td><td>1,800 MXN</td></tr></table>`
	require.Equal(t, []models.RoomQuote{{RoomType: "Family Suite", Price: "1,800 MXN"}}, ParseRooms(html))
}

func TestParseRoomsEmptyTableIsNotNil(t *testing.T) {
	rooms := ParseRooms(`<table><tr><td>nothing</td></tr></table>`)
	require.NotNil(t, rooms)
	require.Empty(t, rooms)
}

func TestDedupIsIdempotent(t *testing.T) {
	rooms := []models.RoomQuote{
		{RoomType: "King Room", Price: "$100"},
		{RoomType: "King Room", Price: "$120"},
		{RoomType: "King Room", Price: "$100"},
		{RoomType: "Queen Room", Price: "$100"},
		{RoomType: "Queen Room", Price: "$100"},
	}

	once := Dedup(rooms)
	twice := Dedup(once)
	require.Len(t, once, 3)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second pass changed result (-once +twice):\n%s", diff)
	}
	require.NotNil(t, Dedup(nil))
}

func TestIsPricingTable(t *testing.T) {
	require.True(t, IsPricingTable(roomTable))
	require.True(t, IsPricingTable(`<table><tr><td>Habitación doble</td></tr></table>`))
	require.False(t, IsPricingTable(`<div class="room">Deluxe room</div>`))
	require.False(t, IsPricingTable(`<table><tr><td>Reviews</td></tr></table>`))
}

func TestRewriteDates(t *testing.T) {
	base := "https://www.booking.com/hotel/mx/grand-tijuana.html?aid=304142&checkin=2023-12-01&checkout=2023-12-02&group_adults=2"

	got, err := RewriteDates(base, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	require.Equal(t, "/hotel/mx/grand-tijuana.html", u.Path)
	q := u.Query()
	require.Equal(t, "2024-02-29", q.Get("checkin"))
	require.Equal(t, "2024-03-01", q.Get("checkout"))
	require.Equal(t, "304142", q.Get("aid"))
	require.Equal(t, "2", q.Get("group_adults"))
}

func TestExtractDayWithoutTableReturnsEmptyRooms(t *testing.T) {
	s := New(nil, testConfig(), testLogger())
	page := &fakePage{dom: staticDOM(map[string][]string{
		"table": {`<table><tr><td>Guest reviews</td></tr></table>`},
	})}
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	var day models.DayResult
	var err error
	require.NotPanics(t, func() {
		day, err = s.ExtractDay(context.Background(), page, "https://www.booking.com/hotel/mx/x.html", date)
	})

	require.Equal(t, "2024-01-05", day.Date)
	require.NotNil(t, day.Rooms)
	require.Empty(t, day.Rooms)

	var perDate *PerDateError
	require.True(t, errors.As(err, &perDate))
	require.ErrorIs(t, err, ErrTableMissing)
}

func TestExtractDayWaitsForLateTable(t *testing.T) {
	cfg := testConfig()
	cfg.TableTimeout = 2 * time.Second
	s := New(nil, cfg, testLogger())

	var first time.Time
	page := &fakePage{dom: func(string) map[string][]string {
		if first.IsZero() {
			first = time.Now()
		}
		if time.Since(first) < 100*time.Millisecond {
			return nil
		}
		return detailDOM()
	}}

	day, err := s.ExtractDay(context.Background(), page, "https://www.booking.com/hotel/mx/x.html",
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, day.Rooms, 2)
}

func TestExtractDayNavigatesToRewrittenDate(t *testing.T) {
	s := New(nil, testConfig(), testLogger())
	page := &fakePage{dom: staticDOM(detailDOM())}

	day, err := s.ExtractDay(context.Background(), page,
		"https://www.booking.com/hotel/mx/x.html?checkin=2024-01-01&checkout=2024-01-02",
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, day.Rooms, 2)

	require.Len(t, page.visited, 1)
	u, err := url.Parse(page.visited[0])
	require.NoError(t, err)
	require.Equal(t, "2024-01-05", u.Query().Get("checkin"))
	require.Equal(t, "2024-01-06", u.Query().Get("checkout"))
}
