package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestResolvePicksFirstValidCandidate(t *testing.T) {
	page := &fakePage{dom: staticDOM(map[string][]string{
		"table.wrong-kind": {`<table class="wrong-kind"><tr><td>Opening hours</td><td>9-5</td></tr></table>`},
		"table.room-table": {`<table class="room-table"><tr><th>Standard Room</th><td>$80</td></tr></table>`},
	})}
	chain := SelectorChain{"table.wrong-kind", "table.room-table"}

	m, ok := chain.Resolve(context.Background(), page, IsPricingTable)
	require.True(t, ok)
	require.Equal(t, "table.room-table", m.Selector)
	require.Equal(t, 0, m.Index)

	m, ok = chain.Resolve(context.Background(), page, nil)
	require.True(t, ok)
	require.Equal(t, "table.wrong-kind", m.Selector)
}

func TestResolveChecksEveryElementOfASelector(t *testing.T) {
	page := &fakePage{dom: staticDOM(map[string][]string{
		"table": {
			`<table><tr><td>Map legend</td></tr></table>`,
			`<table><tr><th>Queen bed</th></tr></table>`,
		},
	})}

	m, ok := SelectorChain{"table"}.Resolve(context.Background(), page, IsPricingTable)
	require.True(t, ok)
	require.Equal(t, 1, m.Index)
}

func TestResolveTreatsLookupErrorsAsMisses(t *testing.T) {
	page := &fakePage{
		dom:  staticDOM(map[string][]string{"li.ok": {"<li>ok</li>"}}),
		errs: map[string]error{"li[broken": errors.New("SyntaxError")},
	}

	m, ok := SelectorChain{"li[broken", "li.missing", "li.ok"}.Resolve(context.Background(), page, nil)
	require.True(t, ok)
	require.Equal(t, "li.ok", m.Selector)
}

func TestAwaitGivesUpAfterTimeout(t *testing.T) {
	page := &fakePage{dom: staticDOM(nil)}

	start := time.Now()
	_, ok := SelectorChain{"li"}.Await(context.Background(), page, nil, 30*time.Millisecond, 5*time.Millisecond)
	require.False(t, ok)
	require.Less(t, time.Since(start), time.Second)
}

func TestAwaitSeesLateElements(t *testing.T) {
	appeared := time.Now().Add(20 * time.Millisecond)
	page := &fakePage{dom: func(string) map[string][]string {
		if time.Now().Before(appeared) {
			return nil
		}
		return map[string][]string{"li": {"<li>Tijuana</li>"}}
	}}

	_, ok := SelectorChain{"li"}.Await(context.Background(), page, nil, time.Second, 5*time.Millisecond)
	require.True(t, ok)
}

func TestFirstTextHonoursMinimumLength(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<table><tr><th><span>Icon</span><b>Superior Double Room</b></th></tr></table>`))
	require.NoError(t, err)

	text, ok := SelectorChain{"th span", "th"}.FirstText(doc.Selection, minRoomTypeLen)
	require.True(t, ok)
	require.Equal(t, "IconSuperior Double Room", text)

	_, ok = SelectorChain{"th span"}.FirstText(doc.Selection, minRoomTypeLen)
	require.False(t, ok)
}
