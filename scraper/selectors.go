package scraper

import "regexp"

// CSS selectors used across the scraper.
// Each chain is ordered from most to least specific.
const (
	SearchInputSelector  = `input[name='ss']`
	SubmitButtonSelector = `button[type='submit']`
	SuggestionButton     = `div[role='button']`
)

var (
	SuggestionChain = SelectorChain{
		`li[data-testid='autocomplete-result']`,
		`li[data-i='0']`,
		`ul[role='listbox'] li`,
		`li.sb-autocomplete__item`,
	}

	PropertyLinkChain = SelectorChain{
		`a[data-testid='property-card-desktop-single-image']`,
		`a[data-testid='title-link']`,
		`div[data-testid='property-card'] a[href*='/hotel/']`,
	}

	PricingTableChain = SelectorChain{
		`#hprt-table`,
		`.hprt-table`,
		`table[data-et-view]`,
		`table.hprt-table`,
		`.roomstable`,
		`table[class*='room']`,
		`table[class*='hprt']`,
		`table`,
	}

	// Row, room and price chains run against the captured table fragment.
	RowChain = SelectorChain{
		`#hprt-table tbody tr`,
		`#hprt-table tr`,
		`.hprt-table tr`,
		`table[data-et-view] tr`,
		`tr`,
	}

	RoomTypeChain = SelectorChain{
		`th span.hprt-roomtype-icon-link`,
		`th .hprt-roomtype-icon-link`,
		`th .hprt-roomtype`,
		`th span`,
		`th`,
	}

	PriceCellChain = SelectorChain{
		`td.hprt-table-cell-price`,
		`td .bui-price-display__value`,
		`td`,
	}

	PropertyNameChain = SelectorChain{
		`h2.pp-header__title`,
		`#hp_hotel_name h2`,
		`[data-testid='title']`,
		`h2`,
	}

	AddressChain = SelectorChain{
		`[data-testid='address']`,
		`span.hp_address_subtitle`,
		`.hp_address_subtitle`,
	}

	StarsChain = SelectorChain{
		`[data-testid='rating-stars'] span`,
		`[data-testid='rating-squares'] span`,
		`.hp__hotel_ratings__stars svg`,
	}
)

// PopupSelectors are known dismiss/accept triggers for interstitial overlays.
var PopupSelectors = PopupSelectorSet{
	`button[aria-label*='Dismiss']`,
	`.bui-modal__close`,
	`button[aria-label*='Cerrar']`,
	`button[aria-label*='Close']`,
	`button[aria-label*='Accept']`,
	`button[aria-label*='Aceptar']`,
	`button[aria-label*='Entendido']`,
	`button[aria-label*='Got it']`,
	`button[aria-label*='OK']`,
	`button[aria-label*='Allow']`,
	`button[aria-label*='Permitir']`,
	`button[data-testid='cookie-banner-close-button']`,
	`#onetrust-accept-btn-handler`,
	`.modal-mask .modal-close`,
	`.modal__close`,
	`.close-button`,
	`.c-modal__close`,
}

// roomKeywords mark a table as a room/price table.
var roomKeywords = []string{"room", "habitación", "habitacion", "suite", "deluxe", "king", "queen"}

// minRoomTypeLen rejects icon-only or empty header cells.
const minRoomTypeLen = 6

// pricePatterns are tried in order; the first pattern that matches any cell wins.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:MXN\s*\$?|US\$|\$|€|£)\s*\d(?:[\d,.]*\d)?`),
	regexp.MustCompile(`(?i)\d(?:[\d,.]*\d)?\s*(?:MXN|USD|EUR|\$)`),
	regexp.MustCompile(`(?i)(?:USD|EUR)\s*\d(?:[\d,.]*\d)?`),
}
