package controller

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"admod-bot/internal/locales"
	"admod-bot/internal/store"
)

// searchFocusDelay matches the scroll-to-top animation: the search
// field receives focus once the scroll has settled.
const searchFocusDelay = 300 * time.Millisecond

// ListView abstracts the list page surface the controller drives:
// scrolling back to the top and focusing the search input.
type ListView interface {
	ScrollToTop()
	FocusSearch()
}

// AdsListController is the view-model of the list page: initial load,
// page changes, filter application and the "/" search shortcut.
type AdsListController struct {
	mu   sync.Mutex
	ads  *store.AdsStore
	view ListView
	clk  clock.Clock

	focusTimer *clock.Timer
	closed     bool
}

// NewAdsListController creates a controller bound to the shared ads
// store. view may be nil when the caller renders the list itself.
func NewAdsListController(ads *store.AdsStore, view ListView, clk clock.Clock) *AdsListController {
	if clk == nil {
		clk = clock.New()
	}
	return &AdsListController{
		ads:  ads,
		view: view,
		clk:  clk,
	}
}

// Init loads the first page with the current filters.
func (c *AdsListController) Init(ctx context.Context) error {
	return c.ads.FetchAds(ctx, 1)
}

// Close cancels the pending search-focus timer.
func (c *AdsListController) Close() {
	c.mu.Lock()
	c.closed = true
	if c.focusTimer != nil {
		c.focusTimer.Stop()
		c.focusTimer = nil
	}
	c.mu.Unlock()
}

// HandlePageChange fetches the requested page.
func (c *AdsListController) HandlePageChange(ctx context.Context, page int) error {
	return c.ads.FetchAds(ctx, page)
}

// ApplyFilters merges the update into the active filters and reloads
// from the first page.
func (c *AdsListController) ApplyFilters(ctx context.Context, update store.FilterUpdate) error {
	c.ads.SetFilters(update)
	return c.ads.FetchAds(ctx, 1)
}

// ResetFilters restores the default filters and reloads from the first
// page.
func (c *AdsListController) ResetFilters(ctx context.Context) error {
	c.ads.ResetFilters()
	return c.ads.FetchAds(ctx, 1)
}

// HandleKey dispatches a list-page keyboard shortcut. "/" scrolls to
// the top and focuses the search field once the scroll settles.
// Shortcuts are inactive while a text input has focus.
func (c *AdsListController) HandleKey(key string, inputFocused bool) bool {
	if inputFocused || key != "/" {
		return false
	}
	if c.view == nil {
		return true
	}
	c.view.ScrollToTop()

	c.mu.Lock()
	if c.focusTimer != nil {
		c.focusTimer.Stop()
	}
	c.focusTimer = c.clk.AfterFunc(searchFocusDelay, func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		c.view.FocusSearch()
	})
	c.mu.Unlock()
	return true
}

// EmptyStateMessage returns what the list shows when no ads are
// rendered: the load error if there is one, otherwise the localised
// not-found text.
func (c *AdsListController) EmptyStateMessage() string {
	if msg := c.ads.Error(); msg != "" {
		return msg
	}
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())
	return locales.GetMessage(localizer, "MsgAdsNotFound", nil, nil)
}

// ShowPagination reports whether the pager is rendered.
func (c *AdsListController) ShowPagination() bool {
	return c.ads.Pagination().TotalPages > 1
}
