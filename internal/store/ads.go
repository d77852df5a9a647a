package store

import (
	"context"
	"log"
	"sync"

	"admod-bot/internal/locales"
	"admod-bot/internal/moderapi"
	"admod-bot/internal/models"
	"admod-bot/internal/observe"
)

// DefaultPageLimit is the client-side page size. The server echoes no
// limit, so this is the single point of change.
const DefaultPageLimit = 10

// Pagination describes the currently loaded window of the ads list.
// When TotalItems is zero, TotalPages is zero and the list is empty.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int
	Limit       int
}

// FilterUpdate is a partial update of the ads filter. Nil fields keep
// the current value; Clear* flags reset the optional numeric fields.
// Setting Status to a pointer at an empty slice removes the status
// constraint.
type FilterUpdate struct {
	Status          *[]models.AdStatus
	Search          *string
	CategoryID      *int
	ClearCategoryID bool
	MinPrice        *int64
	ClearMinPrice   bool
	MaxPrice        *int64
	ClearMaxPrice   bool
	SortBy          models.SortField
	SortOrder       models.SortOrder
}

// AdsStore holds the filtered, sorted, paginated view of ads under
// moderation plus the currently inspected ad. All mutations happen in
// store methods under the mutex and are announced to subscribers once
// per committed update.
//
// Fetches follow a latest-wins discipline: every list (or detail)
// fetch takes a sequence number, and a completing fetch commits only
// if it is still the newest of its family. Moderation actions are
// serialised per ad id.
type AdsStore struct {
	mu  sync.Mutex
	api moderapi.API
	hub observe.Hub

	ads        []models.Ad
	currentAd  *models.Ad
	loading    bool
	errMsg     string
	filters    models.AdsFilter
	pagination Pagination

	listSeq   uint64
	detailSeq uint64
	inflight  map[string]struct{}
}

// NewAdsStore creates a store bound to the given transport.
func NewAdsStore(api moderapi.API) *AdsStore {
	if api == nil {
		log.Fatal("AdsStore: API instance is nil")
	}
	return &AdsStore{
		api:     api,
		filters: models.DefaultFilter(),
		pagination: Pagination{
			CurrentPage: 1,
			Limit:       DefaultPageLimit,
		},
		inflight: make(map[string]struct{}),
	}
}

// Subscribe registers fn to run after every committed state change.
func (s *AdsStore) Subscribe(fn func()) observe.Unsubscribe {
	return s.hub.Subscribe(fn)
}

// FetchAds loads page `page` of the list using the current filters.
// On success it atomically replaces the list and pagination; on
// failure it sets a localised error and leaves the cached list
// untouched. A result superseded by a newer fetch is dropped and
// reported as ErrStale.
func (s *AdsStore) FetchAds(ctx context.Context, page int) error {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.loading = true
	s.errMsg = ""
	filter := s.filters.Clone()
	limit := s.pagination.Limit
	s.mu.Unlock()
	s.hub.Publish()

	resp, err := s.api.ListAds(ctx, page, limit, filter)

	s.mu.Lock()
	if seq != s.listSeq {
		// A newer fetch owns the loading flag and the commit.
		s.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		log.Printf("[AdsStore] Error fetching ads page %d: %v", page, err)
		s.errMsg = userMessage(err, "MsgAdsLoadError")
		s.loading = false
		s.mu.Unlock()
		s.hub.Publish()
		return err
	}

	ads := make([]models.Ad, len(resp.Ads))
	for i, ad := range resp.Ads {
		ads[i] = ad.Clone()
	}
	s.ads = ads
	s.pagination = Pagination{
		CurrentPage: page,
		TotalPages:  resp.Pagination.TotalPages,
		TotalItems:  resp.Pagination.TotalItems,
		Limit:       limit,
	}
	s.loading = false
	s.mu.Unlock()
	s.hub.Publish()
	return nil
}

// FetchAdByID loads a single ad and binds it as the current ad. The
// list is not touched.
func (s *AdsStore) FetchAdByID(ctx context.Context, id string) error {
	s.mu.Lock()
	s.detailSeq++
	seq := s.detailSeq
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
	s.hub.Publish()

	ad, err := s.api.GetAd(ctx, id)

	s.mu.Lock()
	if seq != s.detailSeq {
		s.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		log.Printf("[AdsStore] Error fetching ad %s: %v", id, err)
		s.errMsg = userMessage(err, "MsgAdLoadError")
		s.loading = false
		s.mu.Unlock()
		s.hub.Publish()
		return err
	}

	bound := ad.Clone()
	s.currentAd = &bound
	s.loading = false
	s.mu.Unlock()
	s.hub.Publish()
	return nil
}

// SetFilters merges a partial update into the filters. It does not
// trigger a fetch; the caller decides when to refetch (typically
// resetting to page 1).
func (s *AdsStore) SetFilters(update FilterUpdate) {
	s.mu.Lock()
	if update.Status != nil {
		s.filters.Status = append([]models.AdStatus(nil), (*update.Status)...)
	}
	if update.Search != nil {
		s.filters.Search = *update.Search
	}
	if update.ClearCategoryID {
		s.filters.CategoryID = nil
	} else if update.CategoryID != nil {
		v := *update.CategoryID
		s.filters.CategoryID = &v
	}
	if update.ClearMinPrice {
		s.filters.MinPrice = nil
	} else if update.MinPrice != nil {
		v := *update.MinPrice
		s.filters.MinPrice = &v
	}
	if update.ClearMaxPrice {
		s.filters.MaxPrice = nil
	} else if update.MaxPrice != nil {
		v := *update.MaxPrice
		s.filters.MaxPrice = &v
	}
	if update.SortBy != "" {
		s.filters.SortBy = update.SortBy
	}
	if update.SortOrder != "" {
		s.filters.SortOrder = update.SortOrder
	}
	s.mu.Unlock()
	s.hub.Publish()
}

// ResetFilters restores the documented defaults.
func (s *AdsStore) ResetFilters() {
	s.mu.Lock()
	s.filters = models.DefaultFilter()
	s.mu.Unlock()
	s.hub.Publish()
}

// ApproveAd posts an approve decision for the ad.
func (s *AdsStore) ApproveAd(ctx context.Context, id string) error {
	return s.moderate(ctx, id, models.StatusApproved, func(ctx context.Context) (*models.Ad, error) {
		return s.api.ApproveAd(ctx, id)
	})
}

// RejectAd posts a reject decision with the composed reason.
func (s *AdsStore) RejectAd(ctx context.Context, id, reason, customReason string) error {
	return s.moderate(ctx, id, models.StatusRejected, func(ctx context.Context) (*models.Ad, error) {
		return s.api.RejectAd(ctx, id, reason, customReason)
	})
}

// RequestChanges posts a request-changes decision; the server moves
// the ad back to draft.
func (s *AdsStore) RequestChanges(ctx context.Context, id, reason, customReason string) error {
	return s.moderate(ctx, id, models.StatusDraft, func(ctx context.Context) (*models.Ad, error) {
		return s.api.RequestChanges(ctx, id, reason, customReason)
	})
}

// moderate runs one moderation action with the terminal-status guard
// and per-ad mutual exclusion, then commits the server's new version
// of the ad. Failures propagate to the caller unchanged; the cached
// state is left intact.
func (s *AdsStore) moderate(ctx context.Context, id string, terminal models.AdStatus, call func(context.Context) (*models.Ad, error)) error {
	s.mu.Lock()
	if status, known := s.statusOfLocked(id); known && status == terminal {
		s.mu.Unlock()
		return &AlreadyInStatusError{ID: id, Status: status}
	}
	if _, busy := s.inflight[id]; busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.inflight[id] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, id)
		s.mu.Unlock()
	}()

	updated, err := call(ctx)
	if err != nil {
		log.Printf("[AdsStore] Moderation action failed for ad %s: %v", id, err)
		return err
	}

	s.mu.Lock()
	s.commitAdLocked(*updated)
	s.mu.Unlock()
	s.hub.Publish()
	return nil
}

// statusOfLocked looks the ad up in the cache, preferring the bound
// current ad over the list window.
func (s *AdsStore) statusOfLocked(id string) (models.AdStatus, bool) {
	if s.currentAd != nil && s.currentAd.ID == id {
		return s.currentAd.Status, true
	}
	for i := range s.ads {
		if s.ads[i].ID == id {
			return s.ads[i].Status, true
		}
	}
	return "", false
}

// commitAdLocked replaces cached copies of the ad with the server's
// new version. Entries are replaced, never mutated in place.
func (s *AdsStore) commitAdLocked(ad models.Ad) {
	for i := range s.ads {
		if s.ads[i].ID == ad.ID {
			s.ads[i] = ad.Clone()
			break
		}
	}
	if s.currentAd != nil && s.currentAd.ID == ad.ID {
		bound := ad.Clone()
		s.currentAd = &bound
	}
}

// BindCurrentAd binds the current ad to the cached list entry with the
// given id. Returns false when the id is not on the loaded page.
func (s *AdsStore) BindCurrentAd(id string) bool {
	s.mu.Lock()
	for i := range s.ads {
		if s.ads[i].ID == id {
			bound := s.ads[i].Clone()
			s.currentAd = &bound
			s.mu.Unlock()
			s.hub.Publish()
			return true
		}
	}
	s.mu.Unlock()
	return false
}

// LoadNextPage fetches the page after the current one. Returns true
// iff the resulting list is non-empty.
func (s *AdsStore) LoadNextPage(ctx context.Context) (bool, error) {
	s.mu.Lock()
	page := s.pagination.CurrentPage + 1
	s.mu.Unlock()
	if err := s.FetchAds(ctx, page); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ads) > 0, nil
}

// LoadPreviousPage fetches the page before the current one. Returns
// true iff the resulting list is non-empty. On the first page there is
// nothing to fetch and the call reports false without a request.
func (s *AdsStore) LoadPreviousPage(ctx context.Context) (bool, error) {
	s.mu.Lock()
	page := s.pagination.CurrentPage - 1
	s.mu.Unlock()
	if page < 1 {
		return false, nil
	}
	if err := s.FetchAds(ctx, page); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ads) > 0, nil
}

// GetCurrentAdIndex returns the index of the current ad within the
// loaded page, or -1.
func (s *AdsStore) GetCurrentAdIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentAdIndexLocked()
}

func (s *AdsStore) currentAdIndexLocked() int {
	if s.currentAd == nil {
		return -1
	}
	for i := range s.ads {
		if s.ads[i].ID == s.currentAd.ID {
			return i
		}
	}
	return -1
}

// GetPreviousAdID returns the id of the neighbour before the current
// ad on the loaded page. ok is false at the page boundary.
func (s *AdsStore) GetPreviousAdID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.currentAdIndexLocked()
	if idx <= 0 {
		return "", false
	}
	return s.ads[idx-1].ID, true
}

// GetNextAdID returns the id of the neighbour after the current ad on
// the loaded page. ok is false at the page boundary.
func (s *AdsStore) GetNextAdID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.currentAdIndexLocked()
	if idx < 0 || idx+1 >= len(s.ads) {
		return "", false
	}
	return s.ads[idx+1].ID, true
}

// Ads returns a snapshot of the loaded page.
func (s *AdsStore) Ads() []models.Ad {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Ad, len(s.ads))
	for i, ad := range s.ads {
		out[i] = ad.Clone()
	}
	return out
}

// CurrentAd returns a snapshot of the current ad, or nil.
func (s *AdsStore) CurrentAd() *models.Ad {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentAd == nil {
		return nil
	}
	bound := s.currentAd.Clone()
	return &bound
}

// Loading reports whether a list or detail fetch is in flight.
func (s *AdsStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Error returns the localised error banner message, or "".
func (s *AdsStore) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Filters returns a snapshot of the current filters.
func (s *AdsStore) Filters() models.AdsFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

// Pagination returns a snapshot of the pagination state.
func (s *AdsStore) Pagination() Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

// userMessage maps a transport error to a moderator-facing message: a
// validation message from the server verbatim, otherwise the localised
// fallback for the failed operation.
func userMessage(err error, fallbackID string) string {
	if msg, ok := moderapi.IsValidation(err); ok {
		return msg
	}
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())
	return locales.GetMessage(localizer, fallbackID, nil, nil)
}
