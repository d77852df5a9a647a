package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"admod-bot/internal/locales"
	"admod-bot/internal/moderapi"
	"admod-bot/internal/models"
)

func init() {
	locales.Init("ru")
}

// MockAPI is a mock implementing the moderapi.API interface.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) ListAds(ctx context.Context, page, limit int, filter models.AdsFilter) (*moderapi.AdsPage, error) {
	args := m.Called(ctx, page, limit, filter)
	if resp, ok := args.Get(0).(*moderapi.AdsPage); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) GetAd(ctx context.Context, id string) (*models.Ad, error) {
	args := m.Called(ctx, id)
	if ad, ok := args.Get(0).(*models.Ad); ok {
		return ad, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) ApproveAd(ctx context.Context, id string) (*models.Ad, error) {
	args := m.Called(ctx, id)
	if ad, ok := args.Get(0).(*models.Ad); ok {
		return ad, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) RejectAd(ctx context.Context, id, reason, customReason string) (*models.Ad, error) {
	args := m.Called(ctx, id, reason, customReason)
	if ad, ok := args.Get(0).(*models.Ad); ok {
		return ad, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) RequestChanges(ctx context.Context, id, reason, customReason string) (*models.Ad, error) {
	args := m.Called(ctx, id, reason, customReason)
	if ad, ok := args.Get(0).(*models.Ad); ok {
		return ad, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) StatsSummary(ctx context.Context, period models.StatsPeriod) (*models.StatsSummary, error) {
	args := m.Called(ctx, period)
	if s, ok := args.Get(0).(*models.StatsSummary); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) ActivityChart(ctx context.Context, period models.StatsPeriod) ([]models.ActivityPoint, error) {
	args := m.Called(ctx, period)
	if points, ok := args.Get(0).([]models.ActivityPoint); ok {
		return points, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) DecisionsChart(ctx context.Context, period models.StatsPeriod) (*models.DecisionTotals, error) {
	args := m.Called(ctx, period)
	if totals, ok := args.Get(0).(*models.DecisionTotals); ok {
		return totals, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) CategoriesChart(ctx context.Context, period models.StatsPeriod) (map[string]int, error) {
	args := m.Called(ctx, period)
	if counts, ok := args.Get(0).(map[string]int); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) ExportStats(ctx context.Context, format models.ExportFormat, period models.StatsPeriod) ([]byte, error) {
	args := m.Called(ctx, format, period)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

func testAd(id string, status models.AdStatus) models.Ad {
	return models.Ad{
		ID:       id,
		Title:    "Ad " + id,
		Price:    1000,
		Status:   status,
		Priority: models.PriorityNormal,
	}
}

func testPage(total int, totalPages int, ads ...models.Ad) *moderapi.AdsPage {
	return &moderapi.AdsPage{
		Ads: ads,
		Pagination: moderapi.PageInfo{
			TotalPages: totalPages,
			TotalItems: total,
		},
	}
}

func TestFetchAdsSuccess(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.Anything).
		Return(testPage(2, 1, testAd("a1", models.StatusPending), testAd("a2", models.StatusPending)), nil).Once()

	err := s.FetchAds(context.Background(), 1)
	require.NoError(t, err)

	ads := s.Ads()
	require.Len(t, ads, 2)
	assert.Equal(t, "a1", ads[0].ID)
	assert.False(t, s.Loading())
	assert.Empty(t, s.Error())

	p := s.Pagination()
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 2, p.TotalItems)
	api.AssertExpectations(t)
}

func TestFetchAdsFailureKeepsCachedList(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.Anything).
		Return(testPage(1, 1, testAd("a1", models.StatusPending)), nil).Once()
	require.NoError(t, s.FetchAds(context.Background(), 1))

	api.On("ListAds", mock.Anything, 2, DefaultPageLimit, mock.Anything).
		Return(nil, &moderapi.APIError{StatusCode: 500}).Once()

	err := s.FetchAds(context.Background(), 2)
	require.Error(t, err)

	assert.Equal(t, "Ошибка при загрузке объявлений", s.Error())
	assert.False(t, s.Loading())
	// The cached page survives the failed fetch.
	assert.Len(t, s.Ads(), 1)
	assert.Equal(t, 1, s.Pagination().CurrentPage)
}

func TestFetchAdsValidationMessageVerbatim(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.Anything).
		Return(nil, &moderapi.APIError{StatusCode: 400, Message: "minPrice must be positive"}).Once()

	err := s.FetchAds(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, "minPrice must be positive", s.Error())
}

func TestFetchAdsLatestWins(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	oldSearch := "стар"
	newSearch := "нов"
	require.NotPanics(t, func() {
		s.SetFilters(FilterUpdate{Search: &oldSearch})
	})

	release := make(chan struct{})
	started := make(chan struct{})

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.MatchedBy(func(f models.AdsFilter) bool {
		return f.Search == oldSearch
	})).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(testPage(1, 1, testAd("old", models.StatusPending)), nil).Once()

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.MatchedBy(func(f models.AdsFilter) bool {
		return f.Search == newSearch
	})).Return(testPage(1, 1, testAd("new", models.StatusPending)), nil).Once()

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.FetchAds(context.Background(), 1)
	}()
	<-started

	s.SetFilters(FilterUpdate{Search: &newSearch})
	require.NoError(t, s.FetchAds(context.Background(), 1))

	close(release)
	err := <-firstDone
	assert.ErrorIs(t, err, ErrStale)

	// The slower, superseded response never overwrote the newer one.
	ads := s.Ads()
	require.Len(t, ads, 1)
	assert.Equal(t, "new", ads[0].ID)
	assert.False(t, s.Loading())
	assert.Empty(t, s.Error())
}

func TestSetFiltersMergesPartialUpdate(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	search := "iphone"
	category := 2
	s.SetFilters(FilterUpdate{Search: &search, CategoryID: &category})

	pending := []models.AdStatus{models.StatusPending}
	s.SetFilters(FilterUpdate{Status: &pending})

	f := s.Filters()
	assert.Equal(t, []models.AdStatus{models.StatusPending}, f.Status)
	assert.Equal(t, "iphone", f.Search)
	require.NotNil(t, f.CategoryID)
	assert.Equal(t, 2, *f.CategoryID)
	assert.Equal(t, models.SortByCreatedAt, f.SortBy)
	assert.Equal(t, models.SortDesc, f.SortOrder)

	s.SetFilters(FilterUpdate{ClearCategoryID: true})
	assert.Nil(t, s.Filters().CategoryID)
}

func TestResetFiltersRestoresDefaults(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	search := "велосипед"
	minPrice := int64(500)
	s.SetFilters(FilterUpdate{
		Search:    &search,
		MinPrice:  &minPrice,
		SortBy:    models.SortByPrice,
		SortOrder: models.SortAsc,
	})

	s.ResetFilters()

	f := s.Filters()
	assert.Empty(t, f.Status)
	assert.Empty(t, f.Search)
	assert.Nil(t, f.MinPrice)
	assert.Equal(t, models.SortByCreatedAt, f.SortBy)
	assert.Equal(t, models.SortDesc, f.SortOrder)
}

func TestApproveAdCommitsWithoutRefetch(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.Anything).
		Return(testPage(2, 1, testAd("a1", models.StatusPending), testAd("a2", models.StatusPending)), nil).Once()
	require.NoError(t, s.FetchAds(context.Background(), 1))
	require.True(t, s.BindCurrentAd("a1"))

	approved := testAd("a1", models.StatusApproved)
	api.On("ApproveAd", mock.Anything, "a1").Return(&approved, nil).Once()

	require.NoError(t, s.ApproveAd(context.Background(), "a1"))

	ads := s.Ads()
	assert.Equal(t, models.StatusApproved, ads[0].Status)
	assert.Equal(t, models.StatusPending, ads[1].Status)
	require.NotNil(t, s.CurrentAd())
	assert.Equal(t, models.StatusApproved, s.CurrentAd().Status)

	// One list call total: moderation commits in place.
	api.AssertNumberOfCalls(t, "ListAds", 1)
}

func TestApproveAlreadyApprovedShortCircuits(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.Anything).
		Return(testPage(1, 1, testAd("a1", models.StatusApproved)), nil).Once()
	require.NoError(t, s.FetchAds(context.Background(), 1))

	err := s.ApproveAd(context.Background(), "a1")
	require.Error(t, err)
	assert.True(t, IsAlreadyInStatus(err))
	api.AssertNotCalled(t, "ApproveAd", mock.Anything, mock.Anything)
}

func TestRequestChangesOnDraftShortCircuits(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.Anything).
		Return(testPage(1, 1, testAd("a1", models.StatusDraft)), nil).Once()
	require.NoError(t, s.FetchAds(context.Background(), 1))

	err := s.RequestChanges(context.Background(), "a1", "причина", "")
	assert.True(t, IsAlreadyInStatus(err))
	api.AssertNotCalled(t, "RequestChanges", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConcurrentActionOnSameAdIsBusy(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.Anything).
		Return(testPage(1, 1, testAd("a1", models.StatusPending)), nil).Once()
	require.NoError(t, s.FetchAds(context.Background(), 1))

	release := make(chan struct{})
	started := make(chan struct{})
	approved := testAd("a1", models.StatusApproved)
	api.On("ApproveAd", mock.Anything, "a1").Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(&approved, nil).Once()

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.ApproveAd(context.Background(), "a1")
	}()
	<-started

	err := s.RejectAd(context.Background(), "a1", "Запрещённый товар", "")
	assert.ErrorIs(t, err, ErrBusy)
	api.AssertNotCalled(t, "RejectAd", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	close(release)
	require.NoError(t, <-firstDone)
	assert.Equal(t, models.StatusApproved, s.Ads()[0].Status)
}

func TestNeighbourNavigationWithinPage(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.Anything).
		Return(testPage(3, 1,
			testAd("a1", models.StatusPending),
			testAd("a2", models.StatusPending),
			testAd("a3", models.StatusPending)), nil).Once()
	require.NoError(t, s.FetchAds(context.Background(), 1))

	require.True(t, s.BindCurrentAd("a2"))
	assert.Equal(t, 1, s.GetCurrentAdIndex())

	prev, ok := s.GetPreviousAdID()
	require.True(t, ok)
	assert.Equal(t, "a1", prev)

	next, ok := s.GetNextAdID()
	require.True(t, ok)
	assert.Equal(t, "a3", next)

	require.True(t, s.BindCurrentAd("a1"))
	_, ok = s.GetPreviousAdID()
	assert.False(t, ok)

	require.True(t, s.BindCurrentAd("a3"))
	_, ok = s.GetNextAdID()
	assert.False(t, ok)
}

func TestBindCurrentAdMissingFromPage(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.Anything).
		Return(testPage(1, 1, testAd("a1", models.StatusPending)), nil).Once()
	require.NoError(t, s.FetchAds(context.Background(), 1))

	assert.False(t, s.BindCurrentAd("missing"))
	assert.Nil(t, s.CurrentAd())
	assert.Equal(t, -1, s.GetCurrentAdIndex())
}

func TestLoadNextPageReportsEmptiness(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.Anything).
		Return(testPage(11, 2, testAd("a1", models.StatusPending)), nil).Once()
	require.NoError(t, s.FetchAds(context.Background(), 1))

	api.On("ListAds", mock.Anything, 2, DefaultPageLimit, mock.Anything).
		Return(testPage(11, 2, testAd("b1", models.StatusPending)), nil).Once()
	ok, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, s.Pagination().CurrentPage)

	api.On("ListAds", mock.Anything, 3, DefaultPageLimit, mock.Anything).
		Return(testPage(11, 2), nil).Once()
	ok, err = s.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadPreviousPageClampsAtFirstPage(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.Anything).
		Return(testPage(11, 2, testAd("a1", models.StatusPending)), nil).Once()
	require.NoError(t, s.FetchAds(context.Background(), 1))

	ok, err := s.LoadPreviousPage(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Pagination().CurrentPage)
	api.AssertNumberOfCalls(t, "ListAds", 1)
}

func TestFetchAdByIDBindsCurrentAd(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	ad := testAd("solo", models.StatusPending)
	api.On("GetAd", mock.Anything, "solo").Return(&ad, nil).Once()

	require.NoError(t, s.FetchAdByID(context.Background(), "solo"))
	require.NotNil(t, s.CurrentAd())
	assert.Equal(t, "solo", s.CurrentAd().ID)
	assert.Empty(t, s.Ads())
}

func TestSubscribeNotifiedOnCommit(t *testing.T) {
	api := new(MockAPI)
	s := NewAdsStore(api)

	notified := make(chan struct{}, 16)
	unsub := s.Subscribe(func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})
	defer unsub()

	api.On("ListAds", mock.Anything, 1, DefaultPageLimit, mock.Anything).
		Return(testPage(1, 1, testAd("a1", models.StatusPending)), nil).Once()
	require.NoError(t, s.FetchAds(context.Background(), 1))

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("expected a change notification after a committed fetch")
	}
}
