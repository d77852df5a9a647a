package moderapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admod-bot/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, "test-token", false)
	require.NoError(t, err)
	return client
}

func TestListAdsQueryEncoding(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/ads", r.URL.Path)
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(AdsPage{
			Ads:        []models.Ad{{ID: "a1"}},
			Pagination: PageInfo{TotalPages: 1, TotalItems: 1},
		})
	})

	category := 2
	minPrice := int64(1000)
	maxPrice := int64(50000)
	filter := models.AdsFilter{
		Status:     []models.AdStatus{models.StatusPending, models.StatusDraft},
		Search:     "iphone",
		CategoryID: &category,
		MinPrice:   &minPrice,
		MaxPrice:   &maxPrice,
		SortBy:     models.SortByPrice,
		SortOrder:  models.SortAsc,
	}

	page, err := client.ListAds(context.Background(), 3, 10, filter)
	require.NoError(t, err)
	require.Len(t, page.Ads, 1)

	assert.Equal(t, []string{"3"}, gotQuery["page"])
	assert.Equal(t, []string{"10"}, gotQuery["limit"])
	assert.Equal(t, []string{"pending", "draft"}, gotQuery["status"])
	assert.Equal(t, []string{"iphone"}, gotQuery["search"])
	assert.Equal(t, []string{"2"}, gotQuery["categoryId"])
	assert.Equal(t, []string{"1000"}, gotQuery["minPrice"])
	assert.Equal(t, []string{"50000"}, gotQuery["maxPrice"])
	assert.Equal(t, []string{"price"}, gotQuery["sortBy"])
	assert.Equal(t, []string{"asc"}, gotQuery["sortOrder"])
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestListAdsOmitsUnsetFilters(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(AdsPage{})
	})

	_, err := client.ListAds(context.Background(), 1, 10, models.DefaultFilter())
	require.NoError(t, err)

	assert.NotContains(t, gotQuery, "status")
	assert.NotContains(t, gotQuery, "search")
	assert.NotContains(t, gotQuery, "categoryId")
	assert.NotContains(t, gotQuery, "minPrice")
	assert.NotContains(t, gotQuery, "maxPrice")
	assert.Equal(t, []string{"createdAt"}, gotQuery["sortBy"])
	assert.Equal(t, []string{"desc"}, gotQuery["sortOrder"])
}

func TestRejectAdBody(t *testing.T) {
	var gotBody map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ads/a1/reject", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(models.Ad{ID: "a1", Status: models.StatusRejected})
	})

	ad, err := client.RejectAd(context.Background(), "a1", "слишком дорого", "слишком дорого")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, ad.Status)

	assert.Equal(t, "слишком дорого", gotBody["reason"])
	assert.Equal(t, "слишком дорого", gotBody["customReason"])
}

func TestRequestChangesEndpoint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ads/a1/request-changes", r.URL.Path)
		_ = json.NewEncoder(w).Encode(models.Ad{ID: "a1", Status: models.StatusDraft})
	})

	ad, err := client.RequestChanges(context.Background(), "a1", "Проблемы с фото", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, ad.Status)
}

func TestValidationErrorMessageExtraction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "minPrice must be positive"})
	})

	_, err := client.ListAds(context.Background(), 1, 10, models.DefaultFilter())
	require.Error(t, err)

	msg, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "minPrice must be positive", msg)
}

func TestValidationErrorAlternateEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Reason is required"})
	})

	_, err := client.ApproveAd(context.Background(), "a1")
	require.Error(t, err)

	msg, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Reason is required", msg)
}

func TestServerErrorIsNotValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetAd(context.Background(), "a1")
	require.Error(t, err)

	_, ok := IsValidation(err)
	assert.False(t, ok)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestStatsEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "week", r.URL.Query().Get("period"))
		switch r.URL.Path {
		case "/stats/summary":
			_ = json.NewEncoder(w).Encode(models.StatsSummary{TotalReviewed: 42})
		case "/stats/chart/activity":
			_ = json.NewEncoder(w).Encode([]models.ActivityPoint{{Date: "2024-01-05", Approved: 1}})
		case "/stats/chart/decisions":
			_ = json.NewEncoder(w).Encode(models.DecisionTotals{Approved: 10, Rejected: 3})
		case "/stats/chart/categories":
			_ = json.NewEncoder(w).Encode(map[string]int{"Electronics": 7})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	summary, err := client.StatsSummary(ctx, models.PeriodWeek)
	require.NoError(t, err)
	assert.Equal(t, 42, summary.TotalReviewed)

	points, err := client.ActivityChart(ctx, models.PeriodWeek)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2024-01-05", points[0].Date)

	totals, err := client.DecisionsChart(ctx, models.PeriodWeek)
	require.NoError(t, err)
	assert.Equal(t, 10, totals.Approved)

	counts, err := client.CategoriesChart(ctx, models.PeriodWeek)
	require.NoError(t, err)
	assert.Equal(t, 7, counts["Electronics"])
}

func TestExportStats(t *testing.T) {
	payload := []byte("id;status\n1;approved\n")
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats/export", r.URL.Path)
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		assert.Equal(t, "month", r.URL.Query().Get("period"))
		_, _ = w.Write(payload)
	})

	data, err := client.ExportStats(context.Background(), models.ExportCSV, models.PeriodMonth)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}
