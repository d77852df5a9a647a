package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"admod-bot/internal/locales"
	"admod-bot/internal/moderapi"
	"admod-bot/internal/models"
)

func TestFetchSummarySuccess(t *testing.T) {
	api := new(MockAPI)
	s := NewStatsStore(api)

	summary := &models.StatsSummary{
		TotalReviewed:            120,
		ApprovedCount:            80,
		RejectedCount:            30,
		ApprovedPercentage:       66.7,
		RejectedPercentage:       25.0,
		RequestChangesPercentage: 8.3,
		AverageReviewTime:        4.2,
	}
	api.On("StatsSummary", mock.Anything, models.PeriodWeek).Return(summary, nil).Once()

	require.NoError(t, s.FetchSummary(context.Background(), models.PeriodWeek))

	got := s.Summary()
	require.NotNil(t, got)
	assert.Equal(t, 120, got.TotalReviewed)
	assert.InDelta(t, 66.7, got.ApprovedPercentage, 0.001)
	assert.False(t, s.Loading())
	assert.Empty(t, s.Error())
}

func TestFetchSummaryFailure(t *testing.T) {
	api := new(MockAPI)
	s := NewStatsStore(api)

	api.On("StatsSummary", mock.Anything, models.PeriodToday).
		Return(nil, &moderapi.APIError{StatusCode: 500}).Once()

	err := s.FetchSummary(context.Background(), models.PeriodToday)
	require.Error(t, err)
	assert.Equal(t, "Ошибка при загрузке статистики", s.Error())
	assert.Nil(t, s.Summary())
}

func TestFetchChartsCommitsAllThreeTogether(t *testing.T) {
	api := new(MockAPI)
	s := NewStatsStore(api)

	api.On("ActivityChart", mock.Anything, models.PeriodWeek).Return([]models.ActivityPoint{
		{Date: "2024-01-05", Approved: 3, Rejected: 1, RequestChanges: 2},
		{Date: "2024-01-06", Approved: 5, Rejected: 0, RequestChanges: 1},
	}, nil).Once()
	api.On("DecisionsChart", mock.Anything, models.PeriodWeek).
		Return(&models.DecisionTotals{Approved: 8, Rejected: 1, RequestChanges: 3}, nil).Once()
	api.On("CategoriesChart", mock.Anything, models.PeriodWeek).
		Return(map[string]int{"Electronics": 5, "Transport": 3}, nil).Once()

	require.NoError(t, s.FetchCharts(context.Background(), models.PeriodWeek))

	activity := s.ActivityChart()
	require.NotNil(t, activity)
	assert.Equal(t, []string{"5 янв.", "6 янв."}, activity.Labels)
	require.Len(t, activity.Datasets, 3)
	assert.Equal(t, "Одобрено", activity.Datasets[0].Label)
	assert.Equal(t, []int{3, 5}, activity.Datasets[0].Data)
	assert.Equal(t, []string{"#00C49F"}, activity.Datasets[0].BackgroundColor)
	assert.Equal(t, []string{"#FF8042"}, activity.Datasets[1].BackgroundColor)
	assert.Equal(t, []string{"#FFBB28"}, activity.Datasets[2].BackgroundColor)

	decisions := s.DecisionsChart()
	require.NotNil(t, decisions)
	assert.Equal(t, []string{"Одобрено", "Отклонено", "На доработку"}, decisions.Labels)
	require.Len(t, decisions.Datasets, 1)
	assert.Equal(t, []int{8, 1, 3}, decisions.Datasets[0].Data)
	assert.Equal(t, []string{"#00C49F", "#FF8042", "#FFBB28"}, decisions.Datasets[0].BackgroundColor)

	categories := s.CategoriesChart()
	require.NotNil(t, categories)
	assert.Equal(t, []string{"Electronics", "Transport"}, categories.Labels)
	assert.Equal(t, []int{5, 3}, categories.Datasets[0].Data)
}

func TestFetchChartsFailureKeepsPreviousCharts(t *testing.T) {
	api := new(MockAPI)
	s := NewStatsStore(api)

	api.On("ActivityChart", mock.Anything, models.PeriodWeek).
		Return([]models.ActivityPoint{{Date: "2024-01-05", Approved: 1}}, nil).Once()
	api.On("DecisionsChart", mock.Anything, models.PeriodWeek).
		Return(&models.DecisionTotals{Approved: 1}, nil).Once()
	api.On("CategoriesChart", mock.Anything, models.PeriodWeek).
		Return(map[string]int{"Electronics": 1}, nil).Once()
	require.NoError(t, s.FetchCharts(context.Background(), models.PeriodWeek))

	// Second fetch: one endpoint fails, nothing may be replaced.
	api.On("ActivityChart", mock.Anything, models.PeriodMonth).
		Return([]models.ActivityPoint{{Date: "2024-02-01", Approved: 9}}, nil).Once()
	api.On("DecisionsChart", mock.Anything, models.PeriodMonth).
		Return(nil, &moderapi.APIError{StatusCode: 502}).Once()
	api.On("CategoriesChart", mock.Anything, models.PeriodMonth).
		Return(map[string]int{"Transport": 9}, nil).Once()

	err := s.FetchCharts(context.Background(), models.PeriodMonth)
	require.Error(t, err)
	assert.Equal(t, "Ошибка при загрузке графиков", s.Error())

	activity := s.ActivityChart()
	require.NotNil(t, activity)
	assert.Equal(t, []string{"5 янв."}, activity.Labels)
	categories := s.CategoriesChart()
	require.NotNil(t, categories)
	assert.Equal(t, []string{"Electronics"}, categories.Labels)
}

func TestTransformCategoriesTopTenAndTruncation(t *testing.T) {
	counts := map[string]int{
		"Электроника и бытовая техника": 30,
		"Transport":                     25,
		"RealEstate":                    20,
		"Work":                          18,
		"Services":                      15,
		"Animals":                       12,
		"Fashion":                       10,
		"Children":                      8,
		"Hobby":                         6,
		"Garden":                        4,
		"Books":                         2,
		"Music":                         1,
	}
	localizer := locales.NewLocalizer("ru")
	data := transformCategoriesData(localizer, counts)

	require.Len(t, data.Labels, 10)
	require.Len(t, data.Datasets, 1)
	require.Len(t, data.Datasets[0].Data, 10)

	// Labels over 20 runes keep 17 runes plus an ellipsis.
	assert.Equal(t, "Электроника и быт...", data.Labels[0])
	assert.Equal(t, 30, data.Datasets[0].Data[0])

	// Sorted by count descending; the two smallest entries dropped.
	assert.NotContains(t, data.Labels, "Books")
	assert.NotContains(t, data.Labels, "Music")
	for i := 1; i < len(data.Datasets[0].Data); i++ {
		assert.GreaterOrEqual(t, data.Datasets[0].Data[i-1], data.Datasets[0].Data[i])
	}
}

func TestTruncateLabelBoundary(t *testing.T) {
	exactly20 := "ровно двадцать знака" // 20 runes
	assert.Equal(t, exactly20, truncateLabel(exactly20))

	over := "категория с очень длинным названием"
	truncated := truncateLabel(over)
	assert.Equal(t, string([]rune(over)[:17])+"...", truncated)
	assert.Len(t, []rune(truncated), 20)
}

func TestTransformDecisionsNilTotals(t *testing.T) {
	localizer := locales.NewLocalizer("ru")
	data := transformDecisionsData(localizer, nil)

	require.Len(t, data.Datasets, 1)
	assert.Equal(t, []int{0, 0, 0}, data.Datasets[0].Data)
	assert.Equal(t, "Решения", data.Datasets[0].Label)
}

func TestFormatDayMonth(t *testing.T) {
	localizer := locales.NewLocalizer("ru")

	assert.Equal(t, "5 янв.", formatDayMonth(localizer, "2024-01-05"))
	assert.Equal(t, "17 мая", formatDayMonth(localizer, "2024-05-17"))
	assert.Equal(t, "1 февр.", formatDayMonth(localizer, "2024-02-01T00:00:00Z"))
	// Unparseable dates pass through verbatim.
	assert.Equal(t, "not-a-date", formatDayMonth(localizer, "not-a-date"))
}

func TestExportDataPassesThrough(t *testing.T) {
	api := new(MockAPI)
	s := NewStatsStore(api)

	payload := []byte("id;status\n1;approved\n")
	api.On("ExportStats", mock.Anything, models.ExportCSV, models.PeriodMonth).Return(payload, nil).Once()

	data, err := s.ExportData(context.Background(), models.ExportCSV, models.PeriodMonth)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}
