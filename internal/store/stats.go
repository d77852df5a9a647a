package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"

	"admod-bot/internal/locales"
	"admod-bot/internal/moderapi"
	"admod-bot/internal/models"
	"admod-bot/internal/observe"
)

// Fixed decision colour mapping shared by the activity and decisions
// charts.
const (
	colorApproved       = "#00C49F"
	colorRejected       = "#FF8042"
	colorRequestChanges = "#FFBB28"
)

// Categories chart keeps the ten largest entries and shortens labels
// that would not fit the axis.
const (
	categoriesChartLimit = 10
	categoryLabelMax     = 20
	categoryLabelKeep    = 17
)

// StatsStore holds the period-scoped summary and the three chart
// view-models derived from raw server responses.
type StatsStore struct {
	mu  sync.Mutex
	api moderapi.API
	hub observe.Hub

	summary         *models.StatsSummary
	activityChart   *models.ChartData
	decisionsChart  *models.ChartData
	categoriesChart *models.ChartData
	loading         bool
	errMsg          string

	summarySeq uint64
	chartsSeq  uint64
}

// NewStatsStore creates a store bound to the given transport.
func NewStatsStore(api moderapi.API) *StatsStore {
	if api == nil {
		log.Fatal("StatsStore: API instance is nil")
	}
	return &StatsStore{api: api}
}

// Subscribe registers fn to run after every committed state change.
func (s *StatsStore) Subscribe(fn func()) observe.Unsubscribe {
	return s.hub.Subscribe(fn)
}

// FetchSummary loads the aggregate summary for the period.
func (s *StatsStore) FetchSummary(ctx context.Context, period models.StatsPeriod) error {
	s.mu.Lock()
	s.summarySeq++
	seq := s.summarySeq
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
	s.hub.Publish()

	summary, err := s.api.StatsSummary(ctx, period)

	s.mu.Lock()
	if seq != s.summarySeq {
		s.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		log.Printf("[StatsStore] Error fetching summary for period %s: %v", period, err)
		s.errMsg = userMessage(err, "MsgStatsLoadError")
		s.loading = false
		s.mu.Unlock()
		s.hub.Publish()
		return err
	}

	copied := *summary
	s.summary = &copied
	s.loading = false
	s.mu.Unlock()
	s.hub.Publish()
	return nil
}

// FetchCharts issues the three chart requests in parallel and commits
// all three datasets together on full success. If any request fails
// the prior chart data stays as-is and only the error is set.
func (s *StatsStore) FetchCharts(ctx context.Context, period models.StatsPeriod) error {
	s.mu.Lock()
	s.chartsSeq++
	seq := s.chartsSeq
	s.mu.Unlock()

	var (
		wg         sync.WaitGroup
		activity   []models.ActivityPoint
		decisions  *models.DecisionTotals
		categories map[string]int

		activityErr   error
		decisionsErr  error
		categoriesErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		activity, activityErr = s.api.ActivityChart(ctx, period)
	}()
	go func() {
		defer wg.Done()
		decisions, decisionsErr = s.api.DecisionsChart(ctx, period)
	}()
	go func() {
		defer wg.Done()
		categories, categoriesErr = s.api.CategoriesChart(ctx, period)
	}()
	wg.Wait()

	err := activityErr
	if err == nil {
		err = decisionsErr
	}
	if err == nil {
		err = categoriesErr
	}

	s.mu.Lock()
	if seq != s.chartsSeq {
		s.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		log.Printf("[StatsStore] Error fetching charts for period %s: %v", period, err)
		s.errMsg = userMessage(err, "MsgChartsLoadError")
		s.mu.Unlock()
		s.hub.Publish()
		return err
	}

	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())
	activityData := transformActivityData(localizer, activity)
	decisionsData := transformDecisionsData(localizer, decisions)
	categoriesData := transformCategoriesData(localizer, categories)

	s.activityChart = &activityData
	s.decisionsChart = &decisionsData
	s.categoriesChart = &categoriesData
	s.mu.Unlock()
	s.hub.Publish()
	return nil
}

// ExportData downloads the stats export in the requested format.
func (s *StatsStore) ExportData(ctx context.Context, format models.ExportFormat, period models.StatsPeriod) ([]byte, error) {
	data, err := s.api.ExportStats(ctx, format, period)
	if err != nil {
		log.Printf("[StatsStore] Error exporting %s for period %s: %v", format, period, err)
		return nil, fmt.Errorf("stats export failed: %w", err)
	}
	return data, nil
}

// Summary returns a snapshot of the loaded summary, or nil.
func (s *StatsStore) Summary() *models.StatsSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return nil
	}
	copied := *s.summary
	return &copied
}

// ActivityChart returns a snapshot of the activity chart, or nil.
func (s *StatsStore) ActivityChart() *models.ChartData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneChart(s.activityChart)
}

// DecisionsChart returns a snapshot of the decisions chart, or nil.
func (s *StatsStore) DecisionsChart() *models.ChartData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneChart(s.decisionsChart)
}

// CategoriesChart returns a snapshot of the categories chart, or nil.
func (s *StatsStore) CategoriesChart() *models.ChartData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneChart(s.categoriesChart)
}

// Loading reports whether a summary fetch is in flight.
func (s *StatsStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Error returns the localised error message, or "".
func (s *StatsStore) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func cloneChart(c *models.ChartData) *models.ChartData {
	if c == nil {
		return nil
	}
	copied := c.Clone()
	return &copied
}

// transformActivityData derives the per-day activity chart: one label
// per entry (localised day + short month), three series with the fixed
// decision colours, entry order preserved.
func transformActivityData(localizer *i18n.Localizer, points []models.ActivityPoint) models.ChartData {
	labels := make([]string, len(points))
	approved := make([]int, len(points))
	rejected := make([]int, len(points))
	requestChanges := make([]int, len(points))

	for i, point := range points {
		labels[i] = formatDayMonth(localizer, point.Date)
		approved[i] = point.Approved
		rejected[i] = point.Rejected
		requestChanges[i] = point.RequestChanges
	}

	return models.ChartData{
		Labels: labels,
		Datasets: []models.Dataset{
			{
				Label:           locales.GetMessage(localizer, "ChartApproved", nil, nil),
				Data:            approved,
				BackgroundColor: []string{colorApproved},
			},
			{
				Label:           locales.GetMessage(localizer, "ChartRejected", nil, nil),
				Data:            rejected,
				BackgroundColor: []string{colorRejected},
			},
			{
				Label:           locales.GetMessage(localizer, "ChartRequestChanges", nil, nil),
				Data:            requestChanges,
				BackgroundColor: []string{colorRequestChanges},
			},
		},
	}
}

// transformDecisionsData derives the decisions chart: one dataset of
// [approved, rejected, requestChanges]. Missing keys decode to zero.
func transformDecisionsData(localizer *i18n.Localizer, totals *models.DecisionTotals) models.ChartData {
	var t models.DecisionTotals
	if totals != nil {
		t = *totals
	}
	return models.ChartData{
		Labels: []string{
			locales.GetMessage(localizer, "ChartApproved", nil, nil),
			locales.GetMessage(localizer, "ChartRejected", nil, nil),
			locales.GetMessage(localizer, "ChartRequestChanges", nil, nil),
		},
		Datasets: []models.Dataset{
			{
				Label:           locales.GetMessage(localizer, "ChartDecisions", nil, nil),
				Data:            []int{t.Approved, t.Rejected, t.RequestChanges},
				BackgroundColor: []string{colorApproved, colorRejected, colorRequestChanges},
			},
		},
	}
}

// transformCategoriesData derives the categories chart: counts sorted
// descending, top ten kept, labels over 20 characters shortened to
// 17 + "...". Equal counts are ordered by name for determinism.
func transformCategoriesData(localizer *i18n.Localizer, counts map[string]int) models.ChartData {
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name: name, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	if len(entries) > categoriesChartLimit {
		entries = entries[:categoriesChartLimit]
	}

	labels := make([]string, len(entries))
	data := make([]int, len(entries))
	for i, e := range entries {
		labels[i] = truncateLabel(e.name)
		data[i] = e.count
	}

	return models.ChartData{
		Labels: labels,
		Datasets: []models.Dataset{
			{
				Label:           locales.GetMessage(localizer, "ChartCategories", nil, nil),
				Data:            data,
				BackgroundColor: []string{colorApproved},
			},
		},
	}
}

func truncateLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= categoryLabelMax {
		return label
	}
	return string(runes[:categoryLabelKeep]) + "..."
}

// formatDayMonth renders an ISO date as a localised "day short-month"
// label, e.g. "5 янв.". Unparseable dates pass through verbatim.
func formatDayMonth(localizer *i18n.Localizer, date string) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, date)
	}
	if err != nil {
		return date
	}
	month := locales.GetMessage(localizer, "MonthShort"+strconv.Itoa(int(parsed.Month())), nil, nil)
	return fmt.Sprintf("%d %s", parsed.Day(), month)
}
