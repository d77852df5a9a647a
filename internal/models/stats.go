package models

// StatsPeriod is the time window for the statistics endpoints.
type StatsPeriod string

const (
	PeriodToday StatsPeriod = "today"
	PeriodWeek  StatsPeriod = "week"
	PeriodMonth StatsPeriod = "month"
)

// ExportFormat selects the payload type of a stats export.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// StatsSummary is the aggregate moderation summary for a period.
// When any reviews exist the three percentages sum to 100 within one
// rounding unit.
type StatsSummary struct {
	TotalReviewed            int     `json:"totalReviewed"`
	TotalReviewedToday       int     `json:"totalReviewedToday"`
	TotalReviewedThisWeek    int     `json:"totalReviewedThisWeek"`
	TotalReviewedThisMonth   int     `json:"totalReviewedThisMonth"`
	ApprovedCount            int     `json:"approvedCount"`
	RejectedCount            int     `json:"rejectedCount"`
	ApprovedPercentage       float64 `json:"approvedPercentage"`
	RejectedPercentage       float64 `json:"rejectedPercentage"`
	RequestChangesPercentage float64 `json:"requestChangesPercentage"`
	AverageReviewTime        float64 `json:"averageReviewTime"`
}

// ActivityPoint is one per-day entry of the activity chart endpoint.
// Date stays a string on the wire ("2006-01-02" or RFC 3339); the
// store parses it when deriving labels.
type ActivityPoint struct {
	Date           string `json:"date"`
	Approved       int    `json:"approved"`
	Rejected       int    `json:"rejected"`
	RequestChanges int    `json:"requestChanges"`
}

// DecisionTotals is the decisions chart endpoint response. Missing
// keys decode to zero.
type DecisionTotals struct {
	Approved       int `json:"approved"`
	Rejected       int `json:"rejected"`
	RequestChanges int `json:"requestChanges"`
}

// Dataset is one series of a chart.
type Dataset struct {
	Label           string   `json:"label"`
	Data            []int    `json:"data"`
	BackgroundColor []string `json:"backgroundColor"`
}

// ChartData is the renderer-facing view-model: every dataset's Data
// has the same length as Labels.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Clone returns a deep copy of the chart data.
func (c ChartData) Clone() ChartData {
	out := ChartData{
		Labels:   append([]string(nil), c.Labels...),
		Datasets: make([]Dataset, len(c.Datasets)),
	}
	for i, d := range c.Datasets {
		out.Datasets[i] = Dataset{
			Label:           d.Label,
			Data:            append([]int(nil), d.Data...),
			BackgroundColor: append([]string(nil), d.BackgroundColor...),
		}
	}
	return out
}
