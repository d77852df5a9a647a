package moderapi

import (
	"context"

	"admod-bot/internal/models"
)

// PageInfo is the pagination block of a list response.
type PageInfo struct {
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
}

// AdsPage is the response of the ads list endpoint.
type AdsPage struct {
	Ads        []models.Ad `json:"ads"`
	Pagination PageInfo    `json:"pagination"`
}

// API defines the typed request surface of the moderation service.
// Stores depend on this interface so tests can substitute a mock.
type API interface {
	ListAds(ctx context.Context, page, limit int, filter models.AdsFilter) (*AdsPage, error)
	GetAd(ctx context.Context, id string) (*models.Ad, error)

	ApproveAd(ctx context.Context, id string) (*models.Ad, error)
	RejectAd(ctx context.Context, id, reason, customReason string) (*models.Ad, error)
	RequestChanges(ctx context.Context, id, reason, customReason string) (*models.Ad, error)

	StatsSummary(ctx context.Context, period models.StatsPeriod) (*models.StatsSummary, error)
	ActivityChart(ctx context.Context, period models.StatsPeriod) ([]models.ActivityPoint, error)
	DecisionsChart(ctx context.Context, period models.StatsPeriod) (*models.DecisionTotals, error)
	CategoriesChart(ctx context.Context, period models.StatsPeriod) (map[string]int, error)
	ExportStats(ctx context.Context, format models.ExportFormat, period models.StatsPeriod) ([]byte, error)
}
