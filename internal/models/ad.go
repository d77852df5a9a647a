package models

import "time"

// AdStatus defines the possible moderation states of an ad.
type AdStatus string

const (
	StatusPending  AdStatus = "pending"
	StatusApproved AdStatus = "approved"
	StatusRejected AdStatus = "rejected"
	StatusDraft    AdStatus = "draft"
)

// AdPriority defines how urgently an ad needs review.
type AdPriority string

const (
	PriorityNormal AdPriority = "normal"
	PriorityUrgent AdPriority = "urgent"
)

// ModerationAction is a decision recorded in an ad's moderation history.
type ModerationAction string

const (
	ActionApproved         ModerationAction = "approved"
	ActionRejected         ModerationAction = "rejected"
	ActionChangesRequested ModerationAction = "changes_requested"
)

// Seller describes the owner of an ad.
type Seller struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Rating       float64   `json:"rating"`
	TotalAds     int       `json:"totalAds"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// ModerationRecord is a single, append-only entry in an ad's moderation
// history. The client never edits these locally.
type ModerationRecord struct {
	ModeratorName string           `json:"moderatorName"`
	Timestamp     time.Time        `json:"timestamp"`
	Action        ModerationAction `json:"action"`
	Comment       string           `json:"comment,omitempty"`
}

// Ad is the moderation unit. Price is passed through verbatim in minor
// units as the server sends it.
type Ad struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Price             int64              `json:"price"`
	Category          string             `json:"category"`
	CategoryID        int                `json:"categoryId"`
	Images            []string           `json:"images"`
	Status            AdStatus           `json:"status"`
	Priority          AdPriority         `json:"priority"`
	CreatedAt         time.Time          `json:"createdAt"`
	Seller            Seller             `json:"seller"`
	ModerationHistory []ModerationRecord `json:"moderationHistory"`
	Characteristics   map[string]string  `json:"characteristics"`
}

// Clone returns a deep copy so callers can hold a snapshot without
// sharing slices or maps with the store's cached version.
func (a Ad) Clone() Ad {
	c := a
	if a.Images != nil {
		c.Images = append([]string(nil), a.Images...)
	}
	if a.ModerationHistory != nil {
		c.ModerationHistory = append([]ModerationRecord(nil), a.ModerationHistory...)
	}
	if a.Characteristics != nil {
		c.Characteristics = make(map[string]string, len(a.Characteristics))
		for k, v := range a.Characteristics {
			c.Characteristics[k] = v
		}
	}
	return c
}

// SortField selects the server-side sort key for the ads list.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByPrice     SortField = "price"
	SortByPriority  SortField = "priority"
)

// SortOrder is the direction of the server-side sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// AdsFilter describes the list query. An empty Status set means no
// status constraint; nil numeric fields are omitted from the request.
type AdsFilter struct {
	Status     []AdStatus
	Search     string
	CategoryID *int
	MinPrice   *int64
	MaxPrice   *int64
	SortBy     SortField
	SortOrder  SortOrder
}

// DefaultFilter returns the documented filter defaults: no status
// constraint, empty search, createdAt descending.
func DefaultFilter() AdsFilter {
	return AdsFilter{
		Status:    []AdStatus{},
		Search:    "",
		SortBy:    SortByCreatedAt,
		SortOrder: SortDesc,
	}
}

// Clone returns an independent copy of the filter.
func (f AdsFilter) Clone() AdsFilter {
	c := f
	if f.Status != nil {
		c.Status = append([]AdStatus(nil), f.Status...)
	}
	if f.CategoryID != nil {
		v := *f.CategoryID
		c.CategoryID = &v
	}
	if f.MinPrice != nil {
		v := *f.MinPrice
		c.MinPrice = &v
	}
	if f.MaxPrice != nil {
		v := *f.MaxPrice
		c.MaxPrice = &v
	}
	return c
}

// Categories is the stable, zero-indexed category catalogue.
var Categories = []string{
	"Electronics",
	"RealEstate",
	"Transport",
	"Work",
	"Services",
	"Animals",
	"Fashion",
	"Children",
}

// CategoryName resolves a catalogue id to its canonical name.
func CategoryName(id int) (string, bool) {
	if id < 0 || id >= len(Categories) {
		return "", false
	}
	return Categories[id], true
}
