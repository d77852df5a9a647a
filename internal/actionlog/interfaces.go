package actionlog

import (
	"context"
	"time"

	"admod-bot/internal/models"
)

// DecisionEntry is a persisted record of a moderation decision made
// through the bot.
type DecisionEntry struct {
	AdID         string            `bson:"ad_id"`
	Action       string            `bson:"action"`
	Reason       string            `bson:"reason,omitempty"`
	CustomReason string            `bson:"custom_reason,omitempty"`
	Status       models.AdStatus   `bson:"status"`
	ModeratorID  int64             `bson:"moderator_id"`
	Time         time.Time         `bson:"time"`
	Extra        map[string]string `bson:"extra,omitempty"`
}

// Logger records moderator activity. Implementations must be safe for
// concurrent use.
type Logger interface {
	// LogModeratorAction writes a generic action entry (command usage,
	// navigation, exports).
	LogModeratorAction(moderatorID int64, action string, details interface{}) error
	// LogDecision writes a moderation decision entry.
	LogDecision(entry DecisionEntry) error
	// UpdateModerator upserts the moderator profile and bumps the
	// action counter.
	UpdateModerator(ctx context.Context, moderatorID int64, username, firstName, lastName string, action string) error
}
