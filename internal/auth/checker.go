package auth

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mymmrac/telego"
)

// ModeratorChecker verifies that a user belongs to the configured
// moderator chat before any command or callback is processed.
type ModeratorChecker struct {
	bot             *telego.Bot
	moderatorChatID int64
}

// NewModeratorChecker creates a new ModeratorChecker.
// It requires a non-nil bot instance and a non-zero moderator chat ID.
func NewModeratorChecker(bot *telego.Bot, chatID int64) (*ModeratorChecker, error) {
	if bot == nil {
		return nil, fmt.Errorf("telego bot instance cannot be nil")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("moderator chat ID cannot be zero")
	}
	return &ModeratorChecker{
		bot:             bot,
		moderatorChatID: chatID,
	}, nil
}

// IsModerator reports whether the user is a member of the moderator
// chat. Left and kicked members do not qualify.
func (mc *ModeratorChecker) IsModerator(ctx context.Context, userID int64) (bool, error) {
	member, err := mc.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{ID: mc.moderatorChatID},
		UserID: userID,
	})
	if err != nil {
		// A user unknown to the chat is simply not a moderator.
		if strings.Contains(strings.ToLower(err.Error()), "user not found") {
			return false, nil
		}
		log.Printf("[ModeratorCheck User:%d Chat:%d] Error checking chat member: %v. Assuming non-moderator.", userID, mc.moderatorChatID, err)
		return false, fmt.Errorf("failed to get chat member info: %w", err)
	}

	switch member.MemberStatus() {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator, telego.MemberStatusMember:
		return true, nil
	}
	return false, nil
}
