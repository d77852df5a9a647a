package botui

import (
	"context"
	"log"
	"strings"

	"github.com/mymmrac/telego"

	"admod-bot/internal/locales"
)

// HandleMessage routes text messages: commands, the custom rejection
// reason while the dialog awaits one, and the single-letter review
// shortcuts.
func (h *Handler) HandleMessage(ctx context.Context, message telego.Message) error {
	if message.From == nil || message.Text == "" {
		return nil
	}
	moderatorID := message.From.ID
	localizer := h.getLocalizer(message.From)

	isModerator, err := h.checker.IsModerator(ctx, moderatorID)
	if err != nil {
		log.Printf("[Message User:%d] Error checking moderator status: %v", moderatorID, err)
		return h.sendText(ctx, message.Chat.ID, locMsg(localizer, "MsgErrorGeneral"))
	}
	if !isModerator {
		return h.sendText(ctx, message.Chat.ID, locMsg(localizer, "MsgErrorRequiresModerator"))
	}

	if strings.HasPrefix(message.Text, "/") {
		return h.handleCommand(ctx, message)
	}

	s := h.getSession(moderatorID, message.Chat.ID)

	// While the dialog awaits a custom reason, any text becomes the
	// reason draft.
	if s.awaitingReason && h.detail.IsRejectDialogOpen() {
		h.detail.SetCustomReason(message.Text)
		s.awaitingReason = false
		return h.refreshDetail(ctx, s, localizer)
	}

	// Single-letter review shortcuts on the open card.
	if s.detailMessageID != 0 {
		key := strings.ToLower(strings.TrimSpace(message.Text))
		adID := h.detail.ID()
		if h.detail.HandleKey(ctx, key, false) {
			if key == "a" {
				h.logDecision(moderatorID, adID, "approve", "", "")
			}
			return h.refreshDetail(ctx, s, localizer)
		}
	}
	return nil
}

// handleCommand dispatches a slash command.
func (h *Handler) handleCommand(ctx context.Context, message telego.Message) error {
	command := strings.Fields(message.Text)[0]
	command = strings.TrimPrefix(command, "/")
	if at := strings.Index(command, "@"); at != -1 {
		command = command[:at]
	}

	switch command {
	case "start":
		return h.HandleStart(ctx, message)
	case "help":
		return h.HandleHelp(ctx, message)
	case "list":
		return h.HandleList(ctx, message)
	case "filter":
		return h.HandleFilter(ctx, message)
	case "stats":
		return h.HandleStats(ctx, message)
	case "export":
		return h.HandleExport(ctx, message)
	case "version":
		return h.HandleVersion(ctx, message)
	}

	localizer := h.getLocalizer(message.From)
	return h.sendText(ctx, message.Chat.ID, locales.GetMessage(localizer, "MsgErrorUnknownCommand", nil, nil))
}
