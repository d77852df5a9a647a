package botui

import (
	"context"
	"log"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// sendList sends a fresh list message and remembers its id for later
// in-place updates.
func (h *Handler) sendList(ctx context.Context, s *session, localizer *i18n.Localizer) error {
	text := h.buildListText(localizer)
	keyboard := h.buildListKeyboard(localizer)

	msg, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(s.chatID), text).
		WithParseMode(telego.ModeMarkdownV2).
		WithReplyMarkup(keyboard))
	if err != nil {
		log.Printf("[BotUI Chat:%d] Failed to send list message: %v", s.chatID, err)
		sentry.CaptureException(err)
		return err
	}
	s.listMessageID = msg.MessageID
	s.detailMessageID = 0
	return nil
}

// refreshList redraws the list into its existing message, falling back
// to a fresh send when there is none.
func (h *Handler) refreshList(ctx context.Context, s *session, localizer *i18n.Localizer) error {
	if s.listMessageID == 0 {
		return h.sendList(ctx, s, localizer)
	}
	text := h.buildListText(localizer)
	keyboard := h.buildListKeyboard(localizer)

	_, err := h.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      tu.ID(s.chatID),
		MessageID:   s.listMessageID,
		Text:        text,
		ParseMode:   telego.ModeMarkdownV2,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		log.Printf("[BotUI Chat:%d] Failed to edit list message %d: %v", s.chatID, s.listMessageID, err)
		return h.sendList(ctx, s, localizer)
	}
	return nil
}

// showDetail binds the controller to the ad and renders its card. The
// card reuses the detail message when one exists.
func (h *Handler) showDetail(ctx context.Context, s *session, localizer *i18n.Localizer, adID string) error {
	h.detail.Init(ctx, adID)
	return h.refreshDetail(ctx, s, localizer)
}

// refreshDetail redraws the card of the currently bound ad.
func (h *Handler) refreshDetail(ctx context.Context, s *session, localizer *i18n.Localizer) error {
	ad := h.ads.CurrentAd()
	if ad == nil {
		text := h.ads.Error()
		if text == "" {
			text = locMsg(localizer, "MsgAdLoadError")
		}
		return h.sendText(ctx, s.chatID, text)
	}

	text := h.buildDetailText(localizer, ad)
	var keyboard *telego.InlineKeyboardMarkup
	if h.detail.IsRejectDialogOpen() {
		text = h.buildRejectDialogText(localizer)
		keyboard = h.buildRejectKeyboard(localizer)
	} else {
		keyboard = h.buildDetailKeyboard(localizer, ad.ID)
	}

	if s.detailMessageID != 0 {
		_, err := h.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
			ChatID:      tu.ID(s.chatID),
			MessageID:   s.detailMessageID,
			Text:        text,
			ParseMode:   telego.ModeMarkdownV2,
			ReplyMarkup: keyboard,
		})
		if err == nil {
			return nil
		}
		log.Printf("[BotUI Chat:%d] Failed to edit detail message %d: %v", s.chatID, s.detailMessageID, err)
	}

	msg, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(s.chatID), text).
		WithParseMode(telego.ModeMarkdownV2).
		WithReplyMarkup(keyboard))
	if err != nil {
		log.Printf("[BotUI Chat:%d] Failed to send detail message: %v", s.chatID, err)
		sentry.CaptureException(err)
		return err
	}
	s.detailMessageID = msg.MessageID
	return nil
}

// closeDetail removes the card message and returns to the list.
func (h *Handler) closeDetail(ctx context.Context, s *session, localizer *i18n.Localizer) error {
	if s.detailMessageID != 0 {
		if err := h.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
			ChatID:    tu.ID(s.chatID),
			MessageID: s.detailMessageID,
		}); err != nil {
			log.Printf("[BotUI Chat:%d] Failed to delete detail message %d: %v", s.chatID, s.detailMessageID, err)
		}
		s.detailMessageID = 0
	}
	return h.refreshList(ctx, s, localizer)
}
