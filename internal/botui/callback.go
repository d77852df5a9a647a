package botui

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"admod-bot/internal/actionlog"
	"admod-bot/internal/controller"
	"admod-bot/internal/models"
)

// HandleCallbackQuery routes the console's callback queries. Returns
// true if the callback was processed by this handler.
func (h *Handler) HandleCallbackQuery(ctx context.Context, query telego.CallbackQuery) (processed bool, err error) {
	moderatorID := query.From.ID
	data := query.Data
	localizer := h.getLocalizer(&query.From)

	if !strings.HasPrefix(data, "ad:") && !strings.HasPrefix(data, "list:") && !strings.HasPrefix(data, "rej:") {
		return false, nil
	}

	isModerator, err := h.checker.IsModerator(ctx, moderatorID)
	if err != nil {
		log.Printf("[CallbackQuery] Error checking moderator status for user %d: %v", moderatorID, err)
		_ = h.answerCallbackQuery(ctx, query.ID, locMsg(localizer, "MsgErrorGeneral"), true)
		return true, err
	}
	if !isModerator {
		log.Printf("[CallbackQuery] User %d is not a moderator, ignoring action.", moderatorID)
		_ = h.answerCallbackQuery(ctx, query.ID, locMsg(localizer, "MsgErrorRequiresModerator"), true)
		return true, nil
	}

	var chatID int64
	if msg, ok := query.Message.(*telego.Message); ok && msg != nil {
		chatID = msg.Chat.ID
	}
	if chatID == 0 {
		chatID = moderatorID
	}
	s := h.getSession(moderatorID, chatID)

	switch {
	case strings.HasPrefix(data, "list:page:"):
		return true, h.handlePageCallback(ctx, s, localizer, query, strings.TrimPrefix(data, "list:page:"))
	case strings.HasPrefix(data, "ad:"):
		return true, h.handleAdCallback(ctx, s, localizer, query, data)
	case strings.HasPrefix(data, "rej:"):
		return true, h.handleRejectCallback(ctx, s, localizer, query, data)
	}
	return false, nil
}

func (h *Handler) handlePageCallback(ctx context.Context, s *session, localizer *i18n.Localizer, query telego.CallbackQuery, pageStr string) error {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		log.Printf("[CallbackQuery] Invalid page in data: %s", query.Data)
		_ = h.answerCallbackQuery(ctx, query.ID, locMsg(localizer, "MsgErrorGeneral"), true)
		return fmt.Errorf("invalid page in callback data")
	}

	if err := h.list.HandlePageChange(ctx, page); err != nil {
		log.Printf("[CallbackQuery] Page change to %d failed: %v", page, err)
		answer := h.ads.Error()
		if answer == "" {
			answer = locMsg(localizer, "MsgErrorGeneral")
		}
		_ = h.answerCallbackQuery(ctx, query.ID, answer, false)
		return h.refreshList(ctx, s, localizer)
	}
	_ = h.answerCallbackQuery(ctx, query.ID, "", false)
	return h.refreshList(ctx, s, localizer)
}

func (h *Handler) handleAdCallback(ctx context.Context, s *session, localizer *i18n.Localizer, query telego.CallbackQuery, data string) error {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		log.Printf("[CallbackQuery] Invalid data format: %s", data)
		_ = h.answerCallbackQuery(ctx, query.ID, locMsg(localizer, "MsgErrorGeneral"), true)
		return fmt.Errorf("invalid callback data format")
	}
	adID, action := parts[1], parts[2]
	moderatorID := query.From.ID

	switch action {
	case "open":
		_ = h.answerCallbackQuery(ctx, query.ID, "", false)
		return h.showDetail(ctx, s, localizer, adID)
	case "back":
		_ = h.answerCallbackQuery(ctx, query.ID, "", false)
		return h.closeDetail(ctx, s, localizer)
	case "approve":
		h.ensureBound(ctx, adID)
		h.detail.HandleApprove(ctx)
		h.logDecision(moderatorID, adID, "approve", "", "")
		h.answerWithAlert(ctx, query.ID)
		return h.refreshDetail(ctx, s, localizer)
	case "reject":
		h.ensureBound(ctx, adID)
		h.detail.OpenRejectDialog()
		_ = h.answerCallbackQuery(ctx, query.ID, "", false)
		return h.refreshDetail(ctx, s, localizer)
	case "revision":
		h.ensureBound(ctx, adID)
		h.detail.SetRejectDialogOpen(true)
		s.revisionMode = true
		_ = h.answerCallbackQuery(ctx, query.ID, "", false)
		return h.refreshDetail(ctx, s, localizer)
	case "prev":
		_ = h.answerCallbackQuery(ctx, query.ID, "", false)
		h.detail.HandlePrevious(ctx)
		return h.refreshDetail(ctx, s, localizer)
	case "next":
		_ = h.answerCallbackQuery(ctx, query.ID, "", false)
		h.detail.HandleNext(ctx)
		return h.refreshDetail(ctx, s, localizer)
	}

	log.Printf("[CallbackQuery] Unknown ad action: %s", action)
	_ = h.answerCallbackQuery(ctx, query.ID, locMsg(localizer, "MsgErrorGeneral"), true)
	return fmt.Errorf("unknown ad action: %s", action)
}

func (h *Handler) handleRejectCallback(ctx context.Context, s *session, localizer *i18n.Localizer, query telego.CallbackQuery, data string) error {
	moderatorID := query.From.ID

	// A reject keyboard can outlive its dialog, e.g. after a restart.
	if h.detail.ID() == "" {
		_ = h.answerCallbackQuery(ctx, query.ID, locMsg(localizer, "MsgSessionExpired"), true)
		return nil
	}

	switch {
	case strings.HasPrefix(data, "rej:toggle:"):
		idx, err := strconv.Atoi(strings.TrimPrefix(data, "rej:toggle:"))
		if err != nil || idx < 0 || idx >= len(controller.RejectionReasons) {
			_ = h.answerCallbackQuery(ctx, query.ID, locMsg(localizer, "MsgErrorGeneral"), true)
			return fmt.Errorf("invalid reason index in callback data")
		}
		reason := controller.RejectionReasons[idx]
		checked := !containsString(h.detail.SelectedReasons(), reason)
		h.detail.HandleReasonChange(reason, checked)
		if reason == controller.ReasonOther && checked {
			s.awaitingReason = true
		}
		_ = h.answerCallbackQuery(ctx, query.ID, "", false)
		return h.refreshDetail(ctx, s, localizer)

	case data == "rej:submit":
		if h.detail.IsSubmitDisabled() {
			_ = h.answerCallbackQuery(ctx, query.ID, locMsg(localizer, "MsgRejectSubmitDisabled"), true)
			return nil
		}
		adID := h.detail.ID()
		reasons := strings.Join(h.detail.SelectedReasons(), ", ")
		custom := h.detail.CustomReason()
		if s.revisionMode {
			h.detail.HandleReturnForRevision(ctx)
			h.logDecision(moderatorID, adID, "revision", reasons, custom)
		} else {
			h.detail.HandleRejectSubmit(ctx)
			h.logDecision(moderatorID, adID, "reject", reasons, custom)
		}
		s.revisionMode = false
		s.awaitingReason = false
		h.answerWithAlert(ctx, query.ID)
		return h.refreshDetail(ctx, s, localizer)

	case data == "rej:cancel":
		h.detail.HandlePopoverClose()
		h.detail.SetRejectDialogOpen(false)
		s.revisionMode = false
		s.awaitingReason = false
		_ = h.answerCallbackQuery(ctx, query.ID, "", false)
		return h.refreshDetail(ctx, s, localizer)
	}

	_ = h.answerCallbackQuery(ctx, query.ID, locMsg(localizer, "MsgCallbackNotHandled"), false)
	return nil
}

// ensureBound rebinds the detail controller when the pressed card does
// not match its current ad, e.g. after the console restarted.
func (h *Handler) ensureBound(ctx context.Context, adID string) {
	if h.detail.ID() != adID {
		h.detail.Init(ctx, adID)
	}
}

// answerWithAlert answers the callback with the outcome alert of the
// last action, if one was produced.
func (h *Handler) answerWithAlert(ctx context.Context, queryID string) {
	if alert := h.detail.Alert(); alert != nil {
		_ = h.answerCallbackQuery(ctx, queryID, alert.Message, alert.Type == controller.AlertError)
		return
	}
	_ = h.answerCallbackQuery(ctx, queryID, "", false)
}

// logDecision records a decision in the audit log using the committed
// ad status.
func (h *Handler) logDecision(moderatorID int64, adID, action, reason, custom string) {
	status := models.AdStatus("")
	if ad := h.ads.CurrentAd(); ad != nil && ad.ID == adID {
		status = ad.Status
	}
	if err := h.actionLog.LogDecision(actionlog.DecisionEntry{
		AdID:         adID,
		Action:       action,
		Reason:       reason,
		CustomReason: custom,
		Status:       status,
		ModeratorID:  moderatorID,
	}); err != nil {
		log.Printf("[BotUI User:%d] Failed to log decision for ad %s: %v", moderatorID, adID, err)
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
