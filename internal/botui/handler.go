// Package botui renders the moderation console in Telegram: the ads
// list with pagination, ad cards with decision buttons, the
// reject-reason dialog and the statistics views. It drives the shared
// stores through the controllers and owns no moderation logic itself.
package botui

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"admod-bot/internal/actionlog"
	"admod-bot/internal/controller"
	"admod-bot/internal/locales"
	"admod-bot/internal/models"
	"admod-bot/internal/store"
	"admod-bot/pkg/telegoapi"
)

// ModeratorChecker verifies membership in the moderator chat.
type ModeratorChecker interface {
	IsModerator(ctx context.Context, userID int64) (bool, error)
}

// Command describes a bot command. Description holds the locale key of
// the command description.
type Command struct {
	Command     string
	Description string
}

// session is the per-moderator UI state: which messages render the
// list and the open card, and whether the next text message is a
// custom rejection reason.
type session struct {
	chatID          int64
	listMessageID   int
	detailMessageID int
	awaitingReason  bool
	revisionMode    bool
	period          models.StatsPeriod
}

// Handler routes commands, messages and callback queries for the
// moderation console.
type Handler struct {
	bot       telegoapi.BotAPI
	ads       *store.AdsStore
	stats     *store.StatsStore
	detail    *controller.AdDetailController
	list      *controller.AdsListController
	checker   ModeratorChecker
	actionLog actionlog.Logger
	version   string

	commands []Command

	sessionsMutex sync.RWMutex
	sessions      map[int64]*session
}

// NewHandler creates the console handler. All collaborators except the
// action logger are required; a nil logger falls back to NopLogger.
func NewHandler(
	bot telegoapi.BotAPI,
	ads *store.AdsStore,
	stats *store.StatsStore,
	detail *controller.AdDetailController,
	list *controller.AdsListController,
	checker ModeratorChecker,
	actionLog actionlog.Logger,
	version string,
) (*Handler, error) {
	if bot == nil {
		return nil, fmt.Errorf("botui: bot API cannot be nil")
	}
	if ads == nil || stats == nil {
		return nil, fmt.Errorf("botui: stores cannot be nil")
	}
	if detail == nil || list == nil {
		return nil, fmt.Errorf("botui: controllers cannot be nil")
	}
	if checker == nil {
		return nil, fmt.Errorf("botui: moderator checker cannot be nil")
	}
	if actionLog == nil {
		actionLog = actionlog.NopLogger{}
	}
	return &Handler{
		bot:       bot,
		ads:       ads,
		stats:     stats,
		detail:    detail,
		list:      list,
		checker:   checker,
		actionLog: actionLog,
		version:   version,
		commands: []Command{
			{Command: "start", Description: "CmdStartDesc"},
			{Command: "help", Description: "CmdHelpDesc"},
			{Command: "list", Description: "CmdListDesc"},
			{Command: "filter", Description: "CmdFilterDesc"},
			{Command: "stats", Description: "CmdStatsDesc"},
			{Command: "export", Description: "CmdExportDesc"},
			{Command: "version", Description: "CmdVersionDesc"},
		},
		sessions: make(map[int64]*session),
	}, nil
}

// getLocalizer builds a localizer for the user's language with the
// configured default as fallback.
func (h *Handler) getLocalizer(user *telego.User) *i18n.Localizer {
	lang := locales.GetDefaultLanguageTag().String()
	if user != nil && user.LanguageCode != "" {
		return locales.NewLocalizer(user.LanguageCode, lang)
	}
	return locales.NewLocalizer(lang)
}

// locMsg is a shorthand for template-free localized messages.
func locMsg(localizer *i18n.Localizer, key string) string {
	return locales.GetMessage(localizer, key, nil, nil)
}

// getSession returns the moderator's session, creating it on first
// use.
func (h *Handler) getSession(moderatorID, chatID int64) *session {
	h.sessionsMutex.Lock()
	defer h.sessionsMutex.Unlock()
	s, ok := h.sessions[moderatorID]
	if !ok {
		s = &session{chatID: chatID, period: models.PeriodWeek}
		h.sessions[moderatorID] = s
	}
	s.chatID = chatID
	return s
}

// setupCommands registers the command menu with Telegram.
func (h *Handler) setupCommands(ctx context.Context, localizer *i18n.Localizer) error {
	commands := make([]telego.BotCommand, 0, len(h.commands))
	for _, cmd := range h.commands {
		commands = append(commands, telego.BotCommand{
			Command:     cmd.Command,
			Description: locales.GetMessage(localizer, cmd.Description, nil, nil),
		})
	}
	return h.bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: commands})
}

// sendText sends a plain text message to the chat.
func (h *Handler) sendText(ctx context.Context, chatID int64, text string) error {
	_, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
	if err != nil {
		log.Printf("[BotUI Chat:%d] Failed to send message: %v", chatID, err)
	}
	return err
}

// recordActivity updates the moderator profile and writes an action
// entry. Logging failures never interrupt the console flow.
func (h *Handler) recordActivity(ctx context.Context, user *telego.User, action string, details map[string]interface{}) {
	if user == nil {
		return
	}
	if err := h.actionLog.UpdateModerator(ctx, user.ID, user.Username, user.FirstName, user.LastName, action); err != nil {
		log.Printf("[BotUI User:%d] Failed to update moderator record: %v", user.ID, err)
	}
	if err := h.actionLog.LogModeratorAction(user.ID, action, details); err != nil {
		log.Printf("[BotUI User:%d] Failed to log action %s: %v", user.ID, action, err)
	}
}

// answerCallbackQuery is a helper to answer callback queries.
func (h *Handler) answerCallbackQuery(ctx context.Context, queryID string, text string, showAlert bool) error {
	err := h.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       showAlert,
	})
	if err != nil {
		log.Printf("Error answering callback query %s: %v", queryID, err)
	}
	return err
}
