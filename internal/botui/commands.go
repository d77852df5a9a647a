package botui

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"admod-bot/internal/locales"
	"admod-bot/internal/models"
	"admod-bot/internal/store"
)

// Moderator action names recorded in the audit log.
const (
	ActionCommandStart   = "command_start"
	ActionCommandHelp    = "command_help"
	ActionCommandList    = "command_list"
	ActionCommandFilter  = "command_filter"
	ActionCommandStats   = "command_stats"
	ActionCommandExport  = "command_export"
	ActionCommandVersion = "command_version"
)

// HandleStart handles the /start command: registers the command menu
// and sends the welcome message.
func (h *Handler) HandleStart(ctx context.Context, message telego.Message) error {
	localizer := h.getLocalizer(message.From)
	if err := h.setupCommands(ctx, localizer); err != nil {
		log.Printf("[Cmd:start User:%d] Failed to set up commands: %v", message.From.ID, err)
	}
	h.recordActivity(ctx, message.From, ActionCommandStart, map[string]interface{}{
		"chat_id": message.Chat.ID,
	})
	return h.sendText(ctx, message.Chat.ID, locales.GetMessage(localizer, "MsgStart", nil, nil))
}

// HandleHelp handles the /help command.
func (h *Handler) HandleHelp(ctx context.Context, message telego.Message) error {
	localizer := h.getLocalizer(message.From)

	var helpText strings.Builder
	helpText.WriteString(locales.GetMessage(localizer, "MsgHelpHeader", nil, nil) + "\n")
	for _, cmd := range h.commands {
		localizedDesc := locales.GetMessage(localizer, cmd.Description, nil, nil)
		helpText.WriteString(fmt.Sprintf("/%s - %s\n", cmd.Command, localizedDesc))
	}

	h.recordActivity(ctx, message.From, ActionCommandHelp, map[string]interface{}{
		"chat_id": message.Chat.ID,
	})
	return h.sendText(ctx, message.Chat.ID, helpText.String())
}

// HandleList handles the /list command: loads the first page with the
// current filters and renders the list message.
func (h *Handler) HandleList(ctx context.Context, message telego.Message) error {
	s := h.getSession(message.From.ID, message.Chat.ID)
	localizer := h.getLocalizer(message.From)

	if err := h.list.Init(ctx); err != nil {
		log.Printf("[Cmd:list User:%d] Fetch failed: %v", message.From.ID, err)
	}

	h.recordActivity(ctx, message.From, ActionCommandList, map[string]interface{}{
		"chat_id": message.Chat.ID,
	})
	return h.sendList(ctx, s, localizer)
}

// HandleFilter handles the /filter command: "/filter <text>" searches
// the list by text, "/filter reset" restores the defaults. Both reload
// from the first page.
func (h *Handler) HandleFilter(ctx context.Context, message telego.Message) error {
	s := h.getSession(message.From.ID, message.Chat.ID)
	localizer := h.getLocalizer(message.From)

	args := commandArgs(message.Text)
	if len(args) == 0 {
		return h.sendText(ctx, message.Chat.ID, locales.GetMessage(localizer, "MsgFilterUsage", nil, nil))
	}

	if len(args) == 1 && strings.EqualFold(args[0], "reset") {
		if err := h.list.ResetFilters(ctx); err != nil {
			log.Printf("[Cmd:filter User:%d] Reset failed: %v", message.From.ID, err)
		}
	} else {
		search := strings.Join(args, " ")
		if err := h.list.ApplyFilters(ctx, store.FilterUpdate{Search: &search}); err != nil {
			log.Printf("[Cmd:filter User:%d] Apply failed: %v", message.From.ID, err)
		}
	}

	h.recordActivity(ctx, message.From, ActionCommandFilter, map[string]interface{}{
		"chat_id": message.Chat.ID,
		"args":    strings.Join(args, " "),
	})
	return h.sendList(ctx, s, localizer)
}

// HandleStats handles the /stats command. An optional argument selects
// the period: today, week or month.
func (h *Handler) HandleStats(ctx context.Context, message telego.Message) error {
	s := h.getSession(message.From.ID, message.Chat.ID)
	localizer := h.getLocalizer(message.From)

	period := parsePeriod(commandArgs(message.Text), s.period)
	s.period = period

	if err := h.stats.FetchSummary(ctx, period); err != nil {
		log.Printf("[Cmd:stats User:%d] Summary fetch failed: %v", message.From.ID, err)
	}
	if err := h.stats.FetchCharts(ctx, period); err != nil {
		log.Printf("[Cmd:stats User:%d] Charts fetch failed: %v", message.From.ID, err)
	}

	h.recordActivity(ctx, message.From, ActionCommandStats, map[string]interface{}{
		"chat_id": message.Chat.ID,
		"period":  string(period),
	})

	text := h.buildStatsText(localizer, period)
	_, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(message.Chat.ID), text).
		WithParseMode(telego.ModeMarkdownV2))
	return err
}

// HandleExport handles the /export command: "/export csv|pdf
// [today|week|month]". The export is sent back as a document.
func (h *Handler) HandleExport(ctx context.Context, message telego.Message) error {
	s := h.getSession(message.From.ID, message.Chat.ID)
	localizer := h.getLocalizer(message.From)

	args := commandArgs(message.Text)
	format, ok := parseFormat(args)
	if !ok {
		return h.sendText(ctx, message.Chat.ID, locales.GetMessage(localizer, "MsgExportUsage", nil, nil))
	}
	period := parsePeriod(args, s.period)

	data, err := h.stats.ExportData(ctx, format, period)
	if err != nil {
		return h.sendText(ctx, message.Chat.ID, locales.GetMessage(localizer, "MsgExportError", nil, nil))
	}

	h.recordActivity(ctx, message.From, ActionCommandExport, map[string]interface{}{
		"chat_id": message.Chat.ID,
		"format":  string(format),
		"period":  string(period),
	})

	filename := fmt.Sprintf("stats_%s.%s", period, format)
	_, err = h.bot.SendDocument(ctx, &telego.SendDocumentParams{
		ChatID:   tu.ID(message.Chat.ID),
		Document: telego.InputFile{File: tu.NameReader(bytes.NewReader(data), filename)},
		Caption:  locales.GetMessage(localizer, "MsgExportReady", nil, nil),
	})
	return err
}

// HandleVersion handles the /version command.
func (h *Handler) HandleVersion(ctx context.Context, message telego.Message) error {
	localizer := h.getLocalizer(message.From)
	h.recordActivity(ctx, message.From, ActionCommandVersion, map[string]interface{}{
		"chat_id": message.Chat.ID,
	})
	return h.sendText(ctx, message.Chat.ID, locales.GetMessage(localizer, "MsgVersion", map[string]interface{}{
		"Version": h.version,
	}, nil))
}

// commandArgs returns the whitespace-split arguments after the command
// itself.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

func parsePeriod(args []string, fallback models.StatsPeriod) models.StatsPeriod {
	for _, arg := range args {
		switch models.StatsPeriod(strings.ToLower(arg)) {
		case models.PeriodToday:
			return models.PeriodToday
		case models.PeriodWeek:
			return models.PeriodWeek
		case models.PeriodMonth:
			return models.PeriodMonth
		}
	}
	if fallback == "" {
		return models.PeriodWeek
	}
	return fallback
}

func parseFormat(args []string) (models.ExportFormat, bool) {
	for _, arg := range args {
		switch models.ExportFormat(strings.ToLower(arg)) {
		case models.ExportCSV:
			return models.ExportCSV, true
		case models.ExportPDF:
			return models.ExportPDF, true
		}
	}
	return "", false
}
