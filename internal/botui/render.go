package botui

import (
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"admod-bot/internal/controller"
	"admod-bot/internal/locales"
	"admod-bot/internal/models"
	"admod-bot/pkg/utils"
)

const maxHistoryEntries = 5

func statusLabel(localizer *i18n.Localizer, status models.AdStatus) string {
	key := map[models.AdStatus]string{
		models.StatusPending:  "StatusPending",
		models.StatusApproved: "StatusApproved",
		models.StatusRejected: "StatusRejected",
		models.StatusDraft:    "StatusDraft",
	}[status]
	if key == "" {
		return string(status)
	}
	return locales.GetMessage(localizer, key, nil, nil)
}

func priorityLabel(localizer *i18n.Localizer, priority models.AdPriority) string {
	if priority == models.PriorityUrgent {
		return locales.GetMessage(localizer, "PriorityUrgent", nil, nil)
	}
	return locales.GetMessage(localizer, "PriorityNormal", nil, nil)
}

func periodLabel(localizer *i18n.Localizer, period models.StatsPeriod) string {
	key := map[models.StatsPeriod]string{
		models.PeriodToday: "PeriodToday",
		models.PeriodWeek:  "PeriodWeek",
		models.PeriodMonth: "PeriodMonth",
	}[period]
	if key == "" {
		return string(period)
	}
	return locales.GetMessage(localizer, key, nil, nil)
}

// formatPrice renders the price as the server sent it, in roubles.
func formatPrice(price int64) string {
	return fmt.Sprintf("%d ₽", price)
}

// buildListText renders the list page: header, totals and one numbered
// line per ad. Returned text is MarkdownV2-escaped.
func (h *Handler) buildListText(localizer *i18n.Localizer) string {
	ads := h.ads.Ads()
	p := h.ads.Pagination()

	var b strings.Builder
	b.WriteString("*" + utils.EscapeMarkdownV2(locales.GetMessage(localizer, "MsgListHeader", nil, nil)) + "*\n")
	if len(ads) == 0 {
		b.WriteString(utils.EscapeMarkdownV2(h.list.EmptyStateMessage()))
		return b.String()
	}
	// A failed refetch keeps the cached page; surface the error above it.
	if errMsg := h.ads.Error(); errMsg != "" {
		b.WriteString(utils.EscapeMarkdownV2("⚠️ "+errMsg) + "\n")
	}

	b.WriteString(utils.EscapeMarkdownV2(locales.GetMessage(localizer, "MsgListFound", map[string]interface{}{
		"Total": p.TotalItems,
	}, nil)) + "\n")
	if search := h.ads.Filters().Search; search != "" {
		b.WriteString(utils.EscapeMarkdownV2(locales.GetMessage(localizer, "MsgListFilter", map[string]interface{}{
			"Search": search,
		}, nil)) + "\n")
	}
	b.WriteString("\n")

	for i, ad := range ads {
		line := fmt.Sprintf("%d. %s | %s | %s", i+1, ad.Title, formatPrice(ad.Price), statusLabel(localizer, ad.Status))
		if ad.Priority == models.PriorityUrgent {
			line = "🔥 " + line
		}
		b.WriteString(utils.EscapeMarkdownV2(line) + "\n")
	}

	if p.TotalPages > 1 {
		b.WriteString("\n" + utils.EscapeMarkdownV2(locales.GetMessage(localizer, "MsgListPage", map[string]interface{}{
			"Page":  p.CurrentPage,
			"Total": p.TotalPages,
		}, nil)))
	}
	return b.String()
}

// buildListKeyboard builds number buttons opening each ad plus a pager
// row when more than one page exists.
func (h *Handler) buildListKeyboard(localizer *i18n.Localizer) *telego.InlineKeyboardMarkup {
	ads := h.ads.Ads()
	p := h.ads.Pagination()

	var rows [][]telego.InlineKeyboardButton
	row := []telego.InlineKeyboardButton{}
	for i, ad := range ads {
		row = append(row, tu.InlineKeyboardButton(fmt.Sprintf("%d", i+1)).
			WithCallbackData("ad:"+ad.ID+":open"))
		if len(row) == 5 {
			rows = append(rows, row)
			row = []telego.InlineKeyboardButton{}
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	if h.list.ShowPagination() {
		navRow := []telego.InlineKeyboardButton{}
		if p.CurrentPage > 1 {
			navRow = append(navRow, tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnPrevious", nil, nil)).
				WithCallbackData(fmt.Sprintf("list:page:%d", p.CurrentPage-1)))
		}
		if p.CurrentPage < p.TotalPages {
			navRow = append(navRow, tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnNext", nil, nil)).
				WithCallbackData(fmt.Sprintf("list:page:%d", p.CurrentPage+1)))
		}
		if len(navRow) > 0 {
			rows = append(rows, navRow)
		}
	}
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buildDetailText renders the ad card. Returned text is
// MarkdownV2-escaped; the title is bold.
func (h *Handler) buildDetailText(localizer *i18n.Localizer, ad *models.Ad) string {
	var b strings.Builder
	b.WriteString("*" + utils.EscapeMarkdownV2(ad.Title) + "*\n\n")
	if ad.Description != "" {
		b.WriteString(utils.EscapeMarkdownV2(ad.Description) + "\n\n")
	}

	writeField := func(labelKey, value string) {
		label := locales.GetMessage(localizer, labelKey, nil, nil)
		b.WriteString(utils.EscapeMarkdownV2(fmt.Sprintf("%s: %s", label, value)) + "\n")
	}

	writeField("LblPrice", formatPrice(ad.Price))
	writeField("LblCategory", ad.Category)
	writeField("LblSeller", fmt.Sprintf("%s (%s: %.1f)", ad.Seller.Name,
		locales.GetMessage(localizer, "LblRating", nil, nil), ad.Seller.Rating))
	writeField("LblStatus", statusLabel(localizer, ad.Status))
	writeField("LblPriority", priorityLabel(localizer, ad.Priority))
	writeField("LblCreated", ad.CreatedAt.Format("02.01.2006 15:04"))

	for key, value := range ad.Characteristics {
		b.WriteString(utils.EscapeMarkdownV2(fmt.Sprintf("%s: %s", key, value)) + "\n")
	}

	b.WriteString("\n" + utils.EscapeMarkdownV2(locales.GetMessage(localizer, "LblHistory", nil, nil)) + "\n")
	if len(ad.ModerationHistory) == 0 {
		b.WriteString(utils.EscapeMarkdownV2(locales.GetMessage(localizer, "LblNoHistory", nil, nil)) + "\n")
	} else {
		history := ad.ModerationHistory
		if len(history) > maxHistoryEntries {
			history = history[len(history)-maxHistoryEntries:]
		}
		for _, rec := range history {
			line := fmt.Sprintf("%s — %s %s", rec.Timestamp.Format("02.01.2006"), rec.ModeratorName, rec.Action)
			if rec.Comment != "" {
				line += ": " + rec.Comment
			}
			b.WriteString(utils.EscapeMarkdownV2(line) + "\n")
		}
	}

	if alert := h.detail.Alert(); alert != nil {
		prefix := "✅"
		if alert.Type == controller.AlertError {
			prefix = "⚠️"
		}
		b.WriteString("\n" + utils.EscapeMarkdownV2(prefix+" "+alert.Message) + "\n")
	}
	return b.String()
}

// buildDetailKeyboard builds the decision row, the neighbour
// navigation row and the back button for an ad card.
func (h *Handler) buildDetailKeyboard(localizer *i18n.Localizer, adID string) *telego.InlineKeyboardMarkup {
	rows := [][]telego.InlineKeyboardButton{
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnApprove", nil, nil)).
				WithCallbackData("ad:"+adID+":approve"),
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnReject", nil, nil)).
				WithCallbackData("ad:"+adID+":reject"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnRevision", nil, nil)).
				WithCallbackData("ad:" + adID + ":revision"),
		),
	}

	navRow := []telego.InlineKeyboardButton{}
	if h.detail.CanGoPrevious() {
		navRow = append(navRow, tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnPrevious", nil, nil)).
			WithCallbackData("ad:"+adID+":prev"))
	}
	if h.detail.CanGoNext() {
		navRow = append(navRow, tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnNext", nil, nil)).
			WithCallbackData("ad:"+adID+":next"))
	}
	if len(navRow) > 0 {
		rows = append(rows, navRow)
	}

	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnBackToList", nil, nil)).
			WithCallbackData("ad:"+adID+":back"),
	))
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buildRejectKeyboard renders the reason checkboxes with their current
// ticked state plus submit and cancel.
func (h *Handler) buildRejectKeyboard(localizer *i18n.Localizer) *telego.InlineKeyboardMarkup {
	selected := h.detail.SelectedReasons()
	isSelected := func(reason string) bool {
		for _, r := range selected {
			if r == reason {
				return true
			}
		}
		return false
	}

	var rows [][]telego.InlineKeyboardButton
	for i, reason := range controller.RejectionReasons {
		mark := "☐"
		if isSelected(reason) {
			mark = "☑"
		}
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(mark+" "+reason).
				WithCallbackData(fmt.Sprintf("rej:toggle:%d", i)),
		))
	}
	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnSubmit", nil, nil)).
			WithCallbackData("rej:submit"),
		tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnCancel", nil, nil)).
			WithCallbackData("rej:cancel"),
	))
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buildRejectDialogText renders the dialog prompt with the current
// custom reason draft when the sentinel is ticked.
func (h *Handler) buildRejectDialogText(localizer *i18n.Localizer) string {
	var b strings.Builder
	b.WriteString(utils.EscapeMarkdownV2(locales.GetMessage(localizer, "MsgRejectDialogTitle", nil, nil)))

	selected := h.detail.SelectedReasons()
	for _, r := range selected {
		if r == controller.ReasonOther {
			b.WriteString("\n\n" + utils.EscapeMarkdownV2(locales.GetMessage(localizer, "MsgCustomReasonPrompt", nil, nil)))
			if custom := h.detail.CustomReason(); custom != "" {
				b.WriteString("\n" + utils.EscapeMarkdownV2("> "+custom))
			}
			break
		}
	}
	return b.String()
}

// buildStatsText renders the summary and the three charts as text.
func (h *Handler) buildStatsText(localizer *i18n.Localizer, period models.StatsPeriod) string {
	var b strings.Builder
	b.WriteString("*" + utils.EscapeMarkdownV2(locales.GetMessage(localizer, "MsgStatsHeader", map[string]interface{}{
		"Period": periodLabel(localizer, period),
	}, nil)) + "*\n\n")

	if errMsg := h.stats.Error(); errMsg != "" {
		b.WriteString(utils.EscapeMarkdownV2(errMsg))
		return b.String()
	}

	summary := h.stats.Summary()
	if summary != nil {
		writeLine := func(labelKey, value string) {
			label := locales.GetMessage(localizer, labelKey, nil, nil)
			b.WriteString(utils.EscapeMarkdownV2(fmt.Sprintf("%s: %s", label, value)) + "\n")
		}
		writeLine("LblTotalReviewed", fmt.Sprintf("%d", summary.TotalReviewed))
		writeLine("LblReviewedToday", fmt.Sprintf("%d", summary.TotalReviewedToday))
		writeLine("LblReviewedWeek", fmt.Sprintf("%d", summary.TotalReviewedThisWeek))
		writeLine("LblReviewedMonth", fmt.Sprintf("%d", summary.TotalReviewedThisMonth))
		writeLine("LblApprovedShare", fmt.Sprintf("%.1f%%", summary.ApprovedPercentage))
		writeLine("LblRejectedShare", fmt.Sprintf("%.1f%%", summary.RejectedPercentage))
		writeLine("LblChangesShare", fmt.Sprintf("%.1f%%", summary.RequestChangesPercentage))
		writeLine("LblAvgReviewTime", fmt.Sprintf("%.1f", summary.AverageReviewTime))
	}

	if decisions := h.stats.DecisionsChart(); decisions != nil && len(decisions.Datasets) > 0 {
		b.WriteString("\n" + utils.EscapeMarkdownV2(decisions.Datasets[0].Label) + "\n")
		for i, label := range decisions.Labels {
			if i < len(decisions.Datasets[0].Data) {
				b.WriteString(utils.EscapeMarkdownV2(fmt.Sprintf("%s: %d", label, decisions.Datasets[0].Data[i])) + "\n")
			}
		}
	}

	if categories := h.stats.CategoriesChart(); categories != nil && len(categories.Datasets) > 0 {
		b.WriteString("\n" + utils.EscapeMarkdownV2(categories.Datasets[0].Label) + "\n")
		for i, label := range categories.Labels {
			if i < len(categories.Datasets[0].Data) {
				b.WriteString(utils.EscapeMarkdownV2(fmt.Sprintf("%s: %d", label, categories.Datasets[0].Data[i])) + "\n")
			}
		}
	}
	return b.String()
}
