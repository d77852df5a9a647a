package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"admod-bot/internal/locales"
	"admod-bot/internal/moderapi"
	"admod-bot/internal/models"
	"admod-bot/internal/observe"
	"admod-bot/internal/store"
)

// ReasonOther is the reserved reasons entry that promotes the custom
// reason into the decision payload. The value itself is never
// localised; only its display label is.
const ReasonOther = "Другое"

// RejectionReasons is the catalogue offered in the reject dialog. The
// labels are sent to the server verbatim.
var RejectionReasons = []string{
	"Запрещённый товар",
	"Неверная категория",
	"Некорректное описание",
	"Проблемы с фото",
	"Подозрение на мошенничество",
	ReasonOther,
}

// ActionKind identifies the moderation action currently in flight.
type ActionKind string

const (
	ActionNone     ActionKind = ""
	ActionApprove  ActionKind = "approve"
	ActionReject   ActionKind = "reject"
	ActionRevision ActionKind = "revision"
)

// AlertType distinguishes success and error alerts.
type AlertType string

const (
	AlertSuccess AlertType = "success"
	AlertError   AlertType = "error"
)

// Alert is a transient moderator-facing notification.
type Alert struct {
	Type    AlertType
	Message string
}

// Navigator abstracts the route layer: rebinding the detail view to
// another ad and returning to the list.
type Navigator interface {
	NavigateToAd(id string)
	NavigateToList()
}

// Alert visibility schedule: shown on the next frame, hidden after
// three seconds, cleared once the fade-out ends.
const (
	alertShowDelay  = 16 * time.Millisecond
	alertVisibleFor = 3000 * time.Millisecond
	alertFadeOut    = 300 * time.Millisecond
)

// AdDetailController is the view-model of the single-ad page: the
// reject-reason draft, the action pipeline, alert lifecycle, keyboard
// shortcuts and neighbour navigation. All state is local to the
// controller; ads themselves live in the store.
type AdDetailController struct {
	mu  sync.Mutex
	ads *store.AdsStore
	nav Navigator
	clk clock.Clock
	hub observe.Hub

	id               string
	selectedReasons  []string
	customReason     string
	isNavigating     bool
	isInitialized    bool
	rejectDialogOpen bool
	actionLoading    ActionKind

	alert        *Alert
	alertVisible bool
	showTimer    *clock.Timer
	hideTimer    *clock.Timer
	clearTimer   *clock.Timer
	closed       bool
}

// NewAdDetailController creates a controller bound to the shared ads
// store. nav may be nil when the caller handles navigation itself.
func NewAdDetailController(ads *store.AdsStore, nav Navigator, clk clock.Clock) *AdDetailController {
	if clk == nil {
		clk = clock.New()
	}
	return &AdDetailController{
		ads: ads,
		nav: nav,
		clk: clk,
	}
}

// Subscribe registers fn to run after every committed state change.
func (c *AdDetailController) Subscribe(fn func()) observe.Unsubscribe {
	return c.hub.Subscribe(fn)
}

// Init binds the controller to an ad id, resetting all drafts. If the
// ad is already on the loaded page it is bound synchronously;
// otherwise it is fetched, and the controller is marked initialised on
// completion regardless of the outcome.
func (c *AdDetailController) Init(ctx context.Context, id string) {
	c.mu.Lock()
	c.id = id
	c.selectedReasons = nil
	c.customReason = ""
	c.rejectDialogOpen = false
	c.actionLoading = ActionNone
	c.isInitialized = false
	c.mu.Unlock()
	c.hub.Publish()

	if !c.ads.BindCurrentAd(id) {
		_ = c.ads.FetchAdByID(ctx, id)
	}

	c.mu.Lock()
	c.isInitialized = true
	c.mu.Unlock()
	c.hub.Publish()
}

// Close cancels pending alert timers. Required on teardown to avoid
// writes after the view is gone.
func (c *AdDetailController) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopAlertTimersLocked()
	c.mu.Unlock()
}

// HandleApprove runs the approve pipeline for the bound ad.
func (c *AdDetailController) HandleApprove(ctx context.Context) {
	c.mu.Lock()
	if c.actionLoading != ActionNone {
		c.mu.Unlock()
		return
	}
	id := c.id
	c.actionLoading = ActionApprove
	c.mu.Unlock()
	c.hub.Publish()

	err := c.ads.ApproveAd(ctx, id)
	c.finishAction(err, "MsgApproveError")
}

// HandleRejectSubmit runs the reject pipeline with the composed
// reason. A disabled submit (no reasons, or the sentinel without a
// custom reason) short-circuits without a request.
func (c *AdDetailController) HandleRejectSubmit(ctx context.Context) {
	c.mu.Lock()
	if c.actionLoading != ActionNone || c.isSubmitDisabledLocked() {
		c.mu.Unlock()
		return
	}
	id := c.id
	reason, custom := composeReason(c.selectedReasons, c.customReason)
	c.actionLoading = ActionReject
	c.mu.Unlock()
	c.hub.Publish()

	err := c.ads.RejectAd(ctx, id, reason, custom)
	c.finishAction(err, "MsgRejectError")
}

// HandleReturnForRevision runs the request-changes pipeline with the
// composed reason.
func (c *AdDetailController) HandleReturnForRevision(ctx context.Context) {
	c.mu.Lock()
	if c.actionLoading != ActionNone || c.isSubmitDisabledLocked() {
		c.mu.Unlock()
		return
	}
	id := c.id
	reason, custom := composeReason(c.selectedReasons, c.customReason)
	c.actionLoading = ActionRevision
	c.mu.Unlock()
	c.hub.Publish()

	err := c.ads.RequestChanges(ctx, id, reason, custom)
	c.finishAction(err, "MsgRevisionError")
}

// finishAction closes the pipeline: clears the in-flight marker,
// clears drafts on success, and emits the matching alert. Busy errors
// are dropped silently.
func (c *AdDetailController) finishAction(err error, defaultMsgID string) {
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	c.mu.Lock()
	c.actionLoading = ActionNone
	switch {
	case err == nil:
		c.selectedReasons = nil
		c.customReason = ""
		c.rejectDialogOpen = false
		c.setAlertLocked(AlertSuccess, locales.GetMessage(localizer, "MsgStatusChanged", nil, nil))
	case errors.Is(err, store.ErrBusy):
		// Concurrent action on the same ad; dropped.
	case store.IsAlreadyInStatus(err):
		c.setAlertLocked(AlertError, locales.GetMessage(localizer, "MsgAlreadyInStatus", nil, nil))
	default:
		if msg, ok := moderapi.IsValidation(err); ok {
			c.setAlertLocked(AlertError, msg)
		} else {
			c.setAlertLocked(AlertError, locales.GetMessage(localizer, defaultMsgID, nil, nil))
		}
	}
	c.mu.Unlock()
	c.hub.Publish()
}

// composeReason builds the decision payload fields. When the sentinel
// is selected and a trimmed custom reason exists, the custom text is
// carried in both fields, mirroring the server contract as observed.
func composeReason(selected []string, custom string) (reason, customReason string) {
	trimmed := strings.TrimSpace(custom)
	if containsReason(selected, ReasonOther) && trimmed != "" {
		return trimmed, trimmed
	}
	return strings.Join(selected, ", "), trimmed
}

func containsReason(selected []string, reason string) bool {
	for _, r := range selected {
		if r == reason {
			return true
		}
	}
	return false
}

// HandleReasonChange ticks or unticks a rejection reason, preserving
// selection order.
func (c *AdDetailController) HandleReasonChange(reason string, checked bool) {
	c.mu.Lock()
	if checked {
		if !containsReason(c.selectedReasons, reason) {
			c.selectedReasons = append(c.selectedReasons, reason)
		}
	} else {
		kept := c.selectedReasons[:0]
		for _, r := range c.selectedReasons {
			if r != reason {
				kept = append(kept, r)
			}
		}
		c.selectedReasons = kept
	}
	c.mu.Unlock()
	c.hub.Publish()
}

// SetCustomReason updates the free-text reason draft.
func (c *AdDetailController) SetCustomReason(text string) {
	c.mu.Lock()
	c.customReason = text
	c.mu.Unlock()
	c.hub.Publish()
}

// SetRejectDialogOpen opens or closes the reject dialog.
func (c *AdDetailController) SetRejectDialogOpen(open bool) {
	c.mu.Lock()
	c.rejectDialogOpen = open
	c.mu.Unlock()
	c.hub.Publish()
}

// OpenRejectDialog opens the dialog unless the ad is already rejected,
// in which case an error alert is emitted instead.
func (c *AdDetailController) OpenRejectDialog() {
	ad := c.ads.CurrentAd()
	if ad != nil && ad.Status == models.StatusRejected {
		localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())
		c.mu.Lock()
		c.setAlertLocked(AlertError, locales.GetMessage(localizer, "MsgAlreadyInStatus", nil, nil))
		c.mu.Unlock()
		c.hub.Publish()
		return
	}
	c.SetRejectDialogOpen(true)
}

// HandlePopoverClose discards the reject-reason draft.
func (c *AdDetailController) HandlePopoverClose() {
	c.mu.Lock()
	c.selectedReasons = nil
	c.customReason = ""
	c.mu.Unlock()
	c.hub.Publish()
}

// HandleBackToList navigates back to the list page.
func (c *AdDetailController) HandleBackToList() {
	if c.nav != nil {
		c.nav.NavigateToList()
	}
}

// HandlePrevious rebinds to the previous neighbour, falling through to
// the last item of the previous page at the boundary. Re-entrant calls
// are dropped while a navigation is in progress.
func (c *AdDetailController) HandlePrevious(ctx context.Context) {
	if !c.beginNavigation() {
		return
	}
	defer c.endNavigation()

	if id, ok := c.ads.GetPreviousAdID(); ok {
		c.rebind(id)
		return
	}
	if c.ads.Pagination().CurrentPage <= 1 {
		return
	}
	ok, err := c.ads.LoadPreviousPage(ctx)
	if err != nil || !ok {
		return
	}
	ads := c.ads.Ads()
	c.rebind(ads[len(ads)-1].ID)
}

// HandleNext rebinds to the next neighbour, falling through to the
// first item of the next page at the boundary.
func (c *AdDetailController) HandleNext(ctx context.Context) {
	if !c.beginNavigation() {
		return
	}
	defer c.endNavigation()

	if id, ok := c.ads.GetNextAdID(); ok {
		c.rebind(id)
		return
	}
	p := c.ads.Pagination()
	if p.CurrentPage >= p.TotalPages {
		return
	}
	ok, err := c.ads.LoadNextPage(ctx)
	if err != nil || !ok {
		return
	}
	ads := c.ads.Ads()
	c.rebind(ads[0].ID)
}

func (c *AdDetailController) beginNavigation() bool {
	c.mu.Lock()
	if c.isNavigating {
		c.mu.Unlock()
		return false
	}
	c.isNavigating = true
	c.mu.Unlock()
	c.hub.Publish()
	return true
}

func (c *AdDetailController) endNavigation() {
	c.mu.Lock()
	c.isNavigating = false
	c.mu.Unlock()
	c.hub.Publish()
}

func (c *AdDetailController) rebind(id string) {
	c.ads.BindCurrentAd(id)
	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
	c.hub.Publish()
	if c.nav != nil {
		c.nav.NavigateToAd(id)
	}
}

// CanGoPrevious reports whether a previous neighbour exists, on this
// page or an earlier one.
func (c *AdDetailController) CanGoPrevious() bool {
	if _, ok := c.ads.GetPreviousAdID(); ok {
		return true
	}
	return c.ads.Pagination().CurrentPage > 1
}

// CanGoNext reports whether a next neighbour exists, on this page or a
// later one.
func (c *AdDetailController) CanGoNext() bool {
	if _, ok := c.ads.GetNextAdID(); ok {
		return true
	}
	p := c.ads.Pagination()
	return p.CurrentPage < p.TotalPages
}

// HandleKey dispatches a keyboard shortcut. Shortcuts are inactive
// while a text input has focus. Returns true when the key was handled
// and native behaviour should be suppressed.
func (c *AdDetailController) HandleKey(ctx context.Context, key string, inputFocused bool) bool {
	if inputFocused {
		return false
	}
	switch key {
	case "a":
		c.HandleApprove(ctx)
		return true
	case "d":
		c.OpenRejectDialog()
		return true
	case "ArrowRight":
		c.HandleNext(ctx)
		return true
	case "ArrowLeft":
		c.HandlePrevious(ctx)
		return true
	}
	return false
}

// setAlertLocked replaces the current alert and schedules its
// visibility: on at the next frame, off after three seconds, cleared
// after the fade-out. Pending timers of an earlier alert are
// cancelled first.
func (c *AdDetailController) setAlertLocked(typ AlertType, message string) {
	c.stopAlertTimersLocked()
	c.alert = &Alert{Type: typ, Message: message}
	c.alertVisible = false

	c.showTimer = c.clk.AfterFunc(alertShowDelay, func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.alertVisible = true
		c.mu.Unlock()
		c.hub.Publish()
	})
	c.hideTimer = c.clk.AfterFunc(alertShowDelay+alertVisibleFor, func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.alertVisible = false
		c.mu.Unlock()
		c.hub.Publish()
	})
	c.clearTimer = c.clk.AfterFunc(alertShowDelay+alertVisibleFor+alertFadeOut, func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.alert = nil
		c.mu.Unlock()
		c.hub.Publish()
	})
}

func (c *AdDetailController) stopAlertTimersLocked() {
	for _, t := range []*clock.Timer{c.showTimer, c.hideTimer, c.clearTimer} {
		if t != nil {
			t.Stop()
		}
	}
	c.showTimer, c.hideTimer, c.clearTimer = nil, nil, nil
}

// ID returns the bound ad id.
func (c *AdDetailController) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// SelectedReasons returns a snapshot of the ticked reasons in
// selection order.
func (c *AdDetailController) SelectedReasons() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.selectedReasons...)
}

// CustomReason returns the free-text reason draft.
func (c *AdDetailController) CustomReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.customReason
}

// IsNavigating reports whether a neighbour navigation is in progress.
func (c *AdDetailController) IsNavigating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isNavigating
}

// IsInitialized reports whether Init has completed for the bound id.
func (c *AdDetailController) IsInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isInitialized
}

// IsRejectDialogOpen reports whether the reject dialog is open.
func (c *AdDetailController) IsRejectDialogOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rejectDialogOpen
}

// ActionLoading returns the action currently in flight, or ActionNone.
func (c *AdDetailController) ActionLoading() ActionKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.actionLoading
}

// Alert returns a snapshot of the current alert, or nil.
func (c *AdDetailController) Alert() *Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.alert == nil {
		return nil
	}
	copied := *c.alert
	return &copied
}

// IsAlertVisible reports whether the alert is in its visible window.
func (c *AdDetailController) IsAlertVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alertVisible
}

// IsSubmitDisabled reports whether the reject dialog's submit is
// disabled: no reasons selected, or the sentinel without a custom
// reason.
func (c *AdDetailController) IsSubmitDisabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isSubmitDisabledLocked()
}

func (c *AdDetailController) isSubmitDisabledLocked() bool {
	if len(c.selectedReasons) == 0 {
		return true
	}
	return containsReason(c.selectedReasons, ReasonOther) && strings.TrimSpace(c.customReason) == ""
}
