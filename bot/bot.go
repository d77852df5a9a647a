// Package bot wraps the telego update loop: long polling, global rate
// limiting, panic recovery and routing to the console handlers.
package bot

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	"go.uber.org/ratelimit"

	"admod-bot/internal/botui"
	"admod-bot/internal/locales"
	"admod-bot/pkg/telegoapi"
)

// processTimeout caps the handling time of a single update.
const processTimeout = 30 * time.Second

// Bot reads updates from the channel and dispatches them to the
// console handler.
type Bot struct {
	bot         telegoapi.BotAPI
	updatesChan <-chan telego.Update
	handler     *botui.Handler
	debug       bool
	ratelimiter ratelimit.Limiter
}

// Deps holds the dependencies required by the Bot.
type Deps struct {
	Bot         telegoapi.BotAPI
	UpdatesChan <-chan telego.Update
	Handler     *botui.Handler
	Debug       bool
}

// New creates a new Bot instance from its dependencies.
func New(deps Deps) (*Bot, error) {
	if deps.Bot == nil {
		return nil, fmt.Errorf("telego bot (BotAPI) instance cannot be nil")
	}
	if deps.Handler == nil {
		return nil, fmt.Errorf("console handler cannot be nil")
	}
	if deps.UpdatesChan == nil {
		return nil, fmt.Errorf("updates channel cannot be nil")
	}
	return &Bot{
		bot:         deps.Bot,
		updatesChan: deps.UpdatesChan,
		handler:     deps.Handler,
		debug:       deps.Debug,
		ratelimiter: ratelimit.New(20),
	}, nil
}

// processUpdate routes one update to the console handler.
func (b *Bot) processUpdate(ctx context.Context, update telego.Update) {
	b.ratelimiter.Take()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC recovered in processUpdate: %v\n%s", r, debug.Stack())
			sentry.CurrentHub().Recover(r)
			sentry.Flush(time.Second * 2)
		}
	}()

	processingCtx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		message := *update.Message
		if message.From == nil {
			log.Printf("Ignoring message %d from chat %d without sender", message.MessageID, message.Chat.ID)
			return
		}
		if err := b.handler.HandleMessage(processingCtx, message); err != nil {
			log.Printf("[Message User:%d Msg:%d] Handler error: %v", message.From.ID, message.MessageID, err)
			sentry.CaptureException(fmt.Errorf("message handler error (user %d): %w", message.From.ID, err))
		}

	case update.CallbackQuery != nil:
		b.handleCallbackQuery(processingCtx, *update.CallbackQuery)

	default:
		if b.debug {
			log.Printf("Ignoring unhandled update type: %+v", update)
		}
	}
}

// handleCallbackQuery processes an incoming callback query.
func (b *Bot) handleCallbackQuery(ctx context.Context, query telego.CallbackQuery) {
	logPrefix := fmt.Sprintf("[Callback User:%d QueryID:%s]", query.From.ID, query.ID)
	if b.debug {
		log.Printf("%s Received callback query with data: %q", logPrefix, query.Data)
	}
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	processed, err := b.handler.HandleCallbackQuery(ctx, query)
	if err != nil {
		log.Printf("%s Callback handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s callback handler error: %w", logPrefix, err))
		return
	}
	if processed {
		return
	}

	log.Printf("%s Callback query not handled", logPrefix)
	defaultAnswer := locales.GetMessage(localizer, "MsgCallbackNotHandled", nil, nil)
	_ = b.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{CallbackQueryID: query.ID, Text: defaultAnswer, ShowAlert: true})
}

// Start begins the bot's update processing loop and blocks until the
// context is cancelled or the updates channel closes.
func (b *Bot) Start(ctx context.Context) {
	log.Println("Listening for updates...")

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			log.Println("Context done, stopping update processing...")
			wg.Wait()
			log.Println("All update processing finished.")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				log.Println("Updates channel closed.")
				wg.Wait()
				return
			}
			wg.Add(1)
			go func(up telego.Update) {
				defer wg.Done()
				b.processUpdate(ctx, up)
			}(update)
		}
	}
}
