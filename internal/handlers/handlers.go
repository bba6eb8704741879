// Package handlers turns Telegram updates into store operations and renders
// store state back as chat messages.
package handlers

import (
	"errors"
	"strings"
	"sync"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/service"
	"fintrack/internal/store"
	"fintrack/internal/validation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Sender is the part of the Telegram client the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// UpdateRecorder counts handled updates by kind.
type UpdateRecorder interface {
	UpdateHandled(kind string)
}

type nopRecorder struct{}

func (nopRecorder) UpdateHandled(string) {}

// Deps are the collaborators shared by the handlers.
type Deps struct {
	Bot     Sender
	Store   *store.Root
	Config  *config.Config
	Log     zerolog.Logger
	Metrics UpdateRecorder
	// Now defaults to time.Now.
	Now func() time.Time
	// RateLimit is the sustained number of updates per second accepted from
	// one user; Burst defaults to 5.
	RateLimit rate.Limit
	Burst     int
}

func (d Deps) withDefaults() Deps {
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.RateLimit == 0 {
		d.RateLimit = rate.Limit(2)
	}
	if d.Burst == 0 {
		d.Burst = 5
	}
	d.Log = d.Log.With().Str("component", "bot").Logger()
	return d
}

// currency returns the display currency: the profile's, then the configured one.
func (d Deps) currency() string {
	if u := d.Store.GetState().Auth.User; u != nil && u.Currency != "" {
		return u.Currency
	}
	if d.Config.Currency != "" {
		return d.Config.Currency
	}
	return "USD"
}

func (d Deps) send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, err := d.Bot.Send(c)
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to send message")
	}
	return msg, err
}

func (d Deps) request(c tgbotapi.Chattable) {
	if _, err := d.Bot.Request(c); err != nil {
		d.Log.Warn().Err(err).Msg("telegram request failed")
	}
}

func (d Deps) sendText(chatID int64, text string) {
	_, _ = d.send(tgbotapi.NewMessage(chatID, text))
}

func (d Deps) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, _ = d.send(msg)
}

// describe renders an operation error for a chat reply.
func describe(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		if msgs := validation.Messages(err); len(msgs) > 0 {
			return strings.Join(msgs, "\n")
		}
		return err.Error()
	case errors.Is(err, store.ErrTimeout):
		return "The server took too long to answer, try again."
	case errors.Is(err, service.ErrNotFound):
		return "Not found."
	default:
		return err.Error()
	}
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// limiter keeps one token bucket per user.
type limiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[int64]*rate.Limiter
}

func newLimiter(limit rate.Limit, burst int) *limiter {
	return &limiter{limit: limit, burst: burst, buckets: make(map[int64]*rate.Limiter)}
}

func (l *limiter) allow(userID int64) bool {
	l.mu.Lock()
	b, ok := l.buckets[userID]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[userID] = b
	}
	l.mu.Unlock()
	return b.Allow()
}
