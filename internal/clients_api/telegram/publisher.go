package telegram

// Package telegram sends rendered charts to a chat as photos
// Every send goes through a rate limiter, a circuit breaker and jittered retry,
// the same guard stack the market API clients use

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"sales-analysis/internal/config"
	"sales-analysis/internal/features/charts"
	logging "sales-analysis/internal/infra/log"
	"sales-analysis/internal/infra/retry"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Sender is the part of *tgbotapi.BotAPI the publisher needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Options struct {
	ChatID        int64
	RatePerSecond float64
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
}

// Publisher posts chart images to one chat.
type Publisher struct {
	sender         Sender
	chatID         int64
	rateLimiter    *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
	retry          retry.Options
}

func NewPublisher(sender Sender, opts Options) *Publisher {
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 1
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}

	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "TelegramPublisher",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			// a rejected photo says nothing about the API being down
			return err == nil || !retry.IsRetryable(classify(err))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.LogWarn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Publisher{
		sender:         sender,
		chatID:         opts.ChatID,
		rateLimiter:    rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		circuitBreaker: circuitBreaker,
		retry: retry.Options{
			MaxRetries: opts.MaxRetries,
			BaseDelay:  opts.BaseDelay,
			MaxDelay:   opts.MaxDelay,
			OnRetry: func(attempt int, err error, sleep time.Duration) {
				logging.LogWarn("Retrying chart upload",
					zap.Int("attempt", attempt),
					zap.Int64("sleep_ms", sleep.Milliseconds()),
					zap.Error(err))
			},
		},
	}
}

// NewFromConfig connects to the bot API. It returns nil when publishing is disabled.
func NewFromConfig(cfg config.TelegramConfig) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chatID, _ := cfg.ChatIDInt()

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return NewPublisher(bot, Options{
		ChatID:        chatID,
		RatePerSecond: cfg.RatePerSecond,
		MaxRetries:    cfg.MaxRetries,
	}), nil
}

// PublishChart uploads one PNG with caption.
func (p *Publisher) PublishChart(ctx context.Context, path, caption string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("chart file %s: %w", path, err)
	}

	startTime := time.Now()
	err := retry.Do(ctx, p.retry, func() error {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}

		_, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			photo := tgbotapi.NewPhoto(p.chatID, tgbotapi.FilePath(path))
			photo.Caption = caption
			return p.sender.Send(photo)
		})
		return classify(err)
	})
	if err != nil {
		logging.LogError("Failed to send chart", zap.String("chart", path), zap.Error(err))
		return err
	}

	logging.LogInfo("Chart sent",
		zap.String("chart", path),
		zap.Int64("chat_id", p.chatID),
		zap.Int64("duration_ms", time.Since(startTime).Milliseconds()))
	return nil
}

// PublishAll sends every successfully rendered chart, captioned with its title.
// Views that failed to render are skipped.
func (p *Publisher) PublishAll(ctx context.Context, results []charts.ViewResult) []charts.ViewResult {
	sent := make([]charts.ViewResult, 0, len(results))
	for _, res := range results {
		if res.Err != nil || res.Path == "" {
			continue
		}
		out := charts.ViewResult{View: res.View, Path: res.Path}
		start := time.Now()
		out.Err = p.PublishChart(ctx, res.Path, res.View.Title())
		out.Duration = time.Since(start)
		sent = append(sent, out)
	}
	return sent
}

// classify turns bot API errors into retry.StatusError so 429 and 5xx are retried
// and RetryAfter is honoured.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return &retry.StatusError{
			Code:       apiErr.Code,
			Message:    apiErr.Message,
			RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second,
		}
	}
	return err
}
