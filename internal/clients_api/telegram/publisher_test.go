package telegram

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sales-analysis/internal/config"
	"sales-analysis/internal/features/charts"
	"sales-analysis/internal/infra/retry"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	errs  []error // returned in order, nil once exhausted
	sent  []tgbotapi.PhotoConfig
	calls int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.calls++
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	if err == nil {
		if photo, ok := c.(tgbotapi.PhotoConfig); ok {
			f.sent = append(f.sent, photo)
		}
	}
	return tgbotapi.Message{}, err
}

func fastOptions() Options {
	return Options{
		ChatID:        -1001,
		RatePerSecond: 1000,
		MaxRetries:    2,
		BaseDelay:     time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
	}
}

func chartFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG"), 0644))
	return path
}

func TestPublishChart_SendsPhoto(t *testing.T) {
	sender := &fakeSender{}
	p := NewPublisher(sender, fastOptions())
	path := chartFile(t, "bar_chart.png")

	require.NoError(t, p.PublishChart(context.Background(), path, "Bar Chart: Average Sales by Region"))

	require.Len(t, sender.sent, 1)
	photo := sender.sent[0]
	assert.Equal(t, int64(-1001), photo.ChatID)
	assert.Equal(t, "Bar Chart: Average Sales by Region", photo.Caption)
	assert.Equal(t, tgbotapi.FilePath(path), photo.File)
}

func TestPublishChart_RetriesTooManyRequests(t *testing.T) {
	busy := &tgbotapi.Error{Code: 429, Message: "Too Many Requests"}
	sender := &fakeSender{errs: []error{busy, &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}}}
	p := NewPublisher(sender, fastOptions())

	require.NoError(t, p.PublishChart(context.Background(), chartFile(t, "line_chart.png"), "line"))
	assert.Equal(t, 3, sender.calls)
	assert.Len(t, sender.sent, 1)
}

func TestPublishChart_PermanentErrorNotRetried(t *testing.T) {
	sender := &fakeSender{errs: []error{&tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}}}
	p := NewPublisher(sender, fastOptions())

	err := p.PublishChart(context.Background(), chartFile(t, "line_chart.png"), "line")

	var se *retry.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 400, se.Code)
	assert.Equal(t, 1, sender.calls)
}

func TestPublishChart_MissingFile(t *testing.T) {
	sender := &fakeSender{}
	p := NewPublisher(sender, fastOptions())

	err := p.PublishChart(context.Background(), filepath.Join(t.TempDir(), "nope.png"), "x")

	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Zero(t, sender.calls)
}

func TestPublishAll_SkipsFailedViews(t *testing.T) {
	sender := &fakeSender{}
	p := NewPublisher(sender, fastOptions())
	results := []charts.ViewResult{
		{View: charts.ViewLine, Path: chartFile(t, "line_chart.png")},
		{View: charts.ViewHistogram, Err: errors.New("no Profit values")},
		{View: charts.ViewScatter, Path: chartFile(t, "sales_vs_profit.png")},
	}

	sent := p.PublishAll(context.Background(), results)

	require.Len(t, sent, 2)
	assert.Equal(t, charts.ViewLine, sent[0].View)
	assert.Equal(t, charts.ViewScatter, sent[1].View)
	for _, s := range sent {
		assert.NoError(t, s.Err)
	}
	assert.Equal(t, "Scatter Plot: Sales vs Profit by Region", sender.sent[1].Caption)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))

	err := classify(&tgbotapi.Error{Code: 429, Message: "slow down", ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 3}})
	var se *retry.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 3*time.Second, se.RetryAfter)
	assert.True(t, retry.IsRetryable(err))

	plain := errors.New("dial tcp: refused")
	assert.Equal(t, plain, classify(plain))
}

func TestNewFromConfig_Disabled(t *testing.T) {
	p, err := NewFromConfig(config.TelegramConfig{})
	assert.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewFromConfig(config.TelegramConfig{BotToken: "x", ChatID: "abc"})
	assert.Error(t, err)
}
