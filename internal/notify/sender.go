// Package notify delivers domain events to external channels. The dispatcher
// consumes the in-process bus and fans events out to the configured senders;
// delivery failures never propagate back into the engine.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"fitsched/internal/events"
)

// Sender delivers one event to one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, event events.Event) error
}

// LogSender writes events to the structured log. Always on; doubles as the
// delivery channel of last resort.
type LogSender struct {
	logger *zerolog.Logger
}

// NewLogSender creates a log-backed sender.
func NewLogSender(logger *zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(_ context.Context, e events.Event) error {
	s.logger.Info().
		Str("type", e.Type).
		Str("recipient_id", e.RecipientID).
		Str("booking_id", e.BookingID).
		Str("subscription_id", e.SubscriptionID).
		Str("message", e.Message).
		Msg("notification")
	return nil
}

// ChatResolver maps a recipient id to a Telegram chat id. Zero means the
// recipient has no chat configured.
type ChatResolver func(ctx context.Context, recipientID string) (int64, error)

// TelegramSender delivers event messages over a Telegram bot.
type TelegramSender struct {
	bot     *tgbotapi.BotAPI
	resolve ChatResolver
}

// NewTelegramSender creates a Telegram-backed sender.
func NewTelegramSender(bot *tgbotapi.BotAPI, resolve ChatResolver) *TelegramSender {
	return &TelegramSender{bot: bot, resolve: resolve}
}

func (s *TelegramSender) Name() string { return "telegram" }

func (s *TelegramSender) Send(ctx context.Context, e events.Event) error {
	chatID, err := s.resolve(ctx, e.RecipientID)
	if err != nil {
		return fmt.Errorf("resolve chat for %s: %w", e.RecipientID, err)
	}
	if chatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, e.Message)
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// RedisPublisher publishes events as JSON on a Redis channel so external
// consumers can react to them.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a Redis-backed publisher.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (s *RedisPublisher) Name() string { return "redis" }

func (s *RedisPublisher) Send(ctx context.Context, e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
