// Package telegram provides a client for sending +EV digests via the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/evoracle/internal/models"
)

// DefaultTopK is the digest size used by the /top command when none is given.
const DefaultTopK = 5

// TopFunc returns up to k of the current best opportunities.
type TopFunc func(k int) []models.Opportunity

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ListenForCommands polls for bot commands until ctx is cancelled.
// /ping answers Pong; /top [k] replies with the current best opportunities.
func (c *Client) ListenForCommands(ctx context.Context, top TopFunc) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message, top)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message, top TopFunc) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	case "top":
		k := parseTopArg(msg.CommandArguments())
		var opps []models.Opportunity
		if top != nil {
			opps = top(k)
		}
		reply := tgbotapi.NewMessage(msg.Chat.ID, formatMessage(opps, time.Now()))
		reply.ParseMode = "MarkdownV2"
		c.bot.Send(reply) //nolint:errcheck
	}
}

func parseTopArg(arg string) int {
	k, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || k <= 0 {
		return DefaultTopK
	}
	return k
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError reports a failed run.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(runErr error) error {
	text := fmt.Sprintf("⚠️ *Run failed*\n`%s`", escapeMarkdownV2(runErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Runs recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// SendOpportunities sends a digest of the given opportunities.
func (c *Client) SendOpportunities(opps []models.Opportunity, detectedAt time.Time) error {
	return c.sendMarkdownV2(formatMessage(opps, detectedAt))
}

// formatMessage formats opportunities into a Telegram MarkdownV2 message.
func formatMessage(opps []models.Opportunity, detectedAt time.Time) string {
	var b strings.Builder
	b.WriteString("💰 *\\+EV Opportunities*\n\n")
	fmt.Fprintf(&b, "📅 Detected: %s\n\n",
		escapeMarkdownV2(detectedAt.UTC().Format("2006-01-02 15:04:05")))

	if len(opps) == 0 {
		b.WriteString("No opportunities in range\\.\n")
		return b.String()
	}

	for i, o := range opps {
		fmt.Fprintf(&b, "%d\\. *%s* %s @ %s\n",
			i+1, escapeMarkdownV2(selection(o)), escapeMarkdownV2(formatAmerican(o.Odds)),
			escapeMarkdownV2(o.Bookmaker))
		fmt.Fprintf(&b, "   🎯 %s vs %s · %s\n",
			escapeMarkdownV2(o.TeamA), escapeMarkdownV2(o.TeamB), escapeMarkdownV2(o.Market))
		fmt.Fprintf(&b, "   EV *%s* · fair %s\n\n",
			escapeMarkdownV2(fmt.Sprintf("%+.1f%%", o.EV*100)),
			escapeMarkdownV2(fmt.Sprintf("%.1f%%", o.TrueProb*100)))
	}
	return b.String()
}

// selection names what the bet is on, e.g. "Jayson Tatum Over 24.5".
func selection(o models.Opportunity) string {
	parts := make([]string, 0, 3)
	if o.Player != "" {
		parts = append(parts, o.Player)
	}
	if o.Kind != models.KindOneWay {
		parts = append(parts, o.Side)
	}
	if o.Point != nil {
		point := *o.Point
		// spread lines carry the home point; the away side takes the opposite
		if o.Market == "spreads" && o.Side == o.TeamB {
			point = -point
		}
		p := strconv.FormatFloat(point, 'f', -1, 64)
		if o.Market == "spreads" && point > 0 {
			p = "+" + p
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

func formatAmerican(price float64) string {
	s := strconv.FormatFloat(price, 'f', -1, 64)
	if price > 0 {
		return "+" + s
	}
	return s
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
