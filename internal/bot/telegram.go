package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Client wraps the Telegram Bot API and implements Messenger
type Client struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter // Telegram allows about 30 messages per second globally
}

// NewClient creates a new Telegram client with the given bot token.
// sendRate bounds outgoing messages per second.
func NewClient(token string, sendRate float64) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(sendRate), 1),
	}, nil
}

// GetUpdates returns a channel for receiving updates from Telegram
func (c *Client) GetUpdates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	return c.api.GetUpdatesChan(u)
}

// StopReceivingUpdates stops the update channel
func (c *Client) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}

// Self returns the bot's own user. The Bot API fills it in on connect.
func (c *Client) Self(_ context.Context) (tgbotapi.User, error) {
	if c.api.Self.ID != 0 {
		return c.api.Self, nil
	}
	self, err := c.api.GetMe()
	if err != nil {
		return tgbotapi.User{}, fmt.Errorf("failed to get bot user: %w", err)
	}
	return self, nil
}

// Respond sends a plain text message to a chat
func (c *Client) Respond(ctx context.Context, chatID int64, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendDocument uploads a local file to a chat
func (c *Client) SendDocument(ctx context.Context, chatID int64, path string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	if _, err := c.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}

// FileURL resolves a file id into a download URL
func (c *Client) FileURL(_ context.Context, fileID string) (string, error) {
	url, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file url: %w", err)
	}
	return url, nil
}
