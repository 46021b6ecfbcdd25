package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/archive-bot-go/internal/model"
	"github.com/user/archive-bot-go/internal/server"
	"github.com/user/archive-bot-go/internal/store"
	"github.com/user/archive-bot-go/internal/tracking"
)

// GenericErrorText is sent to the chat whenever a handler fails
const GenericErrorText = "Some unknown error occurred."

// Messenger is the part of the Telegram client the bot logic depends on
type Messenger interface {
	Self(ctx context.Context) (tgbotapi.User, error)
	Respond(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, path string) error
	FileURL(ctx context.Context, fileID string) (string, error)
}

// Event is a single inbound message
type Event struct {
	Message *tgbotapi.Message
}

// ChatID returns the Telegram chat the message was posted to
func (e *Event) ChatID() int64 {
	if e.Message == nil || e.Message.Chat == nil {
		return 0
	}
	return e.Message.Chat.ID
}

// Text returns the message text, or the caption for media messages
func (e *Event) Text() string {
	if e.Message.Text != "" {
		return e.Message.Text
	}
	return e.Message.Caption
}

// Identity resolves the chat identity of the message
func (e *Event) Identity() (model.ChatIdentity, error) {
	return ResolveIdentity(PeerFromChat(e.Message.Chat))
}

// HandlerFunc handles an event within a session and returns an optional response
type HandlerFunc func(ctx context.Context, ev *Event, sess store.Session) (string, error)

// EventFunc is a wrapped handler, ready to be called for an inbound event
type EventFunc func(ctx context.Context, ev *Event)

// Dispatcher wraps handlers with the addressing check, a session and error reporting
type Dispatcher struct {
	store     store.Store
	messenger Messenger
	reporter  tracking.Reporter
	logger    zerolog.Logger
}

// NewDispatcher creates a dispatcher logging to the global zerolog logger
func NewDispatcher(st store.Store, messenger Messenger, reporter tracking.Reporter) *Dispatcher {
	if reporter == nil {
		reporter = tracking.Nop{}
	}
	return &Dispatcher{
		store:     st,
		messenger: messenger,
		reporter:  reporter,
		logger:    log.Logger,
	}
}

// WithLogger replaces the dispatcher logger
func (d *Dispatcher) WithLogger(logger zerolog.Logger) *Dispatcher {
	d.logger = logger
	return d
}

// Wrap returns an EventFunc running h. When addressed is set, messages in group
// and channel chats are ignored unless the command token mentions the bot.
func (d *Dispatcher) Wrap(name string, h HandlerFunc, addressed bool) EventFunc {
	return func(ctx context.Context, ev *Event) {
		if addressed {
			ok, err := d.isAddressed(ctx, ev)
			if err != nil {
				d.fail(ctx, ev, name, err)
				return
			}
			if !ok {
				return
			}
		}
		d.run(ctx, ev, name, h)
	}
}

func (d *Dispatcher) isAddressed(ctx context.Context, ev *Event) (bool, error) {
	self, err := d.messenger.Self(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get bot identity: %w", err)
	}
	id, err := ev.Identity()
	if err != nil {
		return false, err
	}
	if id.ChatType == model.ChatTypeUser {
		return true, nil
	}
	return IsAddressedTo(ev.Text(), self.UserName), nil
}

// IsAddressedTo reports whether the first token of text mentions @username
func IsAddressedTo(text, username string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 || username == "" {
		return false
	}
	return strings.Contains(strings.ToLower(fields[0]), "@"+strings.ToLower(username))
}

func (d *Dispatcher) run(ctx context.Context, ev *Event, name string, h HandlerFunc) {
	sess, err := d.store.Begin(ctx)
	if err != nil {
		d.fail(ctx, ev, name, err)
		return
	}
	defer sess.Release()

	response, err := invoke(ctx, ev, sess, h)
	if err == nil {
		err = sess.Commit()
	}
	if err != nil {
		d.fail(ctx, ev, name, err)
		return
	}

	server.RecordCommand(name, "ok")
	if response == "" {
		return
	}
	if err := d.messenger.Respond(ctx, ev.ChatID(), response); err != nil {
		d.logger.Error().Err(err).Int64("chatID", ev.ChatID()).Str("command", name).Msg("Failed to send response")
	}
}

// invoke runs the handler, turning a panic into an error
func invoke(ctx context.Context, ev *Event, sess store.Session, h HandlerFunc) (response string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, ev, sess)
}

func (d *Dispatcher) fail(ctx context.Context, ev *Event, name string, err error) {
	server.RecordCommand(name, "error")
	d.logger.Error().
		Err(err).
		Int64("chatID", ev.ChatID()).
		Str("command", name).
		Msg("Handler failed")
	d.reporter.Report(fmt.Errorf("%s: %w", name, err))

	if err := d.messenger.Respond(ctx, ev.ChatID(), GenericErrorText); err != nil {
		d.logger.Error().Err(err).Int64("chatID", ev.ChatID()).Msg("Failed to send error message")
	}
}
