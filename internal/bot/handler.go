package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Handler routes Telegram updates to the wrapped command handlers
type Handler struct {
	commands map[string]EventFunc
	message  EventFunc
}

// NewHandler registers every chat command of c with the dispatcher
func NewHandler(d *Dispatcher, c *Commands) *Handler {
	commands := map[string]HandlerFunc{
		"start":            c.Start,
		"stop":             c.Stop,
		"clear_history":    c.ClearHistory,
		"zip":              c.Zip,
		"set_name":         c.SetName,
		"scan_chat":        c.ScanChat,
		"verbose":          c.Verbose,
		"sort_by_user":     c.SortByUser,
		"accept":           c.Accept,
		"allow_duplicates": c.AllowDuplicates,
		"info":             c.Info,
		"help":             c.Help,
	}

	h := &Handler{
		commands: make(map[string]EventFunc, len(commands)),
		message:  d.Wrap("message", c.ProcessMessage, false),
	}
	for name, fn := range commands {
		h.commands[name] = d.Wrap(name, fn, true)
	}
	return h
}

// HandleUpdate processes an incoming Telegram update
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil {
		return
	}

	ev := &Event{Message: msg}
	if !msg.IsCommand() {
		h.message(ctx, ev)
		return
	}

	command := msg.Command()
	fn, ok := h.commands[command]
	if !ok {
		log.Debug().Int64("chatID", ev.ChatID()).Str("command", command).Msg("Ignoring unknown command")
		return
	}

	log.Info().
		Int64("chatID", ev.ChatID()).
		Str("command", command).
		Msg("Received command")
	fn(ctx, ev)
}

// Run handles updates with the given number of workers until the channel is
// closed or ctx is cancelled
func (h *Handler) Run(ctx context.Context, updates <-chan tgbotapi.Update, workers int) {
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case update, ok := <-updates:
					if !ok {
						return
					}
					h.HandleUpdate(ctx, update)
				}
			}
		}()
	}

	log.Info().Int("workers", workers).Msg("Handling Telegram updates")
	wg.Wait()
}
