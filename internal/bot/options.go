package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/archive-bot-go/internal/model"
	"github.com/user/archive-bot-go/internal/store"
)

var (
	// ErrInvalidOptionValue is returned for a boolean option that is not one of 1/true/on/0/false/off
	ErrInvalidOptionValue = errors.New("invalid option value")
	// ErrInvalidMediaKind is returned for a media list containing an unknown kind
	ErrInvalidMediaKind = errors.New("invalid media kind")
	// ErrMissingArgument is returned when a command is sent without its argument
	ErrMissingArgument = errors.New("missing argument")
)

const (
	boolUsageHint  = "Got an invalid value. Please use one of [true, false, on, off, 0, 1]"
	mediaUsageHint = "Unknown media type. Please use a space separated list of [document photo], e.g. /accept document photo"
)

// ParseBool converts option text into a boolean. Only the six documented
// tokens are accepted, in any letter case.
func ParseBool(text string) (bool, error) {
	switch strings.ToLower(text) {
	case "1", "true", "on":
		return true, nil
	case "0", "false", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidOptionValue, text)
	}
}

// ParseMediaList converts a space separated list into a set of media kinds.
// Either every token is valid or an error is returned.
func ParseMediaList(text string) (model.MediaList, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrInvalidMediaKind)
	}

	list := make(model.MediaList, 0, len(tokens))
	for _, token := range tokens {
		kind := model.MediaKind(strings.ToLower(token))
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMediaKind, token)
		}
		if !list.Contains(kind) {
			list = append(list, kind)
		}
	}
	return list, nil
}

// CommandArgument returns the text following the command token
func CommandArgument(ev *Event) (string, error) {
	arg := strings.TrimSpace(ev.Message.CommandArguments())
	if arg == "" {
		return "", ErrMissingArgument
	}
	return arg, nil
}

// ResolveBoolOption loads the subscriber of the event's chat and parses the
// command argument as a boolean. When the argument is invalid a usage hint is
// sent and a nil subscriber is returned; the caller must stop in that case.
func ResolveBoolOption(ctx context.Context, m Messenger, ev *Event, sess store.Session) (*model.Subscriber, bool, error) {
	sub, err := eventSubscriber(ctx, ev, sess)
	if err != nil {
		return nil, false, err
	}

	arg, _ := CommandArgument(ev)
	value, err := ParseBool(arg)
	if err != nil {
		if err := m.Respond(ctx, ev.ChatID(), boolUsageHint); err != nil {
			return nil, false, fmt.Errorf("failed to send usage hint: %w", err)
		}
		return nil, false, nil
	}
	return sub, value, nil
}

// ResolveMediaOption is ResolveBoolOption for media lists
func ResolveMediaOption(ctx context.Context, m Messenger, ev *Event, sess store.Session) (*model.Subscriber, model.MediaList, error) {
	sub, err := eventSubscriber(ctx, ev, sess)
	if err != nil {
		return nil, nil, err
	}

	arg, _ := CommandArgument(ev)
	list, err := ParseMediaList(arg)
	if err != nil {
		if err := m.Respond(ctx, ev.ChatID(), mediaUsageHint); err != nil {
			return nil, nil, fmt.Errorf("failed to send usage hint: %w", err)
		}
		return nil, nil, nil
	}
	return sub, list, nil
}

func eventSubscriber(ctx context.Context, ev *Event, sess store.Session) (*model.Subscriber, error) {
	id, err := ev.Identity()
	if err != nil {
		return nil, err
	}
	return sess.GetOrCreateSubscriber(ctx, id)
}
