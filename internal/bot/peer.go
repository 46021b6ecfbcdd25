package bot

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/user/archive-bot-go/internal/model"
)

// ErrUnknownChatType is returned for chat references that are not a user, group or channel
var ErrUnknownChatType = errors.New("unknown chat type")

// Peer is the chat a message was posted to. It is one of PeerUser, PeerChat,
// PeerChannel or PeerUnknown.
type Peer interface {
	isPeer()
}

// PeerUser is a private chat with a single user
type PeerUser struct {
	UserID int64
}

// PeerChat is a group or supergroup
type PeerChat struct {
	ChatID int64
}

// PeerChannel is a broadcast channel
type PeerChannel struct {
	ChannelID int64
}

// PeerUnknown is any chat shape the bot does not handle
type PeerUnknown struct {
	Kind string
}

func (PeerUser) isPeer()    {}
func (PeerChat) isPeer()    {}
func (PeerChannel) isPeer() {}
func (PeerUnknown) isPeer() {}

// PeerFromChat converts a Telegram chat into a Peer
func PeerFromChat(chat *tgbotapi.Chat) Peer {
	if chat == nil {
		return PeerUnknown{Kind: "<nil>"}
	}
	switch {
	case chat.IsPrivate():
		return PeerUser{UserID: chat.ID}
	case chat.IsGroup(), chat.IsSuperGroup():
		return PeerChat{ChatID: chat.ID}
	case chat.IsChannel():
		return PeerChannel{ChannelID: chat.ID}
	default:
		return PeerUnknown{Kind: chat.Type}
	}
}

// ResolveIdentity returns the chat id and type of a peer
func ResolveIdentity(peer Peer) (model.ChatIdentity, error) {
	switch p := peer.(type) {
	case PeerUser:
		return model.ChatIdentity{ChatID: p.UserID, ChatType: model.ChatTypeUser}, nil
	case PeerChat:
		return model.ChatIdentity{ChatID: p.ChatID, ChatType: model.ChatTypeGroup}, nil
	case PeerChannel:
		return model.ChatIdentity{ChatID: p.ChannelID, ChatType: model.ChatTypeChannel}, nil
	case PeerUnknown:
		return model.ChatIdentity{}, fmt.Errorf("%w: %q", ErrUnknownChatType, p.Kind)
	default:
		return model.ChatIdentity{}, fmt.Errorf("%w: %T", ErrUnknownChatType, peer)
	}
}
