package bot

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/user/archive-bot-go/internal/model"
)

// Attachment describes the media carried by a message
type Attachment struct {
	Kind         model.MediaKind
	FileID       string
	FileUniqueID string
	FileName     string
	Size         int64
}

// ShouldAccept decides whether the media of msg is archived for sub.
// Accepted media kinds are checked later, against the specific attachment.
func ShouldAccept(msg *tgbotapi.Message, self tgbotapi.User, sub *model.Subscriber) bool {
	if !sub.Active {
		return false
	}
	if !HasMedia(msg) {
		return false
	}
	return acceptableSender(msg, self)
}

// acceptableSender rejects messages written by the bot itself and messages
// not sent by a user (anonymous admins, channels posting as themselves).
func acceptableSender(msg *tgbotapi.Message, self tgbotapi.User) bool {
	if msg.From != nil && msg.From.ID == self.ID {
		return false
	}
	if msg.From == nil || msg.SenderChat != nil {
		return false
	}
	return true
}

// HasMedia reports whether the message carries a file attachment
func HasMedia(msg *tgbotapi.Message) bool {
	_, ok := AttachmentOf(msg)
	return ok
}

// AttachmentOf extracts the attachment of a message. Photos are photos, every
// other file type counts as a document.
func AttachmentOf(msg *tgbotapi.Message) (Attachment, bool) {
	if msg == nil {
		return Attachment{}, false
	}

	switch {
	case len(msg.Photo) > 0:
		photo := largestPhoto(msg.Photo)
		return Attachment{
			Kind:         model.MediaPhoto,
			FileID:       photo.FileID,
			FileUniqueID: photo.FileUniqueID,
			FileName:     fmt.Sprintf("photo_%s.jpg", photo.FileUniqueID),
			Size:         int64(photo.FileSize),
		}, true
	case msg.Document != nil:
		d := msg.Document
		return documentAttachment(d.FileID, d.FileUniqueID, d.FileName, "document", "", d.FileSize), true
	case msg.Video != nil:
		v := msg.Video
		return documentAttachment(v.FileID, v.FileUniqueID, v.FileName, "video", ".mp4", v.FileSize), true
	case msg.Animation != nil:
		a := msg.Animation
		return documentAttachment(a.FileID, a.FileUniqueID, a.FileName, "animation", ".mp4", a.FileSize), true
	case msg.Audio != nil:
		a := msg.Audio
		return documentAttachment(a.FileID, a.FileUniqueID, a.FileName, "audio", ".mp3", a.FileSize), true
	case msg.Voice != nil:
		v := msg.Voice
		return documentAttachment(v.FileID, v.FileUniqueID, "", "voice", ".ogg", v.FileSize), true
	case msg.VideoNote != nil:
		v := msg.VideoNote
		return documentAttachment(v.FileID, v.FileUniqueID, "", "video_note", ".mp4", v.FileSize), true
	default:
		return Attachment{}, false
	}
}

func documentAttachment(fileID, uniqueID, name, prefix, ext string, size int) Attachment {
	if name == "" {
		name = prefix + "_" + uniqueID + ext
	}
	return Attachment{
		Kind:         model.MediaDocument,
		FileID:       fileID,
		FileUniqueID: uniqueID,
		FileName:     name,
		Size:         int64(size),
	}
}

// largestPhoto picks the size with the most pixels; the first one wins a tie
func largestPhoto(items []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := items[0]
	for _, item := range items[1:] {
		if item.Width*item.Height > best.Width*best.Height {
			best = item
		}
	}
	return best
}

// SenderName names the original author of a message: the forwarded-from user
// when known, otherwise the sender. Username wins over first and last name.
func SenderName(msg *tgbotapi.Message) string {
	user := msg.From
	if msg.ForwardFrom != nil {
		user = msg.ForwardFrom
	} else if msg.ForwardSenderName != "" {
		return msg.ForwardSenderName
	}
	if user == nil {
		return "unknown"
	}

	switch {
	case user.UserName != "":
		return user.UserName
	case user.FirstName != "":
		return user.FirstName
	case user.LastName != "":
		return user.LastName
	default:
		return strconv.FormatInt(user.ID, 10)
	}
}
