package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/user/archive-bot-go/internal/archive"
	"github.com/user/archive-bot-go/internal/model"
	"github.com/user/archive-bot-go/internal/server"
	"github.com/user/archive-bot-go/internal/store"
)

// errDownload marks failures to fetch a file from Telegram
var errDownload = errors.New("download failed")

const (
	notAcceptedText = "Media type not accepted."
	duplicateText   = "A file with this name already exists."
	missingNameText = "Please set a name for this chat with /set_name before files can be archived."
)

// ProcessMessage records the media of a message and archives it when the chat
// accepts it. Rejection notices are only returned to verbose chats.
func (c *Commands) ProcessMessage(ctx context.Context, ev *Event, sess store.Session) (string, error) {
	sub, err := eventSubscriber(ctx, ev, sess)
	if err != nil {
		return "", err
	}

	attachment, ok := AttachmentOf(ev.Message)
	if !ok {
		return "", nil
	}

	self, err := c.messenger.Self(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get bot identity: %w", err)
	}
	if !acceptableSender(ev.Message, self) {
		return "", nil
	}

	media := observedMedia(sub, ev.Message, attachment)
	if err := sess.RecordObservedMedia(ctx, media); err != nil {
		return "", err
	}

	if !ShouldAccept(ev.Message, self, sub) {
		return "", nil
	}

	_, notice, err := c.archiveMedia(ctx, sess, sub, media)
	if err != nil {
		return "", err
	}
	if !sub.Verbose {
		return "", nil
	}
	return notice, nil
}

func observedMedia(sub *model.Subscriber, msg *tgbotapi.Message, a Attachment) *model.ObservedMedia {
	return &model.ObservedMedia{
		SubscriberID: sub.ID,
		MessageID:    msg.MessageID,
		FileUniqueID: a.FileUniqueID,
		FileID:       a.FileID,
		FileName:     a.FileName,
		Kind:         a.Kind,
		Size:         a.Size,
		SenderID:     msg.From.ID,
		SenderName:   SenderName(msg),
	}
}

// archiveMedia writes one file to the archive and records it. The returned
// notice explains why a file was skipped.
func (c *Commands) archiveMedia(ctx context.Context, sess store.Session, sub *model.Subscriber, media *model.ObservedMedia) (bool, string, error) {
	if !sub.AcceptedMedia.Contains(media.Kind) {
		return false, notAcceptedText, nil
	}
	name := sub.Name()
	if name == "" {
		return false, missingNameText, nil
	}

	exists, err := sess.FileExists(ctx, sub.ID, media.FileUniqueID)
	if err != nil {
		return false, "", err
	}
	if exists {
		return false, "", nil
	}

	url, err := c.messenger.FileURL(ctx, media.FileID)
	if err != nil {
		return false, "", fmt.Errorf("%w: %w", errDownload, err)
	}

	req := archive.SaveRequest{
		URL:             url,
		ChatName:        name,
		FileName:        media.FileName,
		AllowDuplicates: sub.AllowDuplicates,
	}
	if sub.SortByUser {
		req.UserDir = media.SenderName
	}

	rel, size, err := c.archive.Save(ctx, req)
	if errors.Is(err, archive.ErrDuplicate) {
		return false, duplicateText, nil
	}
	if err != nil {
		return false, "", fmt.Errorf("%w: %w", errDownload, err)
	}

	file := &model.File{
		SubscriberID: sub.ID,
		FileUniqueID: media.FileUniqueID,
		ChatID:       sub.ChatID,
		MessageID:    media.MessageID,
		UserID:       media.SenderID,
		FileName:     media.FileName,
		Kind:         media.Kind,
		Path:         rel,
		Size:         size,
	}
	if err := sess.RecordFile(ctx, file); err != nil {
		if rmErr := c.archive.Remove(name, rel); rmErr != nil {
			log.Error().Err(rmErr).Str("path", rel).Msg("Failed to remove unrecorded file")
		}
		return false, "", err
	}

	server.RecordArchivedFile(string(media.Kind))
	log.Info().
		Int64("chatID", sub.ChatID).
		Str("path", rel).
		Int64("size", size).
		Msg("File archived")
	return true, "", nil
}
