package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/user/archive-bot-go/internal/archive"
	"github.com/user/archive-bot-go/internal/store"
)

// Archiver is the part of the file archive the commands depend on
type Archiver interface {
	Save(ctx context.Context, req archive.SaveRequest) (string, int64, error)
	Remove(chatName, relPath string) error
	Clear(chatName string) error
	Rename(oldName, newName string) error
	Zip(chatName, outDir string) ([]string, error)
}

// Commands implements the chat commands and message archival
type Commands struct {
	messenger Messenger
	archive   Archiver
	tmpDir    string // parent of the temporary zip directories, empty for the OS default
}

// NewCommands creates the command set
func NewCommands(messenger Messenger, archiver Archiver, tmpDir string) *Commands {
	return &Commands{
		messenger: messenger,
		archive:   archiver,
		tmpDir:    tmpDir,
	}
}

// Start activates archival for the chat
func (c *Commands) Start(ctx context.Context, ev *Event, sess store.Session) (string, error) {
	sub, err := eventSubscriber(ctx, ev, sess)
	if err != nil {
		return "", err
	}
	sub.Active = true
	if err := sess.SaveSubscriber(ctx, sub); err != nil {
		return "", err
	}
	return "Files posted in this chat will now be archived.", nil
}

// Stop deactivates archival for the chat
func (c *Commands) Stop(ctx context.Context, ev *Event, sess store.Session) (string, error) {
	sub, err := eventSubscriber(ctx, ev, sess)
	if err != nil {
		return "", err
	}
	sub.Active = false
	if err := sess.SaveSubscriber(ctx, sub); err != nil {
		return "", err
	}
	return "Files won't be archived any longer.", nil
}

// SetName names the chat and its archive directory
func (c *Commands) SetName(ctx context.Context, ev *Event, sess store.Session) (string, error) {
	sub, err := eventSubscriber(ctx, ev, sess)
	if err != nil {
		return "", err
	}

	name, err := CommandArgument(ev)
	if errors.Is(err, ErrMissingArgument) {
		return "Please provide a name.", nil
	}
	if !validChatName(name) {
		return "Please use a name without slashes, backslashes or leading dots.", nil
	}

	existing, err := sess.SubscriberByName(ctx, name)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.ID != sub.ID {
		return "This name is already used by another chat.", nil
	}

	oldName := sub.Name()
	sub.ChannelName = &name
	if err := sess.SaveSubscriber(ctx, sub); err != nil {
		return "", err
	}
	if err := c.archive.Rename(oldName, name); err != nil {
		return "", err
	}
	return "Chat name changed.", nil
}

func validChatName(name string) bool {
	return !strings.Contains(name, "..") && archive.SanitizeName(name) == name
}

// Verbose toggles rejection notices
func (c *Commands) Verbose(ctx context.Context, ev *Event, sess store.Session) (string, error) {
	sub, value, err := ResolveBoolOption(ctx, c.messenger, ev, sess)
	if err != nil || sub == nil {
		return "", err
	}
	sub.Verbose = value
	if err := sess.SaveSubscriber(ctx, sub); err != nil {
		return "", err
	}
	if value {
		return "I'm now configured to be verbose.", nil
	}
	return "I'm now configured to be quiet.", nil
}

// SortByUser toggles the per-sender sub directories
func (c *Commands) SortByUser(ctx context.Context, ev *Event, sess store.Session) (string, error) {
	sub, value, err := ResolveBoolOption(ctx, c.messenger, ev, sess)
	if err != nil || sub == nil {
		return "", err
	}
	sub.SortByUser = value
	if err := sess.SaveSubscriber(ctx, sub); err != nil {
		return "", err
	}
	if value {
		return "Incoming files will now be sorted by user.", nil
	}
	return "Incoming files will no longer be sorted by user.", nil
}

// AllowDuplicates toggles saving files whose name is taken
func (c *Commands) AllowDuplicates(ctx context.Context, ev *Event, sess store.Session) (string, error) {
	sub, value, err := ResolveBoolOption(ctx, c.messenger, ev, sess)
	if err != nil || sub == nil {
		return "", err
	}
	sub.AllowDuplicates = value
	if err := sess.SaveSubscriber(ctx, sub); err != nil {
		return "", err
	}
	if value {
		return "Files with duplicate names will now be saved.", nil
	}
	return "Files with duplicate names will now be ignored.", nil
}

// Accept replaces the accepted media kinds
func (c *Commands) Accept(ctx context.Context, ev *Event, sess store.Session) (string, error) {
	sub, list, err := ResolveMediaOption(ctx, c.messenger, ev, sess)
	if err != nil || sub == nil {
		return "", err
	}
	sub.AcceptedMedia = list
	if err := sess.SaveSubscriber(ctx, sub); err != nil {
		return "", err
	}
	return "Now accepting following media types: " + list.String() + ".", nil
}

// Info shows the chat settings
func (c *Commands) Info(ctx context.Context, ev *Event, sess store.Session) (string, error) {
	sub, err := eventSubscriber(ctx, ev, sess)
	if err != nil {
		return "", err
	}
	files, err := sess.CountFiles(ctx, sub.ID)
	if err != nil {
		return "", err
	}
	return InfoText(sub, files), nil
}

// Help shows the command overview
func (c *Commands) Help(_ context.Context, _ *Event, _ store.Session) (string, error) {
	return HelpText, nil
}

// ClearHistory deletes every archived file of the chat
func (c *Commands) ClearHistory(ctx context.Context, ev *Event, sess store.Session) (string, error) {
	sub, err := eventSubscriber(ctx, ev, sess)
	if err != nil {
		return "", err
	}

	deleted, err := sess.DeleteFiles(ctx, sub.ID)
	if err != nil {
		return "", err
	}
	if err := c.archive.Clear(sub.Name()); err != nil {
		return "", err
	}

	log.Info().Int64("chatID", sub.ChatID).Int64("files", deleted).Msg("Cleared chat history")
	return "All files for this chat have been deleted.", nil
}

// Zip packs the archive of the chat and uploads the parts
func (c *Commands) Zip(ctx context.Context, ev *Event, sess store.Session) (string, error) {
	sub, err := eventSubscriber(ctx, ev, sess)
	if err != nil {
		return "", err
	}
	if sub.Name() == "" {
		return "Please set a name with /set_name before creating a zip.", nil
	}

	dir, err := os.MkdirTemp(c.tmpDir, "zip-*")
	if err != nil {
		return "", fmt.Errorf("failed to create zip directory: %w", err)
	}
	defer os.RemoveAll(dir)

	parts, err := c.archive.Zip(sub.Name(), dir)
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "There are no files to zip yet.", nil
	}

	for _, part := range parts {
		if err := c.messenger.SendDocument(ctx, ev.ChatID(), part); err != nil {
			return "", err
		}
	}
	return "", nil
}

// ScanChat archives every media message recorded for the chat that is not archived yet
func (c *Commands) ScanChat(ctx context.Context, ev *Event, sess store.Session) (string, error) {
	sub, err := eventSubscriber(ctx, ev, sess)
	if err != nil {
		return "", err
	}
	if !sub.Active {
		return "Please start the bot with /start before scanning the chat.", nil
	}
	if sub.Name() == "" {
		return missingNameText, nil
	}

	observed, err := sess.ListObservedMedia(ctx, sub.ID)
	if err != nil {
		return "", err
	}

	archived := 0
	for _, media := range observed {
		ok, _, err := c.archiveMedia(ctx, sess, sub, media)
		if errors.Is(err, errDownload) {
			// Old files may no longer be downloadable
			log.Warn().Err(err).Int64("chatID", sub.ChatID).Int("messageID", media.MessageID).Msg("Skipping file during scan")
			continue
		}
		if err != nil {
			return "", err
		}
		if ok {
			archived++
		}
	}

	return fmt.Sprintf("Chat scan successful. Archived %d new files.", archived), nil
}
