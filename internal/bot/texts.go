package bot

import (
	"fmt"
	"strings"

	"github.com/user/archive-bot-go/internal/model"
)

// HelpText is the reply to /help
var HelpText = `A handy telegram bot which stores files posted in a chat on your server.
For example, collect the images and videos of all members of your last holiday trip, or push backups and interesting files from your chats to your server.

If you forward messages from other chats and sort_by_user is on, the file is still saved under the name of the original owner.

To send uncompressed pictures and videos from your phone, share them as a File instead of a Photo.

In groups and channels the bot expects a command together with its username.
E.g. /start@bot_user_name

Available commands:

/start Start archiving files of this chat
/stop Stop archiving files of this chat
/clear_history Delete all archived files of this chat from the server
/zip Create a zip of all archived files and send it here
/set_name Set the name of this chat. It also names the target folder on the server.
/scan_chat Archive every file the bot has seen in this chat
/verbose [true, false] Report files that are not accepted or duplicated
/sort_by_user [true, false] Sort incoming files into one folder per user
/accept [` + strings.Join(mediaKindNames(), " ") + `] Space separated list of all accepted media types, e.g. /accept document photo
/allow_duplicates [true, false] Save files with duplicate names as "name (1).ext"
/info Show current settings
/help Show this text`

// InfoText renders the settings of a subscriber and the number of archived files
func InfoText(sub *model.Subscriber, files int64) string {
	name := sub.Name()
	if name == "" {
		name = "not set"
	}

	var b strings.Builder
	b.WriteString("Current settings:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Active: %t\n", sub.Active)
	fmt.Fprintf(&b, "Accepted Media: %s\n", sub.AcceptedMedia)
	fmt.Fprintf(&b, "Verbose: %t\n", sub.Verbose)
	fmt.Fprintf(&b, "Allow duplicates: %t\n", sub.AllowDuplicates)
	fmt.Fprintf(&b, "Sort files by User: %t\n", sub.SortByUser)
	fmt.Fprintf(&b, "Archived files: %d", files)
	return b.String()
}

func mediaKindNames() []string {
	names := make([]string, 0, len(model.MediaKinds))
	for _, kind := range model.MediaKinds {
		names = append(names, string(kind))
	}
	return names
}
