package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/user/archive-bot-go/internal/archive"
	"github.com/user/archive-bot-go/internal/model"
	"github.com/user/archive-bot-go/internal/store"
)

const botUserName = "bot_user_name"

// fakeStore keeps every record in memory and counts session lifecycle calls
type fakeStore struct {
	mu          sync.Mutex
	nextID      uint
	subscribers map[model.ChatIdentity]*model.Subscriber
	files       []*model.File
	observed    []*model.ObservedMedia

	beginErr  error
	commitErr error
	begins    int
	commits   int
	releases  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{subscribers: make(map[model.ChatIdentity]*model.Subscriber)}
}

func (f *fakeStore) Begin(context.Context) (store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.begins++
	return &fakeSession{store: f}, nil
}

func (f *fakeStore) CountSubscribers(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.subscribers)), nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }

// subscriber returns a copy of the stored subscriber of a chat
func (f *fakeStore) subscriber(id model.ChatIdentity) *model.Subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subscribers[id]
	if !ok {
		return nil
	}
	c := *sub
	return &c
}

func (f *fakeStore) counts() (begins, commits, releases int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.begins, f.commits, f.releases
}

type fakeSession struct {
	store *fakeStore
}

func (s *fakeSession) GetOrCreateSubscriber(_ context.Context, id model.ChatIdentity) (*model.Subscriber, error) {
	f := s.store
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subscribers[id]
	if !ok {
		f.nextID++
		sub = model.DefaultSubscriber(id)
		sub.ID = f.nextID
		f.subscribers[id] = sub
	}
	c := *sub
	return &c, nil
}

func (s *fakeSession) SaveSubscriber(_ context.Context, sub *model.Subscriber) error {
	f := s.store
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *sub
	f.subscribers[sub.Identity()] = &c
	return nil
}

func (s *fakeSession) SubscriberByName(_ context.Context, name string) (*model.Subscriber, error) {
	f := s.store
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subscribers {
		if sub.Name() == name {
			c := *sub
			return &c, nil
		}
	}
	return nil, nil
}

func (s *fakeSession) RecordFile(_ context.Context, file *model.File) error {
	f := s.store
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, file)
	return nil
}

func (s *fakeSession) FileExists(_ context.Context, subscriberID uint, fileUniqueID string) (bool, error) {
	f := s.store
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.files {
		if file.SubscriberID == subscriberID && file.FileUniqueID == fileUniqueID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeSession) CountFiles(_ context.Context, subscriberID uint) (int64, error) {
	f := s.store
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, file := range f.files {
		if file.SubscriberID == subscriberID {
			count++
		}
	}
	return count, nil
}

func (s *fakeSession) DeleteFiles(_ context.Context, subscriberID uint) (int64, error) {
	f := s.store
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.files[:0]
	var deleted int64
	for _, file := range f.files {
		if file.SubscriberID == subscriberID {
			deleted++
			continue
		}
		kept = append(kept, file)
	}
	f.files = kept
	return deleted, nil
}

func (s *fakeSession) RecordObservedMedia(_ context.Context, media *model.ObservedMedia) error {
	f := s.store
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.observed {
		if m.SubscriberID == media.SubscriberID && m.MessageID == media.MessageID && m.FileUniqueID == media.FileUniqueID {
			return nil
		}
	}
	f.observed = append(f.observed, media)
	return nil
}

func (s *fakeSession) ListObservedMedia(_ context.Context, subscriberID uint) ([]*model.ObservedMedia, error) {
	f := s.store
	f.mu.Lock()
	defer f.mu.Unlock()
	var media []*model.ObservedMedia
	for _, m := range f.observed {
		if m.SubscriberID == subscriberID {
			media = append(media, m)
		}
	}
	return media, nil
}

func (s *fakeSession) Commit() error {
	f := s.store
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits++
	return nil
}

func (s *fakeSession) Release() {
	f := s.store
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
}

type response struct {
	chatID int64
	text   string
}

// fakeMessenger records everything the bot sends
type fakeMessenger struct {
	mu        sync.Mutex
	self      tgbotapi.User
	selfErr   error
	responses []response
	documents []string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{self: tgbotapi.User{ID: 999, IsBot: true, UserName: botUserName}}
}

func (m *fakeMessenger) Self(context.Context) (tgbotapi.User, error) {
	return m.self, m.selfErr
}

func (m *fakeMessenger) Respond(_ context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response{chatID: chatID, text: text})
	return nil
}

func (m *fakeMessenger) SendDocument(_ context.Context, _ int64, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := os.Stat(path); err != nil {
		return err
	}
	m.documents = append(m.documents, filepath.Base(path))
	return nil
}

func (m *fakeMessenger) FileURL(_ context.Context, fileID string) (string, error) {
	if fileID == "expired" {
		return "", errors.New("file is too old")
	}
	return "https://files.test/" + fileID, nil
}

func (m *fakeMessenger) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	texts := make([]string, len(m.responses))
	for i, r := range m.responses {
		texts[i] = r.text
	}
	return texts
}

// recordingReporter collects reported errors
type recordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingReporter) Report(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

// urlFetcher writes the URL as file content
type urlFetcher struct{}

func (urlFetcher) Fetch(_ context.Context, url, dest string) (int64, error) {
	if err := os.WriteFile(dest, []byte(url), 0o644); err != nil {
		return 0, err
	}
	return int64(len(url)), nil
}

type testBot struct {
	store     *fakeStore
	messenger *fakeMessenger
	reporter  *recordingReporter
	archive   *archive.Archive
	commands  *Commands
	handler   *Handler
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()
	files, err := archive.New(filepath.Join(t.TempDir(), "files"), urlFetcher{}, 1<<20)
	if err != nil {
		t.Fatalf("archive.New() error = %v", err)
	}

	tb := &testBot{
		store:     newFakeStore(),
		messenger: newFakeMessenger(),
		reporter:  &recordingReporter{},
		archive:   files,
	}
	d := NewDispatcher(tb.store, tb.messenger, tb.reporter).WithLogger(zerolog.Nop())
	tb.commands = NewCommands(tb.messenger, files, t.TempDir())
	tb.handler = NewHandler(d, tb.commands)
	return tb
}

func (tb *testBot) send(msg *tgbotapi.Message) {
	tb.handler.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})
}

func privateChat() *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: 42, Type: "private"}
}

func groupChat() *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: -100123, Type: "supergroup"}
}

func alice() *tgbotapi.User {
	return &tgbotapi.User{ID: 7, UserName: "alice", FirstName: "Alice"}
}

// commandMessage builds a message whose first token is a bot command
func commandMessage(chat *tgbotapi.Chat, text string) *tgbotapi.Message {
	token := strings.Fields(text)[0]
	return &tgbotapi.Message{
		MessageID: 1,
		From:      alice(),
		Chat:      chat,
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(token)}},
	}
}

func documentMessage(chat *tgbotapi.Chat, messageID int, uniqueID, name string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: messageID,
		From:      alice(),
		Chat:      chat,
		Document: &tgbotapi.Document{
			FileID:       "file-" + uniqueID,
			FileUniqueID: uniqueID,
			FileName:     name,
			FileSize:     10,
		},
	}
}

func photoMessage(chat *tgbotapi.Chat, messageID int, uniqueID string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: messageID,
		From:      alice(),
		Chat:      chat,
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small-" + uniqueID, FileUniqueID: "small-" + uniqueID, Width: 90, Height: 90, FileSize: 100},
			{FileID: "file-" + uniqueID, FileUniqueID: uniqueID, Width: 1280, Height: 960, FileSize: 5000},
		},
	}
}

func identityOf(chat *tgbotapi.Chat) model.ChatIdentity {
	id, err := ResolveIdentity(PeerFromChat(chat))
	if err != nil {
		panic(err)
	}
	return id
}
