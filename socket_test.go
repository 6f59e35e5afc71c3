package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

type sentMsg struct {
	To  types.JID
	Msg *waProto.Message
}

type rosterUpdate struct {
	Users  []types.JID
	Change whatsmeow.ParticipantChange
}

// fakeSocket records every outbound call so tests can assert on exactly
// what a handler did.
type fakeSocket struct {
	mu sync.Mutex

	own     types.JID
	info    *types.GroupInfo
	infoErr error

	sent      []sentMsg
	reactions []string
	updates   []rosterUpdate
	updateErr map[string]error

	inviteCode string
	inviteErr  error

	downloadData  []byte
	downloadErr   error
	downloadCalls int

	announce  []bool
	markReads int
	infoCalls int
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		own:        types.NewJID("999", types.DefaultUserServer),
		inviteCode: "AbCdEfGh123",
	}
}

func (f *fakeSocket) SendMessage(ctx context.Context, to types.JID, msg *waProto.Message) (whatsmeow.SendResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMsg{To: to, Msg: msg})
	// Outbound messages get sequential IDs so tests can track them.
	return whatsmeow.SendResponse{ID: types.MessageID(fmt.Sprintf("OUT%d", len(f.sent)))}, nil
}

func (f *fakeSocket) React(ctx context.Context, chat, sender types.JID, id types.MessageID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, emoji)
	return nil
}

func (f *fakeSocket) Upload(ctx context.Context, data []byte, kind whatsmeow.MediaType) (whatsmeow.UploadResponse, error) {
	return whatsmeow.UploadResponse{URL: "https://media.example/up", DirectPath: "/up"}, nil
}

func (f *fakeSocket) Download(ctx context.Context, msg whatsmeow.DownloadableMessage) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloadCalls++
	return f.downloadData, f.downloadErr
}

func (f *fakeSocket) GroupInfo(ctx context.Context, chat types.JID) (*types.GroupInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls++
	return f.info, f.infoErr
}

func (f *fakeSocket) UpdateParticipants(ctx context.Context, chat types.JID, users []types.JID, change whatsmeow.ParticipantChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, rosterUpdate{Users: users, Change: change})
	for _, u := range users {
		if err, ok := f.updateErr[u.User]; ok {
			return err
		}
	}
	return nil
}

func (f *fakeSocket) InviteLink(ctx context.Context, chat types.JID, reset bool) (string, error) {
	return f.inviteCode, f.inviteErr
}

func (f *fakeSocket) SetAnnounce(ctx context.Context, chat types.JID, announce bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.announce = append(f.announce, announce)
	return nil
}

func (f *fakeSocket) MarkRead(ctx context.Context, v *events.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReads++
	return nil
}

func (f *fakeSocket) Presence(ctx context.Context, available bool) error { return nil }

func (f *fakeSocket) OwnJID() types.JID { return f.own }

// texts returns the plain bodies of every sent message, skipping media.
func (f *fakeSocket) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		if c := extractContent(s.Msg); c.Kind == ContentText {
			out = append(out, c.Text)
		}
	}
	return out
}

// memSessions is a map-backed Sessions for tests that need conversation
// memory without Redis.
type memSessions struct {
	mu sync.Mutex
	m  map[string]AISession
}

func newMemSessions() *memSessions { return &memSessions{m: make(map[string]AISession)} }

func (s *memSessions) Load(ctx context.Context, sender string) (AISession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[sender]
	return sess, ok
}

func (s *memSessions) Save(ctx context.Context, sender string, sess AISession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sender] = sess
}

func newTestBot(fs *fakeSocket) *Bot {
	return &Bot{
		Sock:      fs,
		Cfg:       Config{BotName: "Guard Bot", OwnerName: "owner", Prefix: "."},
		HTTP:      &http.Client{Timeout: time.Second},
		Pace:      0,
		StartTime: time.Now(),
	}
}

var (
	testChat   = types.NewJID("120363041111111111", types.GroupServer)
	testSender = types.NewJID("1111", types.DefaultUserServer)
)

func groupMsg(text string, sender types.JID, fromMe bool) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:     testChat,
				Sender:   sender,
				IsFromMe: fromMe,
				IsGroup:  true,
			},
			ID:        "MSG1",
			Timestamp: time.Now(),
		},
		Message: &waProto.Message{Conversation: proto.String(text)},
	}
}

func privateMsg(text string, sender types.JID) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:    sender,
				Sender:  sender,
				IsGroup: false,
			},
			ID:        "MSG1",
			Timestamp: time.Now(),
		},
		Message: &waProto.Message{Conversation: proto.String(text)},
	}
}

func participant(user string, admin, super bool) types.GroupParticipant {
	return types.GroupParticipant{
		JID:          types.NewJID(user, types.DefaultUserServer),
		IsAdmin:      admin,
		IsSuperAdmin: super,
	}
}

func roster(parts ...types.GroupParticipant) *types.GroupInfo {
	info := &types.GroupInfo{JID: testChat, Participants: parts}
	info.GroupName.Name = "Test Group"
	return info
}
