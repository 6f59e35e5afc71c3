package main

import (
	"context"
	"time"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

// Socket is the slice of the whatsmeow client that handlers touch. Tests
// swap in a recording fake.
type Socket interface {
	SendMessage(ctx context.Context, to types.JID, msg *waProto.Message) (whatsmeow.SendResponse, error)
	React(ctx context.Context, chat, sender types.JID, id types.MessageID, emoji string) error
	Upload(ctx context.Context, data []byte, kind whatsmeow.MediaType) (whatsmeow.UploadResponse, error)
	Download(ctx context.Context, msg whatsmeow.DownloadableMessage) ([]byte, error)
	GroupInfo(ctx context.Context, chat types.JID) (*types.GroupInfo, error)
	UpdateParticipants(ctx context.Context, chat types.JID, users []types.JID, change whatsmeow.ParticipantChange) error
	InviteLink(ctx context.Context, chat types.JID, reset bool) (string, error)
	SetAnnounce(ctx context.Context, chat types.JID, announce bool) error
	MarkRead(ctx context.Context, v *events.Message) error
	Presence(ctx context.Context, available bool) error
	OwnJID() types.JID
}

// waSocket adapts *whatsmeow.Client to Socket.
type waSocket struct {
	cli *whatsmeow.Client
}

func newWASocket(cli *whatsmeow.Client) *waSocket { return &waSocket{cli: cli} }

func (s *waSocket) SendMessage(ctx context.Context, to types.JID, msg *waProto.Message) (whatsmeow.SendResponse, error) {
	return s.cli.SendMessage(ctx, to, msg)
}

func (s *waSocket) React(ctx context.Context, chat, sender types.JID, id types.MessageID, emoji string) error {
	_, err := s.cli.SendMessage(ctx, chat, s.cli.BuildReaction(chat, sender, id, emoji))
	return err
}

func (s *waSocket) Upload(ctx context.Context, data []byte, kind whatsmeow.MediaType) (whatsmeow.UploadResponse, error) {
	return s.cli.Upload(ctx, data, kind)
}

func (s *waSocket) Download(ctx context.Context, msg whatsmeow.DownloadableMessage) ([]byte, error) {
	return s.cli.Download(ctx, msg)
}

func (s *waSocket) GroupInfo(ctx context.Context, chat types.JID) (*types.GroupInfo, error) {
	return s.cli.GetGroupInfo(ctx, chat)
}

func (s *waSocket) UpdateParticipants(ctx context.Context, chat types.JID, users []types.JID, change whatsmeow.ParticipantChange) error {
	_, err := s.cli.UpdateGroupParticipants(ctx, chat, users, change)
	return err
}

func (s *waSocket) InviteLink(ctx context.Context, chat types.JID, reset bool) (string, error) {
	return s.cli.GetGroupInviteLink(ctx, chat, reset)
}

func (s *waSocket) SetAnnounce(ctx context.Context, chat types.JID, announce bool) error {
	return s.cli.SetGroupAnnounce(ctx, chat, announce)
}

func (s *waSocket) MarkRead(ctx context.Context, v *events.Message) error {
	return s.cli.MarkRead(ctx, []types.MessageID{v.Info.ID}, v.Info.Timestamp, v.Info.Chat, v.Info.Sender, types.ReceiptTypeRead)
}

func (s *waSocket) Presence(ctx context.Context, available bool) error {
	p := types.PresenceUnavailable
	if available {
		p = types.PresenceAvailable
	}
	return s.cli.SendPresence(ctx, p)
}

func (s *waSocket) OwnJID() types.JID {
	if s.cli.Store.ID == nil {
		return types.EmptyJID
	}
	return *s.cli.Store.ID
}

// --- outbound helpers shared by every handler ---

// reply sends a plain text message and returns the sent message ID, or ""
// when the send failed.
func (b *Bot) reply(ctx context.Context, chat types.JID, text string) types.MessageID {
	resp, err := b.Sock.SendMessage(ctx, chat, &waProto.Message{
		ExtendedTextMessage: &waProto.ExtendedTextMessage{Text: proto.String(text)},
	})
	if err != nil {
		logf("❌ [Send] reply to %s failed: %v", chat.User, err)
		return ""
	}
	return resp.ID
}

// replyFake decorates the reply with the cosmetic quoted contact.
func (b *Bot) replyFake(ctx context.Context, v *events.Message, text string) types.MessageID {
	resp, err := b.Sock.SendMessage(ctx, v.Info.Chat, &waProto.Message{
		ExtendedTextMessage: &waProto.ExtendedTextMessage{
			Text:        proto.String(text),
			ContextInfo: fakeContact(b.Cfg.BotName, v.Info.Sender),
		},
	})
	if err != nil {
		logf("❌ [Send] reply to %s failed: %v", v.Info.Chat.User, err)
		return ""
	}
	return resp.ID
}

func (b *Bot) react(ctx context.Context, v *events.Message, emoji string) {
	if err := b.Sock.React(ctx, v.Info.Chat, v.Info.Sender, v.Info.ID, emoji); err != nil {
		logf("❌ [Send] reaction failed: %v", err)
	}
}

func (b *Bot) sendImage(ctx context.Context, chat types.JID, data []byte, caption string) error {
	up, err := b.Sock.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return err
	}
	_, err = b.Sock.SendMessage(ctx, chat, &waProto.Message{ImageMessage: &waProto.ImageMessage{
		Caption:       proto.String(caption),
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(uint64(len(data))),
		Mimetype:      proto.String("image/jpeg"),
	}})
	return err
}

func (b *Bot) sendVideo(ctx context.Context, chat types.JID, data []byte, caption string, gif bool) error {
	up, err := b.Sock.Upload(ctx, data, whatsmeow.MediaVideo)
	if err != nil {
		return err
	}
	_, err = b.Sock.SendMessage(ctx, chat, &waProto.Message{VideoMessage: &waProto.VideoMessage{
		Caption:       proto.String(caption),
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(uint64(len(data))),
		Mimetype:      proto.String("video/mp4"),
		GifPlayback:   proto.Bool(gif),
	}})
	return err
}

func (b *Bot) sendSticker(ctx context.Context, chat types.JID, data []byte) error {
	up, err := b.Sock.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return err
	}
	_, err = b.Sock.SendMessage(ctx, chat, &waProto.Message{StickerMessage: &waProto.StickerMessage{
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(uint64(len(data))),
		Mimetype:      proto.String("image/webp"),
	}})
	return err
}

func (b *Bot) sendDocument(ctx context.Context, chat types.JID, data []byte, name, mime string) error {
	up, err := b.Sock.Upload(ctx, data, whatsmeow.MediaDocument)
	if err != nil {
		return err
	}
	_, err = b.Sock.SendMessage(ctx, chat, &waProto.Message{DocumentMessage: &waProto.DocumentMessage{
		FileName:      proto.String(name),
		Mimetype:      proto.String(mime),
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(uint64(len(data))),
	}})
	return err
}

// pace sleeps between bulk roster mutations so the transport is not
// rate-limited. Zero in tests.
func (b *Bot) pace() {
	if b.Pace > 0 {
		time.Sleep(b.Pace)
	}
}
