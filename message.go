package main

import (
	"fmt"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

// ContentKind tags the payload variant of an inbound message so handlers
// never walk optional proto chains themselves.
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentText
	ContentImage
	ContentVideo
	ContentSticker
	ContentDocument
	ContentContact
)

func (k ContentKind) String() string {
	switch k {
	case ContentText:
		return "text"
	case ContentImage:
		return "image"
	case ContentVideo:
		return "video"
	case ContentSticker:
		return "sticker"
	case ContentDocument:
		return "document"
	case ContentContact:
		return "contact"
	default:
		return "none"
	}
}

type Content struct {
	Kind ContentKind
	Text string // body or caption
}

// extractContent is the single place that maps a raw proto message onto the
// tagged variant.
func extractContent(m *waProto.Message) Content {
	switch {
	case m == nil:
		return Content{}
	case m.Conversation != nil:
		return Content{Kind: ContentText, Text: m.GetConversation()}
	case m.ExtendedTextMessage != nil:
		return Content{Kind: ContentText, Text: m.ExtendedTextMessage.GetText()}
	case m.ImageMessage != nil:
		return Content{Kind: ContentImage, Text: m.ImageMessage.GetCaption()}
	case m.VideoMessage != nil:
		return Content{Kind: ContentVideo, Text: m.VideoMessage.GetCaption()}
	case m.StickerMessage != nil:
		return Content{Kind: ContentSticker}
	case m.DocumentMessage != nil:
		return Content{Kind: ContentDocument, Text: m.DocumentMessage.GetCaption()}
	case m.ContactMessage != nil:
		return Content{Kind: ContentContact, Text: m.ContactMessage.GetDisplayName()}
	}
	return Content{}
}

func contextInfo(m *waProto.Message) *waProto.ContextInfo {
	if m == nil {
		return nil
	}
	if m.ExtendedTextMessage != nil {
		return m.ExtendedTextMessage.GetContextInfo()
	}
	if m.ImageMessage != nil {
		return m.ImageMessage.GetContextInfo()
	}
	if m.VideoMessage != nil {
		return m.VideoMessage.GetContextInfo()
	}
	return nil
}

// quotedMessage unwraps the message this command was issued in reply to,
// or nil.
func quotedMessage(m *waProto.Message) *waProto.Message {
	if ci := contextInfo(m); ci != nil {
		return ci.GetQuotedMessage()
	}
	return nil
}

// targetJID resolves the user a group command acts on: first mention wins,
// then the quoted participant.
func targetJID(m *waProto.Message) *types.JID {
	ci := contextInfo(m)
	if ci == nil {
		return nil
	}
	if len(ci.GetMentionedJID()) > 0 {
		if j, err := types.ParseJID(ci.GetMentionedJID()[0]); err == nil {
			return &j
		}
	}
	if ci.Participant != nil {
		if j, err := types.ParseJID(ci.GetParticipant()); err == nil {
			return &j
		}
	}
	return nil
}

// downloadable picks the media payload out of the message itself or its
// quoted message, reporting which kind was found.
func downloadable(m *waProto.Message) (whatsmeow.DownloadableMessage, ContentKind) {
	if m == nil {
		return nil, ContentNone
	}
	switch {
	case m.ImageMessage != nil:
		return m.ImageMessage, ContentImage
	case m.VideoMessage != nil:
		return m.VideoMessage, ContentVideo
	case m.StickerMessage != nil:
		return m.StickerMessage, ContentSticker
	case m.DocumentMessage != nil:
		return m.DocumentMessage, ContentDocument
	}
	if q := quotedMessage(m); q != nil {
		return downloadable(q)
	}
	return nil, ContentNone
}

// fakeContact builds the cosmetic "quoted sender" decoration attached to
// replies. Pure and deterministic: the same trigger always yields the same
// structure.
func fakeContact(botName string, sender types.JID) *waProto.ContextInfo {
	vcard := fmt.Sprintf(
		"BEGIN:VCARD\nVERSION:3.0\nFN:%s\nTEL;type=CELL;waid=%s:+%s\nEND:VCARD",
		botName, sender.User, sender.User)
	return &waProto.ContextInfo{
		StanzaID:    proto.String("3EB0" + sender.User),
		Participant: proto.String("0@s.whatsapp.net"),
		QuotedMessage: &waProto.Message{
			ContactMessage: &waProto.ContactMessage{
				DisplayName: proto.String(botName),
				Vcard:       proto.String(vcard),
			},
		},
	}
}
