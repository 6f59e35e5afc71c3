package main

import (
	"strings"
	"testing"

	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

func TestExtractContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		msg      *waProto.Message
		wantKind ContentKind
		wantText string
	}{
		{
			name:     "nil message",
			msg:      nil,
			wantKind: ContentNone,
		},
		{
			name:     "conversation",
			msg:      &waProto.Message{Conversation: proto.String("hello")},
			wantKind: ContentText,
			wantText: "hello",
		},
		{
			name:     "extended text",
			msg:      &waProto.Message{ExtendedTextMessage: &waProto.ExtendedTextMessage{Text: proto.String("hi")}},
			wantKind: ContentText,
			wantText: "hi",
		},
		{
			name:     "image with caption",
			msg:      &waProto.Message{ImageMessage: &waProto.ImageMessage{Caption: proto.String("pic")}},
			wantKind: ContentImage,
			wantText: "pic",
		},
		{
			name:     "video with caption",
			msg:      &waProto.Message{VideoMessage: &waProto.VideoMessage{Caption: proto.String("vid")}},
			wantKind: ContentVideo,
			wantText: "vid",
		},
		{
			name:     "sticker",
			msg:      &waProto.Message{StickerMessage: &waProto.StickerMessage{}},
			wantKind: ContentSticker,
		},
		{
			name:     "document",
			msg:      &waProto.Message{DocumentMessage: &waProto.DocumentMessage{Caption: proto.String("doc")}},
			wantKind: ContentDocument,
			wantText: "doc",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := extractContent(tc.msg)
			if got.Kind != tc.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tc.wantKind)
			}
			if got.Text != tc.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tc.wantText)
			}
		})
	}
}

func TestTargetJIDMentionBeforeQuoted(t *testing.T) {
	t.Parallel()

	msg := &waProto.Message{ExtendedTextMessage: &waProto.ExtendedTextMessage{
		Text: proto.String(".kick"),
		ContextInfo: &waProto.ContextInfo{
			MentionedJID: []string{"2222@" + types.DefaultUserServer},
			Participant:  proto.String("3333@" + types.DefaultUserServer),
		},
	}}
	got := targetJID(msg)
	if got == nil || got.User != "2222" {
		t.Fatalf("targetJID = %v, want mention 2222", got)
	}

	msg.ExtendedTextMessage.ContextInfo.MentionedJID = nil
	got = targetJID(msg)
	if got == nil || got.User != "3333" {
		t.Fatalf("targetJID = %v, want quoted participant 3333", got)
	}
}

func TestQuotedMessage(t *testing.T) {
	t.Parallel()

	inner := &waProto.Message{StickerMessage: &waProto.StickerMessage{}}
	msg := &waProto.Message{ExtendedTextMessage: &waProto.ExtendedTextMessage{
		Text:        proto.String(".toimg"),
		ContextInfo: &waProto.ContextInfo{QuotedMessage: inner},
	}}
	if got := quotedMessage(msg); got != inner {
		t.Errorf("quotedMessage = %v, want the quoted sticker", got)
	}
	if got := quotedMessage(&waProto.Message{Conversation: proto.String("x")}); got != nil {
		t.Errorf("quotedMessage = %v, want nil without context", got)
	}

	dl, kind := downloadable(msg)
	if dl == nil || kind != ContentSticker {
		t.Errorf("downloadable = (%v, %v), want quoted sticker", dl, kind)
	}
}

func TestFakeContactDeterministic(t *testing.T) {
	t.Parallel()

	sender := types.NewJID("12345", types.DefaultUserServer)
	a := fakeContact("Guard Bot", sender)
	b := fakeContact("Guard Bot", sender)
	if !proto.Equal(a, b) {
		t.Error("fakeContact is not deterministic for identical input")
	}

	vcard := a.GetQuotedMessage().GetContactMessage().GetVcard()
	for _, want := range []string{"BEGIN:VCARD", "VERSION:3.0", "FN:Guard Bot", "+12345", "END:VCARD"} {
		if !strings.Contains(vcard, want) {
			t.Errorf("vcard missing %q:\n%s", want, vcard)
		}
	}
}
