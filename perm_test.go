package main

import (
	"context"
	"errors"
	"testing"

	"go.mau.fi/whatsmeow/types"
)

func TestCheckPerm(t *testing.T) {
	t.Parallel()

	fs := newFakeSocket()
	fs.info = roster(
		participant("1111", true, false),
		participant("2222", false, false),
		participant("999", false, true),
	)

	tests := []struct {
		name       string
		sender     string
		wantSender bool
		wantBot    bool
	}{
		{name: "admin sender", sender: "1111", wantSender: true, wantBot: true},
		{name: "member sender", sender: "2222", wantSender: false, wantBot: true},
		{name: "unknown sender", sender: "3333", wantSender: false, wantBot: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, err := checkPerm(context.Background(), fs, testChat, types.NewJID(tc.sender, types.DefaultUserServer))
			if err != nil {
				t.Fatalf("checkPerm: %v", err)
			}
			if res.SenderIsAdmin != tc.wantSender {
				t.Errorf("SenderIsAdmin = %v, want %v", res.SenderIsAdmin, tc.wantSender)
			}
			if res.BotIsAdmin != tc.wantBot {
				t.Errorf("BotIsAdmin = %v, want %v", res.BotIsAdmin, tc.wantBot)
			}
		})
	}
}

func TestCheckPermNormalizesBotDevice(t *testing.T) {
	t.Parallel()

	fs := newFakeSocket()
	// Session JID carries a device suffix; the roster entry does not.
	fs.own = types.JID{User: "999", Device: 7, Server: types.DefaultUserServer}
	fs.info = roster(participant("999", true, false))

	res, err := checkPerm(context.Background(), fs, testChat, types.NewJID("1111", types.DefaultUserServer))
	if err != nil {
		t.Fatalf("checkPerm: %v", err)
	}
	if !res.BotIsAdmin {
		t.Error("BotIsAdmin = false, want true after device normalization")
	}
}

func TestCheckPermLookupFailure(t *testing.T) {
	t.Parallel()

	fs := newFakeSocket()
	fs.infoErr = errors.New("not a group")

	_, err := checkPerm(context.Background(), fs, testChat, testSender)
	if !errors.Is(err, errLookup) {
		t.Fatalf("err = %v, want errLookup", err)
	}
}
