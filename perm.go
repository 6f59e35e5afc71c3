package main

import (
	"context"
	"errors"
	"fmt"

	"go.mau.fi/whatsmeow/types"
)

// errLookup means the roster could not be fetched (not a group, transport
// down). Callers reply with a denial instead of propagating it.
var errLookup = errors.New("group roster lookup failed")

type PermResult struct {
	SenderIsAdmin bool
	BotIsAdmin    bool
}

// checkPerm fetches a fresh roster snapshot and reports admin rank for the
// sender and the bot. No caching: always current, never stale, at the cost
// of a refetch per call.
//
// The bot's own JID carries a device suffix the roster does not, so it is
// normalized before comparing.
func checkPerm(ctx context.Context, sock Socket, chat, sender types.JID) (PermResult, error) {
	info, err := sock.GroupInfo(ctx, chat)
	if err != nil {
		return PermResult{}, fmt.Errorf("%w: %v", errLookup, err)
	}
	if info == nil {
		return PermResult{}, errLookup
	}
	bot := sock.OwnJID().ToNonAD()
	var res PermResult
	for _, p := range info.Participants {
		if !p.IsAdmin && !p.IsSuperAdmin {
			continue
		}
		if p.JID.User == sender.User {
			res.SenderIsAdmin = true
		}
		if p.JID.User == bot.User {
			res.BotIsAdmin = true
		}
	}
	return res, nil
}
