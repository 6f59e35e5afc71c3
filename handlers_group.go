package main

import (
	"context"
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func init() {
	register(&Command{Name: "kick", Category: "Group", Usage: "kick @user (or reply)", GroupOnly: true, AdminOnly: true, BotAdmin: true, Execute: cmdKick})
	register(&Command{Name: "add", Category: "Group", Usage: "add <number>", GroupOnly: true, AdminOnly: true, BotAdmin: true, Execute: cmdAdd})
	register(&Command{Name: "promote", Category: "Group", Usage: "promote @user (or reply)", GroupOnly: true, AdminOnly: true, BotAdmin: true, Execute: cmdPromote})
	register(&Command{Name: "demote", Category: "Group", Usage: "demote @user (or reply)", GroupOnly: true, AdminOnly: true, BotAdmin: true, Execute: cmdDemote})
	register(&Command{Name: "kickall", Category: "Group", GroupOnly: true, AdminOnly: true, BotAdmin: true, Execute: cmdKickAll})
	register(&Command{Name: "hijack", Category: "Group", GroupOnly: true, OwnerOnly: true, BotAdmin: true, Execute: cmdHijack})
	register(&Command{Name: "tagall", Category: "Group", GroupOnly: true, Execute: cmdTagAll})
	register(&Command{Name: "tagadmins", Category: "Group", GroupOnly: true, Execute: cmdTagAdmins})
	register(&Command{Name: "hidetag", Category: "Group", GroupOnly: true, AdminOnly: true, Execute: cmdHideTag})
	register(&Command{Name: "linkgroup", Aliases: []string{"grouplink"}, Category: "Group", GroupOnly: true, BotAdmin: true, Execute: cmdLinkGroup})
	register(&Command{Name: "resetlink", Aliases: []string{"revoke"}, Category: "Group", GroupOnly: true, AdminOnly: true, BotAdmin: true, Execute: cmdResetLink})
	register(&Command{Name: "group", Category: "Group", Usage: "group open|close", GroupOnly: true, AdminOnly: true, BotAdmin: true, Execute: cmdGroup})
	register(&Command{Name: "vcf", Category: "Group", GroupOnly: true, Execute: cmdVCF})
}

func cmdKick(ctx context.Context, b *Bot, v *events.Message, args []string) {
	changeParticipant(ctx, b, v, whatsmeow.ParticipantChangeRemove, "👢 Removed")
}

func cmdPromote(ctx context.Context, b *Bot, v *events.Message, args []string) {
	changeParticipant(ctx, b, v, whatsmeow.ParticipantChangePromote, "👑 Promoted")
}

func cmdDemote(ctx context.Context, b *Bot, v *events.Message, args []string) {
	changeParticipant(ctx, b, v, whatsmeow.ParticipantChangeDemote, "⬇️ Demoted")
}

func changeParticipant(ctx context.Context, b *Bot, v *events.Message, change whatsmeow.ParticipantChange, done string) {
	target := targetJID(v.Message)
	if target == nil {
		b.reply(ctx, v.Info.Chat, "⚠️ Mention a user or reply to their message.")
		return
	}
	if err := b.Sock.UpdateParticipants(ctx, v.Info.Chat, []types.JID{*target}, change); err != nil {
		logf("❌ [Group] %s %s failed: %v", change, target.User, err)
		b.reply(ctx, v.Info.Chat, replyFailed)
		return
	}
	b.reply(ctx, v.Info.Chat, fmt.Sprintf("%s @%s", done, target.User))
}

func cmdAdd(ctx context.Context, b *Bot, v *events.Message, args []string) {
	if len(args) == 0 {
		usage(ctx, b, v, "add")
		return
	}
	num := strings.TrimLeft(args[0], "+")
	jid, err := types.ParseJID(num + "@" + types.DefaultUserServer)
	if err != nil {
		b.reply(ctx, v.Info.Chat, "⚠️ Invalid number.")
		return
	}
	if err := b.Sock.UpdateParticipants(ctx, v.Info.Chat, []types.JID{jid}, whatsmeow.ParticipantChangeAdd); err != nil {
		logf("❌ [Group] add %s failed: %v", jid.User, err)
		b.reply(ctx, v.Info.Chat, replyFailed)
		return
	}
	b.reply(ctx, v.Info.Chat, "➕ Added +"+num)
}

// bulkTargets picks every participant except the invoking sender and the
// bot itself. keep filters further (nil keeps everyone).
func bulkTargets(info *types.GroupInfo, bot, sender types.JID, keep func(types.GroupParticipant) bool) []types.JID {
	bot = bot.ToNonAD()
	sender = sender.ToNonAD()
	var out []types.JID
	for _, p := range info.Participants {
		if p.JID.User == bot.User || p.JID.User == sender.User {
			continue
		}
		if keep != nil && !keep(p) {
			continue
		}
		out = append(out, p.JID)
	}
	return out
}

// mutateEach applies one roster change per target with the fixed inter-call
// delay. Per-target failures are logged and counted, never aborting the
// rest of the list.
func (b *Bot) mutateEach(ctx context.Context, chat types.JID, targets []types.JID, change whatsmeow.ParticipantChange) int {
	ok := 0
	for i, t := range targets {
		if i > 0 {
			b.pace()
		}
		if err := b.Sock.UpdateParticipants(ctx, chat, []types.JID{t}, change); err != nil {
			logf("⚠️ [Bulk] %s %s failed: %v", change, t.User, err)
			continue
		}
		ok++
	}
	return ok
}

func cmdKickAll(ctx context.Context, b *Bot, v *events.Message, args []string) {
	info, err := b.Sock.GroupInfo(ctx, v.Info.Chat)
	if err != nil {
		b.reply(ctx, v.Info.Chat, denyNoRoster)
		return
	}
	targets := bulkTargets(info, b.Sock.OwnJID(), v.Info.Sender, nil)
	if len(targets) == 0 {
		b.reply(ctx, v.Info.Chat, "ℹ️ Nobody to remove.")
		return
	}
	b.react(ctx, v, "🧹")
	ok := b.mutateEach(ctx, v.Info.Chat, targets, whatsmeow.ParticipantChangeRemove)
	b.reply(ctx, v.Info.Chat, fmt.Sprintf("🧹 Removed %d/%d members.", ok, len(targets)))
}

// cmdHijack demotes every other admin and re-promotes the requester. Owner
// only: this is privilege escalation, "sender is admin" is not enough.
// Partial failure is reported, never rolled back.
func cmdHijack(ctx context.Context, b *Bot, v *events.Message, args []string) {
	info, err := b.Sock.GroupInfo(ctx, v.Info.Chat)
	if err != nil {
		b.reply(ctx, v.Info.Chat, denyNoRoster)
		return
	}
	targets := bulkTargets(info, b.Sock.OwnJID(), v.Info.Sender, func(p types.GroupParticipant) bool {
		return p.IsAdmin || p.IsSuperAdmin
	})
	b.react(ctx, v, "⚔️")
	demoted := b.mutateEach(ctx, v.Info.Chat, targets, whatsmeow.ParticipantChangeDemote)

	requester := v.Info.Sender.ToNonAD()
	promoted := "✅"
	if requester.User != b.Sock.OwnJID().ToNonAD().User {
		b.pace()
		if err := b.Sock.UpdateParticipants(ctx, v.Info.Chat, []types.JID{requester}, whatsmeow.ParticipantChangePromote); err != nil {
			logf("⚠️ [Hijack] promote %s failed: %v", requester.User, err)
			promoted = "❌"
		}
	}
	b.reply(ctx, v.Info.Chat, fmt.Sprintf("⚔️ Demoted %d/%d admins. Requester promoted: %s", demoted, len(targets), promoted))
}

func cmdTagAll(ctx context.Context, b *Bot, v *events.Message, args []string) {
	tagParticipants(ctx, b, v, strings.Join(args, " "), "📣 *TAG ALL*", nil)
}

func cmdTagAdmins(ctx context.Context, b *Bot, v *events.Message, args []string) {
	tagParticipants(ctx, b, v, strings.Join(args, " "), "👑 *ADMINS*", func(p types.GroupParticipant) bool {
		return p.IsAdmin || p.IsSuperAdmin
	})
}

func tagParticipants(ctx context.Context, b *Bot, v *events.Message, text, header string, keep func(types.GroupParticipant) bool) {
	info, err := b.Sock.GroupInfo(ctx, v.Info.Chat)
	if err != nil {
		b.reply(ctx, v.Info.Chat, denyNoRoster)
		return
	}
	var mentions []string
	out := header + "\n" + text + "\n"
	for _, p := range info.Participants {
		if keep != nil && !keep(p) {
			continue
		}
		mentions = append(mentions, p.JID.String())
		out += "@" + p.JID.User + "\n"
	}
	if len(mentions) == 0 {
		b.reply(ctx, v.Info.Chat, "ℹ️ Nobody to tag.")
		return
	}
	_, err = b.Sock.SendMessage(ctx, v.Info.Chat, &waProto.Message{
		ExtendedTextMessage: &waProto.ExtendedTextMessage{
			Text:        proto.String(out),
			ContextInfo: &waProto.ContextInfo{MentionedJID: mentions},
		},
	})
	if err != nil {
		logf("❌ [Tag] send failed: %v", err)
	}
}

func cmdHideTag(ctx context.Context, b *Bot, v *events.Message, args []string) {
	info, err := b.Sock.GroupInfo(ctx, v.Info.Chat)
	if err != nil {
		b.reply(ctx, v.Info.Chat, denyNoRoster)
		return
	}
	var mentions []string
	for _, p := range info.Participants {
		mentions = append(mentions, p.JID.String())
	}
	text := strings.Join(args, " ")
	if text == "" {
		text = "📣"
	}
	_, err = b.Sock.SendMessage(ctx, v.Info.Chat, &waProto.Message{
		ExtendedTextMessage: &waProto.ExtendedTextMessage{
			Text:        proto.String(text),
			ContextInfo: &waProto.ContextInfo{MentionedJID: mentions},
		},
	})
	if err != nil {
		logf("❌ [HideTag] send failed: %v", err)
	}
}

func cmdLinkGroup(ctx context.Context, b *Bot, v *events.Message, args []string) {
	code, err := b.Sock.InviteLink(ctx, v.Info.Chat, false)
	if err != nil {
		logf("❌ [Link] fetch failed: %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
		return
	}
	b.replyFake(ctx, v, "🔗 "+inviteURL(code))
}

func cmdResetLink(ctx context.Context, b *Bot, v *events.Message, args []string) {
	code, err := b.Sock.InviteLink(ctx, v.Info.Chat, true)
	if err != nil {
		logf("❌ [Link] reset failed: %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
		return
	}
	b.reply(ctx, v.Info.Chat, "🔄 Link revoked. New link:\n"+inviteURL(code))
}

func inviteURL(code string) string {
	if strings.HasPrefix(code, "https://") {
		return code
	}
	return "https://chat.whatsapp.com/" + code
}

func cmdGroup(ctx context.Context, b *Bot, v *events.Message, args []string) {
	if len(args) == 0 {
		usage(ctx, b, v, "group")
		return
	}
	switch strings.ToLower(args[0]) {
	case "close":
		if err := b.Sock.SetAnnounce(ctx, v.Info.Chat, true); err != nil {
			b.reply(ctx, v.Info.Chat, replyFailed)
			return
		}
		b.reply(ctx, v.Info.Chat, "🔒 Group closed. Only admins can send messages.")
	case "open":
		if err := b.Sock.SetAnnounce(ctx, v.Info.Chat, false); err != nil {
			b.reply(ctx, v.Info.Chat, replyFailed)
			return
		}
		b.reply(ctx, v.Info.Chat, "🔓 Group opened. Everyone can send messages.")
	default:
		usage(ctx, b, v, "group")
	}
}

// buildVCF renders one VCARD 3.0 block per participant.
func buildVCF(participants []types.GroupParticipant) string {
	var sb strings.Builder
	for _, p := range participants {
		name := p.DisplayName
		if name == "" {
			name = "+" + p.JID.User
		}
		fmt.Fprintf(&sb, "BEGIN:VCARD\nVERSION:3.0\nFN:%s\nTEL;TYPE=CELL:+%s\nEND:VCARD\n", name, p.JID.User)
	}
	return sb.String()
}

func cmdVCF(ctx context.Context, b *Bot, v *events.Message, args []string) {
	info, err := b.Sock.GroupInfo(ctx, v.Info.Chat)
	if err != nil {
		b.reply(ctx, v.Info.Chat, denyNoRoster)
		return
	}
	b.react(ctx, v, "📇")
	vcf := buildVCF(info.Participants)
	name := strings.ReplaceAll(info.GroupName.Name, " ", "_")
	if name == "" {
		name = "group"
	}
	if err := b.sendDocument(ctx, v.Info.Chat, []byte(vcf), name+".vcf", "text/vcard"); err != nil {
		logf("❌ [VCF] send failed: %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
		return
	}
	b.reply(ctx, v.Info.Chat, fmt.Sprintf("📇 Exported %d contacts.", len(info.Participants)))
}
