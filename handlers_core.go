package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.mau.fi/whatsmeow/types/events"
)

func init() {
	register(&Command{Name: "menu", Aliases: []string{"help", "list"}, Category: "Core", Execute: cmdMenu})
	register(&Command{Name: "ping", Category: "Core", Execute: cmdPing})
	register(&Command{Name: "id", Category: "Core", Execute: cmdID})
	register(&Command{Name: "owner", Category: "Core", Execute: cmdOwner})
	register(&Command{Name: "stats", Category: "Core", Execute: cmdStats})
	register(&Command{Name: "host", Category: "Core", Execute: cmdHost})
	register(&Command{Name: "setprefix", Category: "Settings", Usage: "setprefix <symbol>", OwnerOnly: true, Execute: cmdSetPrefix})
	register(&Command{Name: "mode", Category: "Settings", Usage: "mode public|admin|private", GroupOnly: true, AdminOnly: true, Execute: cmdMode})
	register(&Command{Name: "alwaysonline", Category: "Settings", OwnerOnly: true, Execute: cmdAlwaysOnline})
	register(&Command{Name: "autoread", Category: "Settings", OwnerOnly: true, Execute: cmdAutoRead})
	register(&Command{Name: "autoreact", Category: "Settings", OwnerOnly: true, Execute: cmdAutoReact})
}

func makeCard(title, body string) string {
	return fmt.Sprintf("╭━━━〔 %s 〕━━━┈\n%s\n╰━━━━━━━━━━━━━━━━━━┈", title, body)
}

// cmdMenu renders the command list from the registry, grouped by category.
func cmdMenu(ctx context.Context, b *Bot, v *events.Message, args []string) {
	b.react(ctx, v, "📜")
	p := b.prefix()
	uptime := time.Since(b.StartTime).Round(time.Second)

	var sb strings.Builder
	fmt.Fprintf(&sb, "👋 *%s*\n👑 *Owner:* %s\n⏳ *Uptime:* %s\n", b.Cfg.BotName, b.Cfg.OwnerName, uptime)
	for _, cat := range categories() {
		fmt.Fprintf(&sb, "\n╭━━〔 *%s* 〕━━┈\n", strings.ToUpper(cat))
		for _, c := range commandsIn(cat) {
			fmt.Fprintf(&sb, "┃ 🔸 *%s%s*\n", p, c.Name)
		}
		sb.WriteString("╰━━━━━━━━━━━━━━━━━━┈\n")
	}
	b.replyFake(ctx, v, sb.String())
}

func cmdPing(ctx context.Context, b *Bot, v *events.Message, args []string) {
	b.react(ctx, v, "⚡")
	latency := time.Since(v.Info.Timestamp).Round(time.Millisecond)
	uptime := time.Since(b.StartTime).Round(time.Second)
	b.replyFake(ctx, v, makeCard("PING", fmt.Sprintf("┃ ✨ *Speed:* %s\n┃ ⏱ *Uptime:* %s", latency, uptime)))
}

func cmdID(ctx context.Context, b *Bot, v *events.Message, args []string) {
	chatType := "Private"
	if v.Info.IsGroup {
		chatType = "Group"
	}
	b.reply(ctx, v.Info.Chat, makeCard("ID INFO", fmt.Sprintf(
		"┃ 👤 *User:* `%s`\n┃ 👥 *Chat:* `%s`\n┃ 🏷️ *Type:* %s",
		v.Info.Sender.User, v.Info.Chat.User, chatType)))
}

func cmdOwner(ctx context.Context, b *Bot, v *events.Message, args []string) {
	res := "❌ You are NOT the owner."
	if b.isOwner(v) {
		res = "👑 You are the OWNER!"
	}
	b.reply(ctx, v.Info.Chat, makeCard("OWNER", fmt.Sprintf(
		"┃ 🤖 *Bot:* %s\n┃ 👤 *You:* %s\n┃ %s",
		b.Sock.OwnJID().User, v.Info.Sender.User, res)))
}

func cmdStats(ctx context.Context, b *Bot, v *events.Message, args []string) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	b.reply(ctx, v.Info.Chat, makeCard("SYSTEM", fmt.Sprintf(
		"┃ 🚀 *RAM Used:* %d MB\n┃ 🧬 *Sys Memory:* %d MB\n┃ 🧠 *CPU Cores:* %d\n┃ 🧵 *Goroutines:* %d",
		m.Alloc/1024/1024, m.Sys/1024/1024, runtime.NumCPU(), runtime.NumGoroutine())))
}

func cmdHost(ctx context.Context, b *Bot, v *events.Message, args []string) {
	b.reply(ctx, v.Info.Chat, makeCard("HOST", fmt.Sprintf(
		"┃ 🖥️ *Platform:* %s\n┃ ⏳ *Uptime:* %s",
		hostPlatform(), time.Since(b.StartTime).Round(time.Second))))
}

func cmdSetPrefix(ctx context.Context, b *Bot, v *events.Message, args []string) {
	if len(args) == 0 {
		usage(ctx, b, v, "setprefix")
		return
	}
	p := args[0]
	if len(p) > 3 {
		b.reply(ctx, v.Info.Chat, "❌ Prefix too long, keep it short (e.g. `.`, `!`, `#`).")
		return
	}
	if b.Store == nil {
		b.reply(ctx, v.Info.Chat, replyNoStore)
		return
	}
	b.Store.Update(func(d *BotData) { d.Prefix = p })
	b.reply(ctx, v.Info.Chat, makeCard("SETTINGS", "┃ ✅ Prefix updated: "+p))
}

func cmdMode(ctx context.Context, b *Bot, v *events.Message, args []string) {
	if len(args) == 0 {
		usage(ctx, b, v, "mode")
		return
	}
	mode := strings.ToLower(args[0])
	switch mode {
	case "public", "admin", "private":
	default:
		usage(ctx, b, v, "mode")
		return
	}
	if b.Store == nil {
		b.reply(ctx, v.Info.Chat, replyNoStore)
		return
	}
	b.Store.SetGroupMode(v.Info.Chat.String(), mode)
	b.reply(ctx, v.Info.Chat, makeCard("MODE", "┃ 🔒 Mode: "+strings.ToUpper(mode)))
}

func cmdAlwaysOnline(ctx context.Context, b *Bot, v *events.Message, args []string) {
	if b.Store == nil {
		b.reply(ctx, v.Info.Chat, replyNoStore)
		return
	}
	on := b.toggle(func(d *BotData) *bool { return &d.AlwaysOnline })
	if err := b.Sock.Presence(ctx, on); err != nil {
		logf("⚠️ [Presence] %v", err)
	}
	b.reply(ctx, v.Info.Chat, toggleText("ALWAYSONLINE", on))
}

func cmdAutoRead(ctx context.Context, b *Bot, v *events.Message, args []string) {
	if b.Store == nil {
		b.reply(ctx, v.Info.Chat, replyNoStore)
		return
	}
	b.reply(ctx, v.Info.Chat, toggleText("AUTOREAD", b.toggle(func(d *BotData) *bool { return &d.AutoRead })))
}

func cmdAutoReact(ctx context.Context, b *Bot, v *events.Message, args []string) {
	if b.Store == nil {
		b.reply(ctx, v.Info.Chat, replyNoStore)
		return
	}
	b.reply(ctx, v.Info.Chat, toggleText("AUTOREACT", b.toggle(func(d *BotData) *bool { return &d.AutoReact })))
}

// toggle flips one BotData flag and returns the new value.
func (b *Bot) toggle(field func(*BotData) *bool) bool {
	var on bool
	if b.Store == nil {
		return false
	}
	b.Store.Update(func(d *BotData) {
		f := field(d)
		*f = !*f
		on = *f
	})
	return on
}

func toggleText(name string, on bool) string {
	if on {
		return fmt.Sprintf("⚙️ *%s:* ON 🟢", name)
	}
	return fmt.Sprintf("⚙️ *%s:* OFF 🔴", name)
}
