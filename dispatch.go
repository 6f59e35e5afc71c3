package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.mau.fi/whatsmeow/types/events"
)

// Bot bundles everything a handler needs. Store and AI may be nil when the
// backing service is not configured; helpers fall back to defaults.
type Bot struct {
	Sock      Socket
	Cfg       Config
	Store     *Store
	AI        Sessions
	HTTP      *http.Client
	Pace      time.Duration
	StartTime time.Time
}

func newBot(sock Socket, cfg Config) *Bot {
	return &Bot{
		Sock:      sock,
		Cfg:       cfg,
		HTTP:      &http.Client{Timeout: videoTimeout},
		Pace:      500 * time.Millisecond,
		StartTime: time.Now(),
	}
}

type HandlerFunc func(ctx context.Context, b *Bot, v *events.Message, args []string)

// Command wires a trigger word to a handler. Gates are declared here so the
// dispatcher can short-circuit with a fixed denial before the handler runs.
type Command struct {
	Name      string
	Aliases   []string
	Category  string
	Usage     string
	GroupOnly bool
	AdminOnly bool
	BotAdmin  bool
	OwnerOnly bool
	Execute   HandlerFunc
}

var commands = make(map[string]*Command)

// register adds a command to the static lookup table. Called from init
// functions; duplicate names are a programming error.
func register(c *Command) {
	for _, name := range append([]string{c.Name}, c.Aliases...) {
		if _, dup := commands[name]; dup {
			panic("duplicate command: " + name)
		}
		commands[name] = c
	}
}

// categories lists the registered categories in stable order for the menu.
func categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range commands {
		if !seen[c.Category] {
			seen[c.Category] = true
			out = append(out, c.Category)
		}
	}
	sort.Strings(out)
	return out
}

func commandsIn(category string) []*Command {
	seen := make(map[string]bool)
	var out []*Command
	for _, c := range commands {
		if c.Category == category && !seen[c.Name] {
			seen[c.Name] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

const (
	denyGroupOnly = "❌ This command only works in groups."
	denyOwnerOnly = "❌ Owner only command."
	denyNotAdmin  = "❌ You need to be a group admin to use this."
	denyBotAdmin  = "❌ I need to be a group admin first."
	denyNoRoster  = "❌ Could not verify group admins."
	replyFailed   = "❌ Command failed. Please try again later."
	replyNoAPI    = "😔 Service unavailable right now. Try again later."
	replyNoStore  = "⚠️ Settings storage is unavailable, nothing was changed."
)

func logf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// isOwner: self-sent messages count, so does the configured owner number.
func (b *Bot) isOwner(v *events.Message) bool {
	if v.Info.IsFromMe {
		return true
	}
	user := v.Info.Sender.ToNonAD().User
	if b.Cfg.OwnerNumber != "" && user == b.Cfg.OwnerNumber {
		return true
	}
	return user == b.Sock.OwnJID().ToNonAD().User
}

func (b *Bot) prefix() string {
	if b.Store != nil {
		if p := b.Store.Data().Prefix; p != "" {
			return p
		}
	}
	return b.Cfg.Prefix
}

// parseCommand splits "<prefix>cmd arg arg" into its parts. Returns ok=false
// when the text does not start with the prefix or has no command token.
func parseCommand(body, prefix string) (cmd string, args []string, ok bool) {
	body = strings.TrimSpace(body)
	if prefix == "" || !strings.HasPrefix(body, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(body[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// Dispatch resolves the trigger word and runs the handler behind the gate
// checks. It is the trust boundary: nothing a handler does may crash the
// event loop, so the handler runs under recover.
func (b *Bot) Dispatch(ctx context.Context, v *events.Message) {
	body := extractContent(v.Message).Text
	cmd, args, ok := parseCommand(body, b.prefix())
	if !ok {
		b.continueAI(ctx, v, body)
		return
	}
	c, found := commands[cmd]
	if !found {
		return
	}
	if !b.canExecute(ctx, v) {
		return
	}
	logf("📩 CMD: %s | Chat: %s | From: %s", cmd, v.Info.Chat.User, v.Info.Sender.User)

	if c.GroupOnly && !v.Info.IsGroup {
		b.reply(ctx, v.Info.Chat, denyGroupOnly)
		return
	}
	if c.OwnerOnly && !b.isOwner(v) {
		b.reply(ctx, v.Info.Chat, denyOwnerOnly)
		return
	}
	if c.AdminOnly || c.BotAdmin {
		perm, err := checkPerm(ctx, b.Sock, v.Info.Chat, v.Info.Sender)
		if err != nil {
			logf("⚠️ [Perm] %v", err)
			b.reply(ctx, v.Info.Chat, denyNoRoster)
			return
		}
		if c.AdminOnly && !perm.SenderIsAdmin && !b.isOwner(v) {
			b.reply(ctx, v.Info.Chat, denyNotAdmin)
			return
		}
		if c.BotAdmin && !perm.BotIsAdmin {
			b.reply(ctx, v.Info.Chat, denyBotAdmin)
			return
		}
	}

	defer func() {
		if r := recover(); r != nil {
			logf("❌ [Panic] %s: %v", c.Name, r)
			b.reply(ctx, v.Info.Chat, replyFailed)
		}
	}()
	c.Execute(ctx, b, v, args)
}

// canExecute applies the stored per-group mode: public (anyone), admin
// (group admins), private (owner only). The owner always passes.
func (b *Bot) canExecute(ctx context.Context, v *events.Message) bool {
	if b.isOwner(v) {
		return true
	}
	if b.Store == nil {
		return true
	}
	switch b.Store.GroupSettings(v.Info.Chat.String()).Mode {
	case "private":
		return false
	case "admin":
		perm, err := checkPerm(ctx, b.Sock, v.Info.Chat, v.Info.Sender)
		return err == nil && perm.SenderIsAdmin
	}
	return true
}

// usage sends the documented usage hint for an empty-input invocation.
func usage(ctx context.Context, b *Bot, v *events.Message, c string) {
	if cmd, ok := commands[c]; ok && cmd.Usage != "" {
		b.reply(ctx, v.Info.Chat, fmt.Sprintf("⚠️ Usage: %s%s", b.prefix(), cmd.Usage))
		return
	}
	b.reply(ctx, v.Info.Chat, "⚠️ Missing argument.")
}
