package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/genai"
)

func init() {
	register(&Command{Name: "bard", Aliases: []string{"ai"}, Category: "AI", Usage: "bard <prompt>", Execute: cmdBard})
	register(&Command{Name: "gpt", Category: "AI", Usage: "gpt <prompt>", Execute: cmdGPT})
	register(&Command{Name: "imagine", Category: "AI", Usage: "imagine <prompt>", Execute: cmdImagine})
	register(&Command{Name: "ssweb", Category: "Tools", Usage: "ssweb <url>", Execute: cmdSSWeb})
	register(&Command{Name: "weather", Category: "Tools", Usage: "weather <city>", Execute: cmdWeather})
	register(&Command{Name: "translate", Aliases: []string{"tr"}, Category: "Tools", Usage: "translate <lang> <text>", Execute: cmdTranslate})
}

// promptFrom takes the prompt from the arguments, falling back to the
// quoted message body.
func promptFrom(v *events.Message, args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	if q := quotedMessage(v.Message); q != nil {
		return extractContent(q).Text
	}
	return ""
}

func cmdBard(ctx context.Context, b *Bot, v *events.Message, args []string) {
	runAIChat(ctx, b, v, args, "bard", "Bard")
}

func cmdGPT(ctx context.Context, b *Bot, v *events.Message, args []string) {
	runAIChat(ctx, b, v, args, "gpt", "GPT-4")
}

func runAIChat(ctx context.Context, b *Bot, v *events.Message, args []string, name, persona string) {
	query := promptFrom(v, args)
	if query == "" {
		usage(ctx, b, v, name)
		return
	}
	b.react(ctx, v, "🧠")

	sender := v.Info.Sender.ToNonAD().String()
	var history string
	if b.AI != nil {
		if sess, ok := b.AI.Load(ctx, sender); ok {
			history = sess.History
		}
	}
	prompt := fmt.Sprintf(
		"System: You are %s. You are helpful, funny and precise. Respond in the user's language.\n%s\nUser: %s\nAI:",
		persona, history, query)

	out, err := runChain(ctx, b.textCandidates(prompt))
	if err != nil {
		b.reply(ctx, v.Info.Chat, replyNoAPI)
		return
	}
	// Save the ID of the message we just sent: replying to it continues
	// the conversation.
	id := b.replyFake(ctx, v, "🤖 "+out)
	if b.AI != nil && id != "" {
		b.AI.Save(ctx, sender, AISession{
			History:   history + "\nUser: " + query + "\nAI: " + out,
			Persona:   persona,
			LastMsgID: string(id),
		})
	}
}

// continueAI keeps a conversation going when the sender replies to the
// bot's last AI message with plain text, no prefix needed. Returns whether
// the message was consumed.
func (b *Bot) continueAI(ctx context.Context, v *events.Message, body string) bool {
	if b.AI == nil || v.Info.IsFromMe || strings.TrimSpace(body) == "" {
		return false
	}
	ci := contextInfo(v.Message)
	if ci == nil || ci.GetStanzaID() == "" {
		return false
	}
	sess, ok := b.AI.Load(ctx, v.Info.Sender.ToNonAD().String())
	if !ok || sess.LastMsgID == "" || sess.LastMsgID != ci.GetStanzaID() {
		return false
	}
	if !b.canExecute(ctx, v) {
		return false
	}
	logf("📩 AI: reply continuation | Chat: %s | From: %s", v.Info.Chat.User, v.Info.Sender.User)
	persona := sess.Persona
	if persona == "" {
		persona = "Bard"
	}
	runAIChat(ctx, b, v, strings.Fields(body), "bard", persona)
	return true
}

// textCandidates is the ordered AI-text fallback chain. Gemini leads when a
// key is configured, then the free HTTP endpoints.
func (b *Bot) textCandidates(prompt string) []Candidate {
	var cands []Candidate
	if b.Cfg.GeminiKey != "" {
		cands = append(cands, Candidate{
			Name:    "gemini",
			Timeout: imageTimeout,
			Fetch: func(ctx context.Context) (string, error) {
				cl, err := genai.NewClient(ctx, &genai.ClientConfig{
					APIKey:  b.Cfg.GeminiKey,
					Backend: genai.BackendGeminiAPI,
				})
				if err != nil {
					return "", err
				}
				res, err := cl.Models.GenerateContent(ctx, "gemini-2.0-flash", genai.Text(prompt), nil)
				if err != nil {
					return "", err
				}
				return res.Text(), nil
			},
		})
	}
	for _, model := range []string{"openai", "mistral"} {
		model := model
		cands = append(cands, Candidate{
			Name:    "pollinations/" + model,
			Timeout: imageTimeout,
			Fetch: func(ctx context.Context) (string, error) {
				return getBody(ctx, b.HTTP, fmt.Sprintf(
					"https://text.pollinations.ai/%s?model=%s", url.QueryEscape(prompt), model))
			},
		})
	}
	cands = append(cands, Candidate{
		Name: "dreaded",
		Fetch: func(ctx context.Context) (string, error) {
			body, err := getBody(ctx, b.HTTP,
				"https://api.dreaded.site/api/chatgpt?text="+url.QueryEscape(prompt))
			if err != nil {
				return "", err
			}
			return extractFirst(body, "result.prompt", "result", "response", "answer", "message"), nil
		},
	})
	return cands
}

func cmdImagine(ctx context.Context, b *Bot, v *events.Message, args []string) {
	prompt := promptFrom(v, args)
	if prompt == "" {
		usage(ctx, b, v, "imagine")
		return
	}
	b.react(ctx, v, "🎨")

	endpoints := []string{
		"https://image.pollinations.ai/prompt/" + url.PathEscape(prompt),
		"https://api.dreaded.site/api/imagine?text=" + url.QueryEscape(prompt),
	}
	data, err := runMediaChain(ctx, b.HTTP, endpoints, "image/", videoTimeout)
	if err != nil {
		b.reply(ctx, v.Info.Chat, replyNoAPI)
		return
	}
	if err := b.sendImage(ctx, v.Info.Chat, data, "🎨 "+prompt); err != nil {
		logf("❌ [Imagine] send failed: %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
	}
}

func cmdSSWeb(ctx context.Context, b *Bot, v *events.Message, args []string) {
	if len(args) == 0 {
		usage(ctx, b, v, "ssweb")
		return
	}
	target := args[0]
	if !strings.HasPrefix(target, "http") {
		target = "https://" + target
	}
	b.react(ctx, v, "📸")

	endpoints := []string{
		"https://image.thum.io/get/width/1280/" + target,
	}
	if b.Cfg.ScreenshotKey != "" {
		endpoints = append(endpoints,
			"https://api.screenshotmachine.com/?key="+b.Cfg.ScreenshotKey+"&dimension=1280x720&url="+url.QueryEscape(target))
	}
	data, err := runMediaChain(ctx, b.HTTP, endpoints, "image/", imageTimeout)
	if err != nil {
		b.reply(ctx, v.Info.Chat, replyNoAPI)
		return
	}
	if err := b.sendImage(ctx, v.Info.Chat, data, "📸 "+args[0]); err != nil {
		logf("❌ [SSWeb] send failed: %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
	}
}

func cmdWeather(ctx context.Context, b *Bot, v *events.Message, args []string) {
	if len(args) == 0 {
		usage(ctx, b, v, "weather")
		return
	}
	b.react(ctx, v, "🌦️")
	city := strings.Join(args, " ")
	cctx, cancel := context.WithTimeout(ctx, textTimeout)
	defer cancel()
	body, err := getBody(cctx, b.HTTP, "https://wttr.in/"+url.PathEscape(city)+"?format=%l:+%C+%t,+wind+%w")
	if err != nil || strings.TrimSpace(body) == "" {
		b.reply(ctx, v.Info.Chat, replyNoAPI)
		return
	}
	b.replyFake(ctx, v, "🌦️ "+strings.TrimSpace(body))
}

func cmdTranslate(ctx context.Context, b *Bot, v *events.Message, args []string) {
	lang := "en"
	if len(args) > 0 && len(args[0]) <= 3 {
		lang = strings.ToLower(args[0])
		args = args[1:]
	}
	text := promptFrom(v, args)
	if text == "" {
		usage(ctx, b, v, "translate")
		return
	}
	b.react(ctx, v, "🌍")
	cctx, cancel := context.WithTimeout(ctx, textTimeout)
	defer cancel()
	body, err := getBody(cctx, b.HTTP, fmt.Sprintf(
		"https://translate.googleapis.com/translate_a/single?client=gtx&sl=auto&tl=%s&dt=t&q=%s",
		lang, url.QueryEscape(text)))
	if err != nil {
		b.reply(ctx, v.Info.Chat, replyNoAPI)
		return
	}
	out := extractFirst(body, "0.0.0")
	if out == "" {
		b.reply(ctx, v.Info.Chat, replyNoAPI)
		return
	}
	b.replyFake(ctx, v, "🌍 "+out)
}
