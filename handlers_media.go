package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.mau.fi/whatsmeow/types/events"
)

func init() {
	register(&Command{Name: "sticker", Aliases: []string{"s"}, Category: "Media", Usage: "sticker (reply to an image)", Execute: cmdSticker})
	register(&Command{Name: "toimg", Category: "Media", Usage: "toimg (reply to a sticker)", Execute: cmdToImg})
	register(&Command{Name: "togif", Category: "Media", Usage: "togif (reply to a sticker)", Execute: cmdToGif})
	register(&Command{Name: "tomp4", Category: "Media", Usage: "tomp4 (reply to a sticker)", Execute: cmdToMP4})
	register(&Command{Name: "blur", Category: "Media", Usage: "blur (reply to an image)", Execute: cmdBlur})
	register(&Command{Name: "removebg", Category: "Media", Usage: "removebg (reply to an image)", Execute: cmdRemoveBG})
}

// quotedMedia enforces the reply-context requirement: the command must be
// issued in reply to (or carry) media of the wanted kind. A mismatch is a
// usage error, not a failure.
func quotedMedia(ctx context.Context, b *Bot, v *events.Message, want ContentKind) ([]byte, bool) {
	dl, kind := downloadable(v.Message)
	if dl == nil || kind != want {
		b.reply(ctx, v.Info.Chat, fmt.Sprintf("⚠️ Reply to a %s with this command.", want))
		return nil, false
	}
	data, err := b.Sock.Download(ctx, dl)
	if err != nil {
		logf("❌ [Media] download failed: %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
		return nil, false
	}
	return data, true
}

// transcode runs one ffmpeg pass over a temp input file and returns the
// produced bytes. extraArgs go between input and output.
func transcode(data []byte, inExt, outExt string, extraArgs ...string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "waguard")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in."+inExt)
	out := filepath.Join(dir, "out."+outExt)
	if err := os.WriteFile(in, data, 0o644); err != nil {
		return nil, err
	}
	args := append([]string{"-y", "-i", in}, extraArgs...)
	args = append(args, out)
	if o, err := exec.Command("ffmpeg", args...).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %v: %s", err, firstLine(o))
	}
	res, err := os.ReadFile(out)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("ffmpeg produced empty output")
	}
	return res, nil
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i > 0 {
		return s[:i]
	}
	return s
}

func cmdSticker(ctx context.Context, b *Bot, v *events.Message, args []string) {
	data, ok := quotedMedia(ctx, b, v, ContentImage)
	if !ok {
		return
	}
	b.react(ctx, v, "🎨")
	webp, err := transcode(data, "jpg", "webp",
		"-vf", "scale=512:512:force_original_aspect_ratio=decrease", "-vcodec", "libwebp")
	if err != nil {
		logf("❌ [Sticker] %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
		return
	}
	if err := b.sendSticker(ctx, v.Info.Chat, webp); err != nil {
		logf("❌ [Sticker] send failed: %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
	}
}

func cmdToImg(ctx context.Context, b *Bot, v *events.Message, args []string) {
	data, ok := quotedMedia(ctx, b, v, ContentSticker)
	if !ok {
		return
	}
	b.react(ctx, v, "🖼️")
	png, err := transcode(data, "webp", "png")
	if err != nil {
		logf("❌ [ToImg] %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
		return
	}
	if err := b.sendImage(ctx, v.Info.Chat, png, ""); err != nil {
		logf("❌ [ToImg] send failed: %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
	}
}

func cmdToGif(ctx context.Context, b *Bot, v *events.Message, args []string) {
	animatedStickerToVideo(ctx, b, v, true)
}

func cmdToMP4(ctx context.Context, b *Bot, v *events.Message, args []string) {
	animatedStickerToVideo(ctx, b, v, false)
}

// WhatsApp "GIFs" are MP4s with the gif-playback flag, so both commands
// share one webp→mp4 pass.
func animatedStickerToVideo(ctx context.Context, b *Bot, v *events.Message, gif bool) {
	data, ok := quotedMedia(ctx, b, v, ContentSticker)
	if !ok {
		return
	}
	b.react(ctx, v, "🎥")
	mp4, err := transcode(data, "webp", "mp4",
		"-movflags", "faststart", "-pix_fmt", "yuv420p",
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2")
	if err != nil {
		logf("❌ [ToMP4] %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
		return
	}
	if err := b.sendVideo(ctx, v.Info.Chat, mp4, "", gif); err != nil {
		logf("❌ [ToMP4] send failed: %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
	}
}

func cmdBlur(ctx context.Context, b *Bot, v *events.Message, args []string) {
	data, ok := quotedMedia(ctx, b, v, ContentImage)
	if !ok {
		return
	}
	b.react(ctx, v, "🌫️")
	blurred, err := transcode(data, "jpg", "jpg", "-vf", "boxblur=10:2")
	if err != nil {
		logf("❌ [Blur] %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
		return
	}
	if err := b.sendImage(ctx, v.Info.Chat, blurred, "🌫️"); err != nil {
		logf("❌ [Blur] send failed: %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
	}
}

func cmdRemoveBG(ctx context.Context, b *Bot, v *events.Message, args []string) {
	data, ok := quotedMedia(ctx, b, v, ContentImage)
	if !ok {
		return
	}
	b.react(ctx, v, "✂️")
	hosted, err := uploadToCatbox(ctx, b, data)
	if err != nil {
		logf("❌ [RemoveBG] upload failed: %v", err)
		b.reply(ctx, v.Info.Chat, replyNoAPI)
		return
	}
	cctx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()
	out, contentType, err := fetchBytes(cctx, b.HTTP, "https://bk9.fun/tools/removebg?url="+hosted)
	if err != nil || !strings.HasPrefix(contentType, "image/") {
		logf("⚠️ [RemoveBG] service failed: %v (%s)", err, contentType)
		b.reply(ctx, v.Info.Chat, replyNoAPI)
		return
	}
	if err := b.sendImage(ctx, v.Info.Chat, out, "✂️"); err != nil {
		logf("❌ [RemoveBG] send failed: %v", err)
		b.reply(ctx, v.Info.Chat, replyFailed)
	}
}
