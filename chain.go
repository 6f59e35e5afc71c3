package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Timeouts scale with the expected payload: text < image < video.
const (
	textTimeout  = 15 * time.Second
	imageTimeout = 30 * time.Second
	videoTimeout = 60 * time.Second
)

// errExhausted means every candidate in a fallback chain failed or came
// back empty. The caller sends one "service unavailable" reply.
var errExhausted = errors.New("all candidates exhausted")

// Candidate is one entry of a fallback chain: a named fetch with its own
// timeout. Errors, timeouts and empty results are all treated the same —
// skip to the next candidate.
type Candidate struct {
	Name    string
	Timeout time.Duration
	Fetch   func(ctx context.Context) (string, error)
}

// runChain tries candidates in order and returns the first non-empty
// trimmed result.
func runChain(ctx context.Context, cands []Candidate) (string, error) {
	for _, c := range cands {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = textTimeout
		}
		cctx, cancel := context.WithTimeout(ctx, timeout)
		out, err := c.Fetch(cctx)
		cancel()
		if err != nil {
			logf("⚠️ [Chain] %s skipped: %v", c.Name, err)
			continue
		}
		if s := strings.TrimSpace(out); s != "" {
			return s, nil
		}
		logf("⚠️ [Chain] %s returned empty result", c.Name)
	}
	return "", errExhausted
}

// runMediaChain is the byte-stream variant of runChain: it tries each URL
// in order and returns the first body carrying the wanted content type.
func runMediaChain(ctx context.Context, hc *http.Client, urls []string, wantPrefix string, timeout time.Duration) ([]byte, error) {
	for _, u := range urls {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		data, contentType, err := fetchBytes(cctx, hc, u)
		cancel()
		if err != nil || !strings.HasPrefix(contentType, wantPrefix) || len(data) == 0 {
			logf("⚠️ [Chain] %s skipped: %v (%s)", u, err, contentType)
			continue
		}
		return data, nil
	}
	return nil, errExhausted
}

// getBody fetches a URL and returns the raw body as a string.
func getBody(ctx context.Context, hc *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// fetchBytes downloads a binary payload, returning the content type so
// callers can reject non-media bodies.
func fetchBytes(ctx context.Context, hc *http.Client, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// uploadToCatbox pushes media bytes to the catbox file host and returns
// the public URL, used by services that only take a URL input.
func uploadToCatbox(ctx context.Context, b *Bot, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("fileToUpload", "f.jpg")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.WriteField("reqtype", "fileupload"); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	cctx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(cctx, http.MethodPost, "https://catbox.moe/user/api.php", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := b.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	link := strings.TrimSpace(string(body))
	if !strings.HasPrefix(link, "http") {
		return "", fmt.Errorf("unexpected catbox response: %q", firstLine(body))
	}
	return link, nil
}

// extractFirst pulls the first non-empty string found under any of the
// known result keys of a JSON body. The free AI endpoints disagree on
// where the answer lives.
func extractFirst(body string, keys ...string) string {
	if !gjson.Valid(body) {
		return ""
	}
	for _, key := range keys {
		if v := gjson.Get(body, key); v.Exists() {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}
