package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunChainFirstUsableWins(t *testing.T) {
	t.Parallel()

	calls := make([]int, 4)
	cands := []Candidate{
		{Name: "a", Fetch: func(ctx context.Context) (string, error) {
			calls[0]++
			return "", errors.New("down")
		}},
		{Name: "b", Fetch: func(ctx context.Context) (string, error) {
			calls[1]++
			return "   ", nil // whitespace only, not usable
		}},
		{Name: "c", Fetch: func(ctx context.Context) (string, error) {
			calls[2]++
			return "  answer  ", nil
		}},
		{Name: "d", Fetch: func(ctx context.Context) (string, error) {
			calls[3]++
			return "never", nil
		}},
	}

	out, err := runChain(context.Background(), cands)
	if err != nil {
		t.Fatalf("runChain: %v", err)
	}
	if out != "answer" {
		t.Errorf("out = %q, want %q", out, "answer")
	}
	for i, want := range []int{1, 1, 1, 0} {
		if calls[i] != want {
			t.Errorf("candidate %d called %d times, want %d", i, calls[i], want)
		}
	}
}

func TestRunChainExhausted(t *testing.T) {
	t.Parallel()

	calls := 0
	cand := Candidate{Fetch: func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("down")
	}}

	_, err := runChain(context.Background(), []Candidate{cand, cand, cand})
	if !errors.Is(err, errExhausted) {
		t.Fatalf("err = %v, want errExhausted", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRunChainTimeoutSkips(t *testing.T) {
	t.Parallel()

	cands := []Candidate{
		{Name: "slow", Timeout: 20 * time.Millisecond, Fetch: func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}},
		{Name: "fast", Fetch: func(ctx context.Context) (string, error) {
			return "ok", nil
		}},
	}

	out, err := runChain(context.Background(), cands)
	if err != nil {
		t.Fatalf("runChain: %v", err)
	}
	if out != "ok" {
		t.Errorf("out = %q, want %q", out, "ok")
	}
}

func TestExtractFirst(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		keys []string
		want string
	}{
		{name: "first key", body: `{"result":"x"}`, keys: []string{"result", "answer"}, want: "x"},
		{name: "fallback key", body: `{"answer":" y "}`, keys: []string{"result", "answer"}, want: "y"},
		{name: "nested key", body: `{"data":{"play":"z"}}`, keys: []string{"data.play"}, want: "z"},
		{name: "no match", body: `{"other":"x"}`, keys: []string{"result"}, want: ""},
		{name: "invalid json", body: `nope`, keys: []string{"result"}, want: ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := extractFirst(tc.body, tc.keys...); got != tc.want {
				t.Errorf("extractFirst = %q, want %q", got, tc.want)
			}
		})
	}
}
