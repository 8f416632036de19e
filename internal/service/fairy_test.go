package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
)

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   [][]entities.ChatMessage
	keys    []string
	block   chan struct{}
	entered chan struct{}
}

func (c *fakeCompleter) Complete(_ context.Context, apiKey string, messages []entities.ChatMessage) (string, error) {
	if c.entered != nil {
		c.entered <- struct{}{}
	}
	if c.block != nil {
		<-c.block
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, messages)
	c.keys = append(c.keys, apiKey)
	return c.reply, c.err
}

type staticKeys struct {
	key string
	err error
}

func (k staticKeys) APIKey(context.Context, int64) (string, error) { return k.key, k.err }

func TestFairyAsk(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		err       error
		keys      staticKeys
		want      string
		inHistory bool
	}{
		{name: "model reply", reply: "  Four bags of 3 candies make 12!  ", keys: staticKeys{key: "k"}, want: "Four bags of 3 candies make 12!", inHistory: true},
		{name: "empty reply", reply: "   ", keys: staticKeys{key: "k"}, want: FairyDistracted},
		{name: "network error", err: errors.New("dial tcp: timeout"), keys: staticKeys{key: "k"}, want: FairyNetworkIssue},
		{name: "no key", keys: staticKeys{err: ErrNoAPIKey}, want: FairyNoKey},
		{name: "key lookup failure", keys: staticKeys{err: errors.New("db down")}, want: FairyNetworkIssue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCompleter{reply: tt.reply, err: tt.err}
			svc := NewFairyService(c, tt.keys, 10, zap.NewNop())

			got, err := svc.Ask(context.Background(), 1, "why is 3x4 12?")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("reply = %q, want %q", got, tt.want)
			}

			msgs := svc.transcripts[1].messages
			hasReply := len(msgs) == 2 && msgs[1].Role == entities.RoleAssistant
			if hasReply != tt.inHistory {
				t.Fatalf("transcript = %+v", msgs)
			}
		})
	}
}

func TestFairyAskEmptyQuestion(t *testing.T) {
	svc := NewFairyService(&fakeCompleter{}, staticKeys{key: "k"}, 10, zap.NewNop())

	if _, err := svc.Ask(context.Background(), 1, "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("err = %v, want %v", err, ErrEmptyQuestion)
	}
}

func TestFairySendsSystemPromptAndHistory(t *testing.T) {
	c := &fakeCompleter{reply: "answer"}
	svc := NewFairyService(c, staticKeys{key: "user-key"}, 4, zap.NewNop())
	ctx := context.Background()

	for _, q := range []string{"q1", "q2", "q3"} {
		if _, err := svc.Ask(ctx, 1, q); err != nil {
			t.Fatalf("Ask(%q): %v", q, err)
		}
	}

	last := c.calls[len(c.calls)-1]
	if last[0].Role != entities.RoleSystem {
		t.Fatalf("first message role = %q, want system", last[0].Role)
	}
	// system + at most 4 transcript entries
	if len(last) != 5 {
		t.Fatalf("messages sent = %d, want 5", len(last))
	}
	if last[len(last)-1].Text != "q3" {
		t.Fatalf("last message = %q, want q3", last[len(last)-1].Text)
	}
	if c.keys[0] != "user-key" {
		t.Fatalf("api key = %q", c.keys[0])
	}
}

func TestFairyRejectsConcurrentQuestion(t *testing.T) {
	c := &fakeCompleter{reply: "ok", block: make(chan struct{}), entered: make(chan struct{}, 1)}
	svc := NewFairyService(c, staticKeys{key: "k"}, 10, zap.NewNop())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Ask(ctx, 1, "first")
		done <- err
	}()
	<-c.entered

	if _, err := svc.Ask(ctx, 1, "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v, want %v", err, ErrBusy)
	}

	close(c.block)
	if err := <-done; err != nil {
		t.Fatalf("first question failed: %v", err)
	}
}

func TestFairyReset(t *testing.T) {
	svc := NewFairyService(&fakeCompleter{reply: "hi"}, staticKeys{key: "k"}, 10, zap.NewNop())

	if _, err := svc.Ask(context.Background(), 1, "hello"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	svc.Reset(1)

	if _, ok := svc.transcripts[1]; ok {
		t.Fatalf("transcript kept after reset")
	}
}
