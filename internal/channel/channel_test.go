package channel

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	tele "gopkg.in/telebot.v3"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want Command
	}{
		{"How do I save games?", Command{Name: "ask", Args: "How do I save games?"}},
		{"/status", Command{Name: "status"}},
		{"/ask@gamedev_bot  Claude,Gemini: hi ", Command{Name: "ask", Args: "Claude,Gemini: hi"}},
		{"/Preset weapon-variations", Command{Name: "preset", Args: "weapon-variations"}},
	}
	for _, c := range cases {
		if got := ParseCommand(c.in); got != c.want {
			t.Fatalf("ParseCommand(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("unexpected split %q", got)
	}

	text := strings.Repeat("a", 8) + "\n" + strings.Repeat("b", 8)
	got := splitMessage(text, 10)
	if len(got) != 2 || got[0] != strings.Repeat("a", 8) || got[1] != strings.Repeat("b", 8) {
		t.Fatalf("expected split at newline, got %q", got)
	}

	runes := strings.Repeat("é", 10) // 2 bytes each
	for _, chunk := range splitMessage(runes, 5) {
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk %q is not valid text", chunk)
		}
		if len(chunk)%2 != 0 {
			t.Fatalf("chunk %q cuts a rune", chunk)
		}
	}
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestConsoleChannel(t *testing.T) {
	out := &syncBuffer{}
	c := NewConsoleChannelIO(strings.NewReader("hello\n\n/status\n/quit\nignored\n"), out)

	var got []string
	c.OnMessage(func(m InboundMessage) {
		got = append(got, m.Text)
		_ = c.Send(context.Background(), OutboundMessage{ChatID: m.ChatID, Text: "echo " + m.Text})
	})
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("console loop did not finish")
	}

	if len(got) != 2 || got[0] != "hello" || got[1] != "/status" {
		t.Fatalf("unexpected messages %q", got)
	}
	if !strings.Contains(out.String(), "echo hello") {
		t.Fatalf("reply not written: %q", out.String())
	}
	if c.IsRunning() {
		t.Fatal("channel should stop at /quit")
	}
}

func TestTelegramAuthorization(t *testing.T) {
	tg := NewTelegramChannel(TelegramConfig{Token: "x", AllowedIDs: []int64{42}})

	var got []InboundMessage
	tg.OnMessage(func(m InboundMessage) { got = append(got, m) })

	if tg.receive(&tele.User{ID: 7, Username: "mallory"}, 100, "hi") {
		t.Fatal("unauthorized user should be ignored")
	}
	if !tg.receive(&tele.User{ID: 42, FirstName: "Ada"}, 100, "/status") {
		t.Fatal("authorized user should be delivered")
	}
	if tg.receive(nil, 100, "hi") {
		t.Fatal("nil sender should be ignored")
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].SenderID != "42" || got[0].ChatID != "100" || got[0].SenderName != "Ada" {
		t.Fatalf("unexpected message %+v", got[0])
	}
}

func TestTelegramSendBeforeStart(t *testing.T) {
	tg := NewTelegramChannel(TelegramConfig{Token: "x"})
	if err := tg.Send(context.Background(), OutboundMessage{ChatID: "1", Text: "hi"}); err == nil {
		t.Fatal("expected error before start")
	}
	if err := NewTelegramChannel(TelegramConfig{}).Start(context.Background()); err == nil {
		t.Fatal("expected error for empty token")
	}
}

type recordingChannel struct {
	name    string
	running bool
	sent    []OutboundMessage
	handler func(InboundMessage)
}

func (r *recordingChannel) Name() string                     { return r.name }
func (r *recordingChannel) Start(context.Context) error      { r.running = true; return nil }
func (r *recordingChannel) Stop(context.Context) error       { r.running = false; return nil }
func (r *recordingChannel) OnMessage(h func(InboundMessage)) { r.handler = h }
func (r *recordingChannel) IsRunning() bool                  { return r.running }
func (r *recordingChannel) Send(_ context.Context, m OutboundMessage) error {
	r.sent = append(r.sent, m)
	return nil
}

func TestManagerRoutesReplies(t *testing.T) {
	a := &recordingChannel{name: "a"}
	b := &recordingChannel{name: "b"}
	m := NewManager()
	m.Register(a)
	m.Register(b)

	var seen int
	m.OnMessage(func(InboundMessage) { seen++ })
	a.handler(InboundMessage{})
	b.handler(InboundMessage{})
	if seen != 2 {
		t.Fatalf("expected handler on both channels, got %d", seen)
	}

	if err := m.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := m.Reply(context.Background(), InboundMessage{ChannelName: "b", ChatID: "9"}, "ok"); err != nil {
		t.Fatal(err)
	}
	if len(b.sent) != 1 || b.sent[0].ChatID != "9" || len(a.sent) != 0 {
		t.Fatalf("reply misrouted: a=%v b=%v", a.sent, b.sent)
	}
	if err := m.Reply(context.Background(), InboundMessage{ChannelName: "zzz"}, "ok"); err == nil {
		t.Fatal("expected error for unknown channel")
	}

	m.StopAll(context.Background())
	for name, running := range m.List() {
		if running {
			t.Fatalf("%s still running", name)
		}
	}
}
