package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ConsoleChannel reads prompts from a reader and writes replies to a writer,
// stdin and stdout by default.
type ConsoleChannel struct {
	mu      sync.Mutex
	in      io.Reader
	out     io.Writer
	handler func(InboundMessage)
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewConsoleChannel() *ConsoleChannel {
	return NewConsoleChannelIO(os.Stdin, os.Stdout)
}

// NewConsoleChannelIO creates a console channel over in and out.
func NewConsoleChannelIO(in io.Reader, out io.Writer) *ConsoleChannel {
	return &ConsoleChannel{in: in, out: out, done: make(chan struct{})}
}

func (c *ConsoleChannel) Name() string { return "console" }

func (c *ConsoleChannel) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true

	go c.readLoop(ctx)
	return nil
}

func (c *ConsoleChannel) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.running = false
	return nil
}

// Done is closed when input reaches EOF or "/quit" is entered.
func (c *ConsoleChannel) Done() <-chan struct{} {
	return c.done
}

func (c *ConsoleChannel) Send(_ context.Context, msg OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "\n%s\n\n> ", msg.Text)
	return err
}

func (c *ConsoleChannel) OnMessage(handler func(InboundMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

func (c *ConsoleChannel) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// readLoop delivers lines synchronously, so a prompt finishes before the
// next line is read.
func (c *ConsoleChannel) readLoop(ctx context.Context) {
	defer close(c.done)
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	c.prompt()

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		text := scanner.Text()
		if text == "" {
			c.prompt()
			continue
		}
		if cmd := ParseCommand(text); cmd.Name == "quit" || cmd.Name == "exit" {
			return
		}

		c.mu.Lock()
		handler := c.handler
		c.mu.Unlock()

		if handler != nil {
			handler(InboundMessage{
				ChannelName: "console",
				SenderID:    "local",
				SenderName:  "User",
				ChatID:      "console",
				Text:        text,
				Timestamp:   time.Now(),
			})
		}
	}
}

func (c *ConsoleChannel) prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, "> ")
}
