// Package fanout sends one prompt to several providers in turn and collects
// an independent result from each.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"gamedev-ai/internal/connector"
	"gamedev-ai/internal/eventbus"
)

// DefaultPacing is the gap between consecutive providers.
const DefaultPacing = 2 * time.Second

// ErrEmptyPrompt is returned by AskAll for a blank prompt.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Factory is the part of connector.Factory the coordinator needs.
type Factory interface {
	Create(name connector.ProviderName) (connector.Connector, error)
	Names() []connector.ProviderName
}

// Coordinator runs fan-outs. It holds no per-request state and is safe for
// concurrent use; every call creates its own connectors.
type Coordinator struct {
	factory Factory
	pacing  time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	bus     *eventbus.Bus
	now     func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPacing sets the delay between consecutive providers. Zero disables it.
func WithPacing(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.pacing = d
		}
	}
}

// WithBus publishes progress events to bus.
func WithBus(bus *eventbus.Bus) Option {
	return func(c *Coordinator) { c.bus = bus }
}

// WithSleep replaces the pacing sleep.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Coordinator) { c.sleep = fn }
}

// New creates a coordinator over factory.
func New(factory Factory, opts ...Option) *Coordinator {
	c := &Coordinator{
		factory: factory,
		pacing:  DefaultPacing,
		sleep:   sleepCtx,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Pacing returns the configured inter-provider delay.
func (c *Coordinator) Pacing() time.Duration { return c.pacing }

// AskAll sends req.Prompt to every targeted provider. Provider failures are
// recorded in the report; the only errors returned are for an invalid
// request, and those are detected before any network call.
func (c *Coordinator) AskAll(ctx context.Context, req PromptRequest) (*Report, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	targets, err := c.resolve(req.Providers)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, ModeAsk, req.Prompt, targets, req.Restore), nil
}

// TestAll connects to every targeted provider without sending a prompt.
func (c *Coordinator) TestAll(ctx context.Context, providers []connector.ProviderName) (*Report, error) {
	targets, err := c.resolve(providers)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, ModeTest, "", targets, nil), nil
}

// resolve validates the filter against the registered providers and drops
// duplicates, keeping first-seen order.
func (c *Coordinator) resolve(filter []connector.ProviderName) ([]connector.ProviderName, error) {
	registered := c.factory.Names()
	if len(filter) == 0 {
		return registered, nil
	}
	known := make(map[connector.ProviderName]bool, len(registered))
	for _, n := range registered {
		known[n] = true
	}
	seen := make(map[connector.ProviderName]bool, len(filter))
	targets := make([]connector.ProviderName, 0, len(filter))
	for _, n := range filter {
		if !known[n] {
			return nil, &connector.Error{
				Kind:     connector.ErrorUnknownProvider,
				Provider: n,
				Message:  fmt.Sprintf("unknown provider: %s", n),
			}
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		targets = append(targets, n)
	}
	return targets, nil
}

func (c *Coordinator) run(ctx context.Context, mode Mode, prompt string, targets []connector.ProviderName, restore func(string) string) *Report {
	report := &Report{
		ID:        uuid.NewString(),
		Mode:      mode,
		Prompt:    prompt,
		Results:   make([]Result, 0, len(targets)),
		StartedAt: c.now(),
	}
	total := len(targets)
	c.publish(eventbus.TopicFanOutStarted, Progress{ReportID: report.ID, Mode: mode, Total: total})

	for i, name := range targets {
		if i > 0 && c.pacing > 0 && ctx.Err() == nil {
			// A canceled sleep leaves ctx done, which the next attempt records.
			_ = c.sleep(ctx, c.pacing)
		}

		c.publish(eventbus.TopicProviderStarted, Progress{
			ReportID: report.ID, Mode: mode, Provider: name, Index: i, Total: total,
		})

		start := c.now()
		res := c.attempt(ctx, mode, name, prompt)
		res.Duration = c.now().Sub(start)
		if res.OK && restore != nil {
			res.Text = restore(res.Text)
		}
		report.Results = append(report.Results, res)

		if !res.OK {
			log.Printf("[fanout] %s %s failed (%s): %s", mode, name, res.Kind, res.Message)
		}
		c.publish(eventbus.TopicProviderResult, Progress{
			ReportID: report.ID, Mode: mode, Provider: name, Index: i, Total: total, Result: &res,
		})
	}

	report.FinishedAt = c.now()
	summary := report.Summary()
	log.Printf("[fanout] %s %s finished: %s succeeded", mode, report.ID, summary)
	c.publish(eventbus.TopicFanOutFinished, Progress{
		ReportID: report.ID, Mode: mode, Index: total, Total: total, Summary: &summary,
	})
	return report
}

// attempt runs one provider and converts every outcome into a Result.
func (c *Coordinator) attempt(ctx context.Context, mode Mode, name connector.ProviderName, prompt string) Result {
	if err := ctx.Err(); err != nil {
		return failure(name, connector.ErrorCanceled, err.Error())
	}

	conn, err := c.factory.Create(name)
	if err != nil {
		return failure(name, kindOr(err, connector.ErrorUnknownProvider), err.Error())
	}

	ok, err := conn.Connect(ctx)
	if err != nil {
		return failure(name, kindOr(err, connector.ErrorConnection), err.Error())
	}
	if !ok {
		return failure(name, connector.ErrorAuth, "credential rejected by provider")
	}
	if mode == ModeTest {
		return success(name, "")
	}

	text, err := conn.SendPrompt(ctx, prompt)
	if err != nil {
		return failure(name, kindOr(err, connector.ErrorRequest), err.Error())
	}
	if text == "" {
		return failure(name, connector.ErrorRequest, "empty response")
	}
	return success(name, text)
}

func (c *Coordinator) publish(topic eventbus.Topic, p Progress) {
	if c.bus != nil {
		c.bus.Publish(topic, p)
	}
}

// kindOr classifies err, substituting fallback for errors that carry no
// connector kind.
func kindOr(err error, fallback connector.ErrorKind) connector.ErrorKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if k := connector.KindOf(err); k == connector.ErrorUnknown {
			return connector.ErrorCanceled
		}
	}
	if k := connector.KindOf(err); k != connector.ErrorUnknown {
		return k
	}
	return fallback
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
