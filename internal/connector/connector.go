// Package connector adapts third-party prompt-completion APIs to one small
// contract: connect, then send a prompt and get text back.
package connector

import (
	"context"
	"fmt"
	"strings"
)

// ProviderName identifies a prompt-completion vendor.
type ProviderName string

const (
	Claude  ProviderName = "Claude"
	ChatGPT ProviderName = "ChatGPT"
	Gemini  ProviderName = "Gemini"
)

// aliases maps lowercase names, including the vendor names used by the
// settings command, onto provider names.
var aliases = map[string]ProviderName{
	"claude":    Claude,
	"anthropic": Claude,
	"chatgpt":   ChatGPT,
	"openai":    ChatGPT,
	"gemini":    Gemini,
	"google":    Gemini,
}

// ParseProviderName resolves a user-supplied name. It does not check that the
// provider is registered with any factory.
func ParseProviderName(s string) (ProviderName, error) {
	name, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", &Error{
			Kind:     ErrorUnknownProvider,
			Provider: ProviderName(s),
			Message:  fmt.Sprintf("unknown provider: %s", s),
		}
	}
	return name, nil
}

// Connector is the interface every provider variant implements.
type Connector interface {
	// Name returns the provider this connector talks to.
	Name() ProviderName

	// Connect resolves the credential and verifies it with the provider.
	// It returns false with a nil error when the provider rejects the
	// credential, and a Connection error when the credential is absent or
	// the provider cannot be reached.
	Connect(ctx context.Context) (bool, error)

	// SendPrompt sends a single prompt and returns the reply text.
	SendPrompt(ctx context.Context, text string) (string, error)

	// Connected reports whether Connect has succeeded on this instance.
	Connected() bool
}
