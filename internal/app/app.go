// Package app wires configuration, credentials, connectors and storage into
// the operations every front end shares.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"gamedev-ai/internal/channel"
	"gamedev-ai/internal/config"
	"gamedev-ai/internal/connector"
	"gamedev-ai/internal/credential"
	"gamedev-ai/internal/eventbus"
	"gamedev-ai/internal/fanout"
	"gamedev-ai/internal/history"
	"gamedev-ai/internal/perceptual"
	"gamedev-ai/internal/preset"
	"gamedev-ai/internal/security"
)

const (
	keyringPlaceholder      = "[keyring]"
	secretNameTelegramToken = "telegram_token"
	maxLogEntries           = 1000

	// EnvMasterPassword unlocks the encrypted vault fallback.
	EnvMasterPassword = "GAMEDEV_AI_MASTER_PASSWORD"
	// EnvPerceptualToken is sent as a bearer token to the scorer.
	EnvPerceptualToken = "PERCEPTUAL_API_TOKEN"
)

// ErrHistoryDisabled is returned by history operations when no store is open.
var ErrHistoryDisabled = errors.New("history is disabled")

// Options configures New.
type Options struct {
	// Dir overrides ~/.gamedev-ai.
	Dir string
	// MasterPassword enables the encrypted vault; defaults to
	// $GAMEDEV_AI_MASTER_PASSWORD.
	MasterPassword string
	// Connectors replaces or adds connector variants by name.
	Connectors map[connector.ProviderName]connector.BuildFunc
	// Configure adjusts the loaded config before anything is built.
	Configure func(*config.Config)
}

// App holds the application state shared by the CLI, web and chat front
// ends.
type App struct {
	mu        sync.RWMutex // protects cfg
	cfg       *config.Config
	cfgLoader *config.Loader
	bus       *eventbus.Bus
	overlay   *credential.Overlay
	env       *credential.EnvResolver
	keyStore  *credential.KeyStore
	creds     credential.Chain
	factory   *connector.Factory
	coord     *fanout.Coordinator
	sanitizer *security.Sanitizer
	history   history.Store
	presets   *preset.Registry
	validator *perceptual.Validator
	unsub     []func()
	logsMu    sync.Mutex // protects logs
	logs      []LogEntry
}

// LogEntry is a log line exposed to front ends.
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// New loads config and builds every component.
func New(opts Options) (*App, error) {
	var (
		loader *config.Loader
		err    error
	)
	if opts.Dir != "" {
		loader, err = config.NewLoaderAt(opts.Dir)
	} else {
		loader, err = config.NewLoader()
	}
	if err != nil {
		return nil, fmt.Errorf("config loader: %w", err)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Configure != nil {
		opts.Configure(cfg)
	}

	a := &App{
		cfg:       cfg,
		cfgLoader: loader,
		bus:       eventbus.New(),
		overlay:   credential.NewOverlay(),
		env:       credential.NewEnvResolver(cfg.EnvOverrides()),
	}
	a.subscribeLogs()

	password := opts.MasterPassword
	if password == "" {
		password = os.Getenv(EnvMasterPassword)
	}
	ks, err := credential.NewKeyStore(credential.KeyStoreConfig{
		Dir:            loader.Dir(),
		UseKeyring:     cfg.Security.UseKeyring,
		MasterPassword: password,
	})
	if err != nil {
		log.Printf("[app] warning: no secure key store: %v (credentials come from the environment only)", err)
	} else {
		a.keyStore = ks
		a.resolveSecrets()
	}

	a.creds = credential.Chain{a.overlay, a.env}
	if a.keyStore != nil {
		a.creds = append(a.creds, credential.NewStoreResolver(a.keyStore))
	}

	a.factory = connector.NewFactory(a.creds, cfg.ConnectorSettings())
	for name, build := range opts.Connectors {
		a.factory.Register(name, build)
	}
	a.coord = fanout.New(a.factory, fanout.WithPacing(cfg.Pacing()), fanout.WithBus(a.bus))
	a.sanitizer = security.NewSanitizer(cfg.Security.PIIFiltering)

	a.presets, err = preset.Load(cfg.PresetsFile)
	if err != nil {
		return nil, err
	}

	var scorer perceptual.Scorer
	if cfg.Perceptual.Endpoint != "" {
		s := perceptual.NewHTTPScorer(cfg.Perceptual.Endpoint, time.Duration(cfg.Perceptual.TimeoutSecs)*time.Second)
		s.Token = os.Getenv(EnvPerceptualToken)
		scorer = s
	}
	a.validator = perceptual.NewValidator(scorer, a.bus)

	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(loader.HistoryPath())
		if err != nil {
			log.Printf("[app] failed to open history: %v", err)
		} else {
			a.history = store
		}
	}

	return a, nil
}

// Close releases the history database and event subscriptions.
func (a *App) Close() error {
	for _, u := range a.unsub {
		u()
	}
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

// Bus returns the event bus progress is published on.
func (a *App) Bus() *eventbus.Bus { return a.bus }

// Config returns the active config.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Providers returns the registered providers in attempt order.
func (a *App) Providers() []connector.ProviderName {
	return a.factory.Names()
}

// ParseProviders resolves user-supplied names. An empty list means all.
func (a *App) ParseProviders(raw []string) ([]connector.ProviderName, error) {
	var out []connector.ProviderName
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			part = strings.TrimSpace(part)
			if part == "" || strings.EqualFold(part, "all") {
				continue
			}
			name, err := a.factory.Lookup(part)
			if err != nil {
				return nil, err
			}
			out = append(out, name)
		}
	}
	return out, nil
}

// Ask sends prompt to the selected providers. PII is masked before the
// prompt leaves the process and restored in every reply.
func (a *App) Ask(ctx context.Context, prompt string, providers []string) (*fanout.Report, error) {
	targets, err := a.ParseProviders(providers)
	if err != nil {
		return nil, err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fanout.ErrEmptyPrompt
	}

	scope := a.sanitizer.Begin()
	sanitized := scope.Sanitize(prompt)
	if n := scope.Replaced(); n > 0 {
		log.Printf("[app] masked %d sensitive value(s) before sending", n)
	}

	report, err := a.coord.AskAll(ctx, fanout.PromptRequest{
		Prompt:    sanitized,
		Providers: targets,
		Restore:   scope.Restore,
	})
	if err != nil {
		return nil, err
	}
	report.Prompt = prompt

	a.record(ctx, report)
	if report.Summary().AllFailed() {
		a.bus.Publish(eventbus.TopicError, fmt.Sprintf("no provider answered (%s)", report.Summary()))
	}
	return report, nil
}

// TestConnections connects to the selected providers without prompting.
func (a *App) TestConnections(ctx context.Context, providers []string) (*fanout.Report, error) {
	targets, err := a.ParseProviders(providers)
	if err != nil {
		return nil, err
	}
	report, err := a.coord.TestAll(ctx, targets)
	if err != nil {
		return nil, err
	}
	a.bus.Publish(eventbus.TopicStatusChange, fmt.Sprintf("%s providers connected", report.Summary()))
	return report, nil
}

// PresetRun is a rendered preset and the fan-out it produced.
type PresetRun struct {
	Preset *preset.Preset `json:"preset"`
	Prompt string         `json:"prompt"`
	Report *fanout.Report `json:"report"`
}

// RunPreset renders a preset and asks the selected providers.
func (a *App) RunPreset(ctx context.Context, name string, input map[string]string, providers []string) (*PresetRun, error) {
	p, err := a.presets.Get(name)
	if err != nil {
		return nil, err
	}
	prompt, err := p.Render(input)
	if err != nil {
		return nil, err
	}
	report, err := a.Ask(ctx, prompt, providers)
	if err != nil {
		return nil, err
	}
	return &PresetRun{Preset: p, Prompt: prompt, Report: report}, nil
}

// Presets lists the available presets.
func (a *App) Presets() []*preset.Preset {
	return a.presets.List()
}

// ValidateContent scores a single piece of content.
func (a *App) ValidateContent(ctx context.Context, contentType, content string) (*perceptual.Result, error) {
	return a.validator.Validate(ctx, contentType, content)
}

// ValidateReport scores every successful answer of a stored report.
func (a *App) ValidateReport(ctx context.Context, reportID, contentType string) (*perceptual.ReportValidation, error) {
	report, err := a.Report(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return a.validator.ValidateReport(ctx, report, contentType)
}

// History lists stored reports, newest first.
func (a *App) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if a.history == nil {
		return nil, ErrHistoryDisabled
	}
	return a.history.List(ctx, limit)
}

// Report loads a stored report.
func (a *App) Report(ctx context.Context, id string) (*fanout.Report, error) {
	if a.history == nil {
		return nil, ErrHistoryDisabled
	}
	return a.history.Get(ctx, id)
}

func (a *App) record(ctx context.Context, report *fanout.Report) {
	if a.history == nil {
		return
	}
	if err := a.history.Save(ctx, report); err != nil {
		log.Printf("[app] failed to save report %s: %v", report.ID, err)
		a.bus.Publish(eventbus.TopicError, fmt.Errorf("save report: %w", err))
	}
}

// TelegramConfig returns the Telegram section with its token resolved, or
// nil when Telegram is not configured.
func (a *App) TelegramConfig() *channel.TelegramConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	tg := a.cfg.Channels.Telegram
	if tg == nil || tg.Token == "" || tg.Token == keyringPlaceholder {
		return nil
	}
	return &channel.TelegramConfig{Token: tg.Token, AllowedIDs: tg.AllowedIDs}
}

// SaveTelegramConfig stores the bot token in the key store and the rest in
// the config file.
func (a *App) SaveTelegramConfig(token string, allowedIDs []int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Channels.Telegram = &config.TelegramConfig{
		Token:      token,
		AllowedIDs: allowedIDs,
	}
	return a.saveConfig()
}

// resolveSecrets loads secrets from the key store into the in-memory config.
// A plaintext token found in config.json is moved into the key store.
func (a *App) resolveSecrets() {
	tg := a.cfg.Channels.Telegram
	if tg == nil {
		return
	}
	switch {
	case tg.Token == keyringPlaceholder:
		if val, err := a.keyStore.Get(secretNameTelegramToken); err == nil {
			tg.Token = val
		} else {
			log.Printf("[app] warning: failed to read Telegram token from key store: %v", err)
		}
	case tg.Token != "":
		if err := a.keyStore.Set(secretNameTelegramToken, tg.Token); err == nil {
			log.Println("[app] migrated Telegram token to secure storage")
			if err := a.saveConfig(); err != nil {
				log.Printf("[app] warning: failed to save config after secret migration: %v", err)
			}
		}
	}
}

// saveConfig writes config to disk with secrets replaced by placeholders.
// The in-memory config keeps the real values. Callers hold a.mu or are
// still constructing the App.
func (a *App) saveConfig() error {
	cfgForDisk := *a.cfg
	if a.keyStore != nil && cfgForDisk.Channels.Telegram != nil && cfgForDisk.Channels.Telegram.Token != "" {
		if err := a.keyStore.Set(secretNameTelegramToken, cfgForDisk.Channels.Telegram.Token); err != nil {
			log.Printf("[app] warning: failed to store Telegram token: %v", err)
		} else {
			tgCopy := *cfgForDisk.Channels.Telegram
			tgCopy.Token = keyringPlaceholder
			cfgForDisk.Channels.Telegram = &tgCopy
		}
	}
	return a.cfgLoader.Save(&cfgForDisk)
}

func (a *App) subscribeLogs() {
	a.unsub = append(a.unsub,
		a.bus.Subscribe(eventbus.TopicError, func(e eventbus.Event) {
			a.addLog("error", e.Payload, e.Timestamp)
		}),
		a.bus.Subscribe(eventbus.TopicStatusChange, func(e eventbus.Event) {
			a.addLog("info", e.Payload, e.Timestamp)
		}),
		a.bus.Subscribe(eventbus.TopicCredentialChange, func(e eventbus.Event) {
			a.addLog("info", e.Payload, e.Timestamp)
		}),
		a.bus.Subscribe(eventbus.TopicProviderResult, func(e eventbus.Event) {
			p, ok := e.Payload.(fanout.Progress)
			if !ok || p.Result == nil || p.Result.OK {
				return
			}
			a.addLog("warn", fmt.Sprintf("%s %s: %s (%s)", p.Mode, p.Provider, p.Result.Message, p.Result.Kind), e.Timestamp)
		}),
		a.bus.Subscribe(eventbus.TopicFanOutFinished, func(e eventbus.Event) {
			p, ok := e.Payload.(fanout.Progress)
			if !ok || p.Summary == nil {
				return
			}
			a.addLog("info", fmt.Sprintf("%s %s finished: %s succeeded", p.Mode, p.ReportID, p.Summary), e.Timestamp)
		}),
	)
}

func (a *App) addLog(level string, payload any, at time.Time) {
	entry := LogEntry{Level: level, Time: at}
	switch v := payload.(type) {
	case string:
		entry.Message = v
	case error:
		entry.Message = v.Error()
	default:
		entry.Message = fmt.Sprint(v)
	}
	a.logsMu.Lock()
	a.logs = append(a.logs, entry)
	if len(a.logs) > maxLogEntries {
		a.logs = a.logs[len(a.logs)-maxLogEntries/2:]
	}
	a.logsMu.Unlock()
}

// Logs returns recent log entries.
func (a *App) Logs() []LogEntry {
	a.logsMu.Lock()
	copied := make([]LogEntry, len(a.logs))
	copy(copied, a.logs)
	a.logsMu.Unlock()
	return copied
}
