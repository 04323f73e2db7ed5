package app

import (
	"runtime"
	"time"
)

// Status is the dashboard view of the running app. Credentials are masked.
type Status struct {
	Providers            []CredentialInfo `json:"providers"`
	Pacing               string           `json:"pacing"`
	PIIFiltering         bool             `json:"pii_filtering"`
	HistoryEnabled       bool             `json:"history_enabled"`
	PerceptualConfigured bool             `json:"perceptual_configured"`
	HasTelegram          bool             `json:"has_telegram"`
	SecureStore          bool             `json:"secure_store"`
	Memory               map[string]any   `json:"memory"`
	Time                 time.Time        `json:"time"`
}

// Status reports credential state and which optional components are active.
func (a *App) Status() Status {
	cfg := a.Config()
	return Status{
		Providers:            a.CredentialStatus(),
		Pacing:               cfg.Pacing().String(),
		PIIFiltering:         a.sanitizer.Enabled(),
		HistoryEnabled:       a.history != nil,
		PerceptualConfigured: a.validator.Configured(),
		HasTelegram:          a.TelegramConfig() != nil,
		SecureStore:          a.keyStore != nil,
		Memory:               MemStats(),
		Time:                 time.Now(),
	}
}

// MemStats returns current memory usage statistics.
func MemStats() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return map[string]any{
		"alloc_mb":      float64(m.Alloc) / 1024 / 1024,
		"sys_mb":        float64(m.Sys) / 1024 / 1024,
		"heap_alloc_mb": float64(m.HeapAlloc) / 1024 / 1024,
		"heap_objects":  m.HeapObjects,
		"goroutines":    runtime.NumGoroutine(),
		"gc_cycles":     m.NumGC,
	}
}
