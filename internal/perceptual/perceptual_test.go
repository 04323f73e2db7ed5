package perceptual

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamedev-ai/internal/connector"
	"gamedev-ai/internal/eventbus"
	"gamedev-ai/internal/fanout"
)

func newScorerServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req Request
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if strings.Contains(req.Content, "explode") {
			http.Error(w, "scorer crashed", http.StatusInternalServerError)
			return
		}
		res := Result{Valid: true, Confidence: 0.9, Violations: []string{}, Suggestions: []string{}}
		if strings.Contains(req.Content, "hate") {
			res = Result{Valid: false, Confidence: 0.6, Violations: []string{"toxic language"}, Suggestions: []string{"soften tone"}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestValidator(t *testing.T, calls *int32, bus *eventbus.Bus) *Validator {
	srv := newScorerServer(t, calls)
	scorer := NewHTTPScorer(srv.URL, time.Second)
	scorer.Token = "secret"
	return NewValidator(scorer, bus)
}

func TestValidate(t *testing.T) {
	var calls int32
	v := newTestValidator(t, &calls, nil)

	res, err := v.Validate(context.Background(), "dialogue", "Greetings, traveler.")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)

	res, err = v.Validate(context.Background(), "Weapons", "I hate this sword")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"toxic language"}, res.Violations)
}

func TestValidateRejectsBeforeNetwork(t *testing.T) {
	var calls int32
	v := newTestValidator(t, &calls, nil)

	_, err := v.Validate(context.Background(), "shaders", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")

	_, err = v.Validate(context.Background(), "items", "   ")
	require.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestNotConfigured(t *testing.T) {
	v := NewValidator(nil, nil)
	assert.False(t, v.Configured())
	_, err := v.Validate(context.Background(), "items", "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = v.ValidateReport(context.Background(), &fanout.Report{}, "items")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestValidateReportToleratesFailures(t *testing.T) {
	var calls int32
	bus := eventbus.New()
	var published int32
	bus.Subscribe(eventbus.TopicValidation, func(eventbus.Event) { atomic.AddInt32(&published, 1) })
	v := newTestValidator(t, &calls, bus)

	report := &fanout.Report{
		ID: "r1",
		Results: []fanout.Result{
			{Provider: connector.Claude, OK: true, Text: "A rusted blade."},
			{Provider: connector.ChatGPT, Kind: connector.ErrorConnection},
			{Provider: connector.Gemini, OK: true, Text: "explode"},
		},
	}

	out, err := v.ValidateReport(context.Background(), report, "weapons")
	require.NoError(t, err)
	require.Len(t, out.Entries, 2)
	assert.Equal(t, connector.Claude, out.Entries[0].Provider)
	require.NotNil(t, out.Entries[0].Result)
	assert.True(t, out.Entries[0].Result.Valid)
	assert.Equal(t, connector.Gemini, out.Entries[1].Provider)
	assert.Nil(t, out.Entries[1].Result)
	assert.Contains(t, out.Entries[1].Error, "500")
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&published))
}

func TestContentTypes(t *testing.T) {
	types := ContentTypes()
	assert.Len(t, types, 9)
	assert.Equal(t, "dialogue", types[0])

	d, err := DomainsFor("equipment")
	require.NoError(t, err)
	assert.Equal(t, []Domain{Sight, Sound}, d)
}
