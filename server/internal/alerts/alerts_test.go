package alerts

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/obsidianstack/logloss/pkg/types"
	"github.com/obsidianstack/logloss/server/internal/config"
)

var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func evaluation(dataset string, loss float64, state string) types.Evaluation {
	return types.Evaluation{
		Dataset:      dataset,
		Loss:         loss,
		BaselineLoss: 0.69,
		Skill:        1 - loss/0.69,
		Samples:      200,
		Clamped:      4,
		State:        state,
	}
}

// --- conditions ---

func TestParseCondition_Invalid(t *testing.T) {
	for _, cond := range []string{
		"",
		"loss >",
		"loss > 0.5 extra",
		"accuracy > 0.9",
		"loss ~ 0.5",
		"loss > high",
		"state > poor",
		"state == terrible",
	} {
		if _, err := parseCondition(cond); err == nil {
			t.Errorf("parseCondition(%q): expected error", cond)
		}
	}
}

func TestCondition_Eval(t *testing.T) {
	ev := evaluation("ds", 0.8, types.StatePoor)
	ev.Delta = 0.1
	ev.Interval = &types.Interval{Lower: 0.7, Upper: 0.9}

	tests := []struct {
		cond      string
		wantFire  bool
		wantValue float64
	}{
		{"loss > 0.5", true, 0.8},
		{"loss <= 0.5", false, 0.8},
		{"skill < 0", true, 1 - 0.8/0.69},
		{"samples < 100", false, 200},
		{"clamped >= 4", true, 4},
		{"clamped_pct > 1", true, 2},
		{"delta > 0.05", true, 0.1},
		{"interval_upper > 0.85", true, 0.9},
		{"interval_lower != 0.7", false, 0.7},
		{"state == poor", true, 0},
		{"state != poor", false, 0},
	}
	for _, tc := range tests {
		c, err := parseCondition(tc.cond)
		if err != nil {
			t.Fatalf("parseCondition(%q): %v", tc.cond, err)
		}
		fires, v := c.eval(ev)
		if fires != tc.wantFire {
			t.Errorf("%q: fires = %v, want %v", tc.cond, fires, tc.wantFire)
		}
		if math.Abs(v-tc.wantValue) > 1e-12 {
			t.Errorf("%q: value = %v, want %v", tc.cond, v, tc.wantValue)
		}
	}
}

func TestCondition_MissingFieldNeverFires(t *testing.T) {
	ev := evaluation("ds", 0.8, types.StateUnknown)
	for _, cond := range []string{"interval_upper > 0", "interval_lower < 100", "skill < 1"} {
		c, err := parseCondition(cond)
		if err != nil {
			t.Fatal(err)
		}
		if fires, _ := c.eval(ev); fires {
			t.Errorf("%q fired on an evaluation without that field", cond)
		}
	}
}

// --- engine ---

func newTestEngine(t *testing.T, cfg config.AlertsConfig) (*Engine, *time.Time) {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	now := baseTime
	e.now = func() time.Time { return now }
	return e, &now
}

func TestNew_RejectsBadRule(t *testing.T) {
	_, err := New(config.AlertsConfig{Rules: []config.AlertRule{{Name: "r", Condition: "loss is high"}}})
	if err == nil || !strings.Contains(err.Error(), `rule "r"`) {
		t.Errorf("New: err = %v, want rule error", err)
	}
}

func TestEngine_NoRules(t *testing.T) {
	e, _ := newTestEngine(t, config.AlertsConfig{})
	e.Evaluate(evaluation("ds", 5, types.StatePoor))
	if len(e.Active()) != 0 {
		t.Error("engine without rules produced alerts")
	}
}

func TestEngine_FireAndResolve(t *testing.T) {
	e, now := newTestEngine(t, config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "worse-than-base-rate", Condition: "state == poor", Severity: "critical"},
	}})

	e.Evaluate(evaluation("holdout", 0.9, types.StatePoor))
	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("Active: got %d alerts, want 1", len(active))
	}
	a := active[0]
	if a.State != StateFiring || a.Dataset != "holdout" || a.Severity != "critical" {
		t.Errorf("unexpected alert: %+v", a)
	}
	if e.Firing() != 1 {
		t.Errorf("Firing: got %d, want 1", e.Firing())
	}

	*now = now.Add(time.Minute)
	e.Evaluate(evaluation("holdout", 0.3, types.StateGood))
	if e.Firing() != 0 {
		t.Errorf("Firing after recovery: got %d, want 0", e.Firing())
	}
	active = e.Active()
	if len(active) != 1 || active[0].State != StateResolved || active[0].ResolvedAt == nil {
		t.Fatalf("expected one resolved alert, got %+v", active)
	}

	// Resolved alerts age out of Active after an hour.
	*now = now.Add(2 * time.Hour)
	if len(e.Active()) != 0 {
		t.Error("resolved alert still listed after the recent window")
	}
}

func TestEngine_Cooldown(t *testing.T) {
	e, now := newTestEngine(t, config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "high-loss", Condition: "loss > 0.5", Cooldown: 10 * time.Minute},
	}})

	e.Evaluate(evaluation("ds", 0.9, types.StatePoor))
	first := e.Active()[0].ID

	*now = now.Add(5 * time.Minute)
	e.Evaluate(evaluation("ds", 0.95, types.StatePoor))
	if got := e.Active()[0].ID; got != first {
		t.Error("alert re-fired inside the cooldown")
	}

	*now = now.Add(6 * time.Minute)
	e.Evaluate(evaluation("ds", 0.95, types.StatePoor))
	if got := e.Active()[0].ID; got == first {
		t.Error("alert did not re-fire after the cooldown")
	}
}

func TestEngine_KeyedByDataset(t *testing.T) {
	e, _ := newTestEngine(t, config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "high-loss", Condition: "loss > 0.5"},
	}})
	e.Evaluate(evaluation("a", 0.9, types.StatePoor))
	e.Evaluate(evaluation("b", 0.9, types.StatePoor))
	if e.Firing() != 2 {
		t.Errorf("Firing: got %d, want 2", e.Firing())
	}
	if a := e.Active()[0]; a.Severity != "warning" {
		t.Errorf("default severity: got %q, want warning", a.Severity)
	}
}

// --- webhooks ---

type captured struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (c *captured) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		c.mu.Lock()
		c.bodies = append(c.bodies, body)
		c.mu.Unlock()
	})
}

func (c *captured) get() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]any(nil), c.bodies...)
}

func TestEngine_WebhookDelivery(t *testing.T) {
	var slack, teams, hook captured
	slackSrv := httptest.NewServer(slack.handler())
	defer slackSrv.Close()
	teamsSrv := httptest.NewServer(teams.handler())
	defer teamsSrv.Close()
	hookSrv := httptest.NewServer(hook.handler())
	defer hookSrv.Close()

	t.Setenv("TEST_SLACK_URL", slackSrv.URL)
	t.Setenv("TEST_TEAMS_URL", teamsSrv.URL)
	t.Setenv("TEST_HOOK_URL", hookSrv.URL)

	e, now := newTestEngine(t, config.AlertsConfig{
		Rules: []config.AlertRule{{Name: "worse-than-base-rate", Condition: "state == poor", Severity: "critical"}},
		Webhooks: []config.WebhookConfig{
			{Type: "slack", URLEnv: "TEST_SLACK_URL"},
			{Type: "teams", URLEnv: "TEST_TEAMS_URL"},
			{Type: "http", URLEnv: "TEST_HOOK_URL"},
			{Type: "http", URLEnv: "TEST_UNSET_URL"},
		},
	})

	e.Evaluate(evaluation("holdout", 0.9, types.StatePoor))
	*now = now.Add(time.Minute)
	e.Evaluate(evaluation("holdout", 0.2, types.StateGood))
	e.Wait()

	slackBodies, teamsBodies, hookBodies := slack.get(), teams.get(), hook.get()

	if len(slackBodies) != 2 {
		t.Fatalf("slack received %d messages, want 2", len(slackBodies))
	}
	var sawFire bool
	for _, b := range slackBodies {
		text, _ := b["text"].(string)
		if strings.Contains(text, "[CRITICAL]") && strings.Contains(text, "holdout") {
			sawFire = true
		}
	}
	if !sawFire {
		t.Errorf("no slack message announced the firing alert: %+v", slackBodies)
	}
	if len(teamsBodies) != 2 || teamsBodies[0]["@type"] != "MessageCard" {
		t.Errorf("teams payloads = %+v", teamsBodies)
	}
	if len(hookBodies) != 2 {
		t.Fatalf("http hook received %d payloads, want 2", len(hookBodies))
	}
	states := map[string]bool{}
	for _, b := range hookBodies {
		alert, _ := b["alert"].(map[string]any)
		st, _ := alert["state"].(string)
		states[st] = true
	}
	if !states[StateFiring] || !states[StateResolved] {
		t.Errorf("http hook states = %v, want firing and resolved", states)
	}
}
