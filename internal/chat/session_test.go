package chat

import (
	"encoding/json"
	"testing"
)

func TestNewMessageRejectsEmptyContent(t *testing.T) {
	if _, err := NewMessage(RoleUser, "", ""); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestNewMessageRejectsUnknownRole(t *testing.T) {
	if _, err := NewMessage("moderator", "hi", ""); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestValidateHistory(t *testing.T) {
	cases := []struct {
		name    string
		history []Message
		want    bool
	}{
		{"empty", nil, true},
		{"single user", []Message{{Role: RoleUser, Content: "hi"}}, true},
		{"alternating", []Message{
			{Role: RoleUser, Content: "a"},
			{Role: RoleAssistant, Content: "b"},
			{Role: RoleUser, Content: "c"},
		}, true},
		{"starts with assistant", []Message{{Role: RoleAssistant, Content: "a"}}, false},
		{"double user", []Message{
			{Role: RoleUser, Content: "a"},
			{Role: RoleUser, Content: "b"},
		}, false},
		{"round table stack", []Message{
			{Role: RoleUser, Content: "a"},
			{Role: RoleAssistant, Content: "b", Source: "A"},
			{Role: RoleAssistant, Content: "c", Source: "Chairman (m1)"},
		}, true},
	}
	for _, tc := range cases {
		if got := ValidateHistory(tc.history); got != tc.want {
			t.Errorf("%s: ValidateHistory = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAddParticipantDuplicate(t *testing.T) {
	var cfg RoundTableConfig
	ref := ModelRef{Provider: ProviderAnthropic, Model: "m1"}
	if err := cfg.AddParticipant("A", ref); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	other := ModelRef{Provider: ProviderOpenAI, Model: "m2"}
	if err := cfg.AddParticipant("A", other); err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
	if got := cfg.Models["A"]; got != ref {
		t.Fatalf("roster mutated by rejected add: %+v", got)
	}
	if len(cfg.Models) != 1 {
		t.Fatalf("expected 1 participant, got %d", len(cfg.Models))
	}
}

func TestAddParticipantEmptyName(t *testing.T) {
	var cfg RoundTableConfig
	if err := cfg.AddParticipant("", ModelRef{}); err == nil {
		t.Fatal("expected empty name to be rejected")
	}
}

func TestRoundTableClear(t *testing.T) {
	var cfg RoundTableConfig
	_ = cfg.AddParticipant("A", ModelRef{Provider: ProviderOpenAI, Model: "m"})
	cfg.SetChairman(ModelRef{Provider: ProviderAnthropic, Model: "c"})
	cfg.Clear()
	if len(cfg.Models) != 0 || cfg.Chairman != nil {
		t.Fatal("Clear did not empty roster and chairman")
	}
}

func TestClearHistoryPreservesConfig(t *testing.T) {
	s := NewSession("be terse")
	_ = s.RoundTable.AddParticipant("A", ModelRef{Provider: ProviderOpenAI, Model: "m"})
	_ = s.AddMessage(RoleUser, "hi", "")
	s.ClearHistory()
	if s.HasContent() {
		t.Fatal("history not cleared")
	}
	if s.System != "be terse" {
		t.Fatalf("system prompt changed: %q", s.System)
	}
	if len(s.RoundTable.Models) != 1 {
		t.Fatal("round table roster lost on clear")
	}
}

func TestSessionJSONRoundTrip(t *testing.T) {
	s := NewSession("sys")
	s.Mode = ModeRoundTable
	_ = s.RoundTable.AddParticipant("A", ModelRef{Provider: ProviderAnthropic, Model: "m1"})
	_ = s.RoundTable.AddParticipant("B", ModelRef{Provider: ProviderOpenRouter, Model: "m2"})
	s.RoundTable.SetChairman(ModelRef{Provider: ProviderAnthropic, Model: "m1"})
	_ = s.AddMessage(RoleUser, "Explain gravity", "")
	_ = s.AddMessage(RoleAssistant, "it pulls", "A")
	_ = s.AddMessage(RoleAssistant, "summary", "Chairman (m1)")

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got ChatSession
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.System != s.System || got.Mode != s.Mode {
		t.Fatalf("system/mode mismatch: %+v", got)
	}
	if len(got.History) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got.History))
	}
	if got.History[1].Source != "A" || got.History[2].Source != "Chairman (m1)" {
		t.Fatalf("sources lost: %+v", got.History)
	}
	if len(got.RoundTable.Models) != 2 {
		t.Fatalf("roster lost: %+v", got.RoundTable)
	}
	if got.RoundTable.Chairman == nil || got.RoundTable.Chairman.Model != "m1" {
		t.Fatalf("chairman lost: %+v", got.RoundTable.Chairman)
	}
}

func TestSessionJSONFieldNames(t *testing.T) {
	s := NewSession("sys")
	_ = s.AddMessage(RoleUser, "hi", "")
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	for _, field := range []string{"system", "history", "round_table", "mode"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing persisted field %q", field)
		}
	}
}

func TestSessionUnmarshalLegacyDefaults(t *testing.T) {
	// A session saved before round table support: no mode, no roster.
	legacy := `{"system":"sys","history":[{"role":"user","content":"hi"}]}`
	var s ChatSession
	if err := json.Unmarshal([]byte(legacy), &s); err != nil {
		t.Fatalf("unmarshal legacy: %v", err)
	}
	if s.Mode != ModeStandard {
		t.Fatalf("expected Standard mode default, got %q", s.Mode)
	}
	if len(s.RoundTable.Models) != 0 || s.RoundTable.Chairman != nil {
		t.Fatal("expected empty round table default")
	}
	if len(s.History) != 1 {
		t.Fatalf("history lost: %+v", s.History)
	}
}
