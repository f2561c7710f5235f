package policy

import (
	"context"
	"testing"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

func TestNewAvailability_ExcludesGroupsWithoutCredentials(t *testing.T) {
	a := NewAvailability(Credentials{}, false)
	for _, g := range []string{"group:metaculus", "group:exa", "group:asknews", "group:fred"} {
		if a.IsGroupAvailable(g) {
			t.Errorf("expected %s excluded with no credentials", g)
		}
	}
	if a.IsGroupAvailable("group:retrodict_search") {
		t.Error("expected group:retrodict_search excluded outside retrodict mode")
	}
}

func TestNewAvailability_RetrodictModeExcludesLiveTools(t *testing.T) {
	creds := Credentials{
		MetaculusToken: "tok", ExaAPIKey: "key",
		AskNewsClientID: "id", AskNewsClientSecret: "secret",
		FREDAPIKey: "fred",
	}
	a := NewAvailability(creds, true)
	if a.IsGroupAvailable("group:asknews") {
		t.Error("expected asknews excluded under retrodict mode regardless of credentials")
	}
	if a.IsGroupAvailable("group:live_markets") {
		t.Error("expected live_markets excluded under retrodict mode")
	}
	if a.IsGroupAvailable("group:browser") {
		t.Error("expected browser excluded under retrodict mode")
	}
	if !a.IsGroupAvailable("group:retrodict_search") {
		t.Error("expected retrodict_search available under retrodict mode")
	}
	if !a.IsGroupAvailable("group:historical_markets") {
		t.Error("expected historical_markets unaffected")
	}
}

func TestFromContext_ReadsRetrodictModeFromContext(t *testing.T) {
	ctx := retrodict.WithConfig(context.Background(), retrodict.Config{ForecastDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	a := FromContext(ctx, Credentials{})
	if a.IsGroupAvailable("group:live_markets") {
		t.Error("expected live_markets excluded when retrodict active via context")
	}
}

func TestGetAllowedTools_DropsSpawnWhenNotAllowed(t *testing.T) {
	a := NewAvailability(Credentials{
		MetaculusToken: "tok", ExaAPIKey: "key",
		AskNewsClientID: "id", AskNewsClientSecret: "secret",
		FREDAPIKey: "fred",
	}, false)

	withSpawn := a.GetAllowedTools("forecaster", true)
	withoutSpawn := a.GetAllowedTools("forecaster", false)

	found := false
	for _, tool := range withSpawn {
		if tool == "spawn_subquestions" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected spawn_subquestions allowed when allowSpawn=true")
	}
	for _, tool := range withoutSpawn {
		if tool == "spawn_subquestions" {
			t.Fatal("expected spawn_subquestions dropped when allowSpawn=false")
		}
	}
}

func TestGetAllowedTools_UnknownProfileReturnsNil(t *testing.T) {
	a := NewAvailability(Credentials{}, false)
	if got := a.GetAllowedTools("nonexistent", true); got != nil {
		t.Fatalf("expected nil for unknown profile, got %v", got)
	}
}

func TestIsToolAvailable_BuiltinToolsAlwaysAvailable(t *testing.T) {
	a := NewAvailability(Credentials{}, false)
	if !a.IsToolAvailable("bash") {
		t.Error("expected builtin tool always available")
	}
}

func TestIsToolAvailable_ExcludedWhenCredentialMissing(t *testing.T) {
	a := NewAvailability(Credentials{}, false)
	if a.IsToolAvailable("search_exa") {
		t.Error("expected search_exa unavailable without EXA_API_KEY")
	}
}
