package policy

import (
	"context"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

// Credentials holds the API keys/tokens that gate optional tool groups.
// A zero-value field means the corresponding group is unavailable.
type Credentials struct {
	MetaculusToken      string
	ExaAPIKey           string
	AskNewsClientID     string
	AskNewsClientSecret string
	FREDAPIKey          string
}

// Availability computes which tool groups a forecast run may use, combining
// credential presence with retrodict-mode restrictions. It composes with
// (does not replace) the Policy/UnifiedPolicyBuilder machinery: callers
// intersect Availability's excluded set with whichever profile policy they
// build from ToolProfiles.
type Availability struct {
	creds     Credentials
	retrodict bool
	excluded  map[string]bool
}

// NewAvailability computes the excluded-group set once from the supplied
// credentials and retrodict mode, mirroring ToolPolicy.__post_init__.
func NewAvailability(creds Credentials, retrodictMode bool) *Availability {
	a := &Availability{creds: creds, retrodict: retrodictMode, excluded: map[string]bool{}}

	if creds.MetaculusToken == "" {
		a.excluded["group:metaculus"] = true
	}
	if creds.ExaAPIKey == "" {
		a.excluded["group:exa"] = true
	}
	if creds.AskNewsClientID == "" || creds.AskNewsClientSecret == "" {
		a.excluded["group:asknews"] = true
	}
	if creds.FREDAPIKey == "" {
		a.excluded["group:fred"] = true
	}

	// Retrodict mode disables tools that cannot be meaningfully restricted
	// to a past cutoff, regardless of credentials, and enables the
	// archive-validated replacement search path.
	if retrodictMode {
		a.excluded["group:asknews"] = true
		a.excluded["group:live_markets"] = true
		a.excluded["group:browser"] = true
	} else {
		a.excluded["group:retrodict_search"] = true
	}

	return a
}

// FromContext builds an Availability from credentials, reading retrodict
// mode off the context rather than requiring the caller to thread it
// through separately.
func FromContext(ctx context.Context, creds Credentials) *Availability {
	return NewAvailability(creds, retrodict.IsActive(ctx))
}

// IsGroupAvailable reports whether a group reference (e.g. "group:exa") is
// usable given the credentials and mode this Availability was built with.
// Unknown group names are treated as available (nothing excludes them).
func (a *Availability) IsGroupAvailable(group string) bool {
	return !a.excluded[group]
}

// IsToolAvailable reports whether a specific tool name is reachable through
// any non-excluded group. Tools not belonging to any group (builtin SDK
// tools) are always available.
func (a *Availability) IsToolAvailable(toolName string) bool {
	belongsToGroup := false
	for group, tools := range ToolGroups {
		if group == "group:all_forecasting" {
			continue
		}
		for _, t := range tools {
			if t == toolName {
				belongsToGroup = true
				if !a.excluded[group] {
					return true
				}
			}
		}
	}
	return !belongsToGroup
}

// GetAllowedTools expands a profile's Allow list through ExpandGroups, then
// drops every tool whose sole containing group is excluded. allowSpawn=false
// additionally strips group:composition, for sub-forecasts spawned by
// spawn_subquestions that must not themselves spawn further sub-questions.
func (a *Availability) GetAllowedTools(profileName string, allowSpawn bool) []string {
	p := GetProfilePolicy(profileName)
	if p == nil {
		return nil
	}

	allow := make([]string, 0, len(p.Allow))
	for _, item := range p.Allow {
		if !allowSpawn && item == "group:composition" {
			continue
		}
		if IsGroup(item) && !a.IsGroupAvailable(item) {
			continue
		}
		allow = append(allow, item)
	}

	expanded := ExpandGroups(allow)

	deny := map[string]bool{}
	for _, d := range ExpandGroups(p.Deny) {
		deny[d] = true
	}

	result := make([]string, 0, len(expanded))
	for _, tool := range expanded {
		if deny[tool] {
			continue
		}
		if !a.IsToolAvailable(tool) {
			continue
		}
		result = append(result, tool)
	}
	return result
}

// ExcludedGroups returns the set of group names this Availability has
// excluded, for diagnostics/logging at run start.
func (a *Availability) ExcludedGroups() []string {
	out := make([]string, 0, len(a.excluded))
	for g := range a.excluded {
		out = append(out, g)
	}
	return out
}
