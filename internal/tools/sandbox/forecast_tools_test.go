package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

func TestForecastTools_RunCode(t *testing.T) {
	requireDocker(t)

	executor, err := NewExecutor()
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	defer executor.Close()

	tools := NewForecastTools(executor)
	result, err := tools.RunCode(context.Background(), `print(1 + 1)`)
	if err != nil {
		t.Fatalf("RunCode: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", result.ExitCode, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "2") {
		t.Errorf("expected stdout to contain '2', got %q", result.Stdout)
	}
	if result.DurationMS < 0 {
		t.Errorf("expected non-negative duration, got %d", result.DurationMS)
	}
}

func TestForecastTools_RunInstall_NoPackagesErrors(t *testing.T) {
	tools := NewForecastTools(&Executor{})
	if _, err := tools.RunInstall(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty package list")
	}
}

func TestForecastTools_RunInstall_PyPIRestrictionUnderRetrodict(t *testing.T) {
	requireDocker(t)

	executor, err := NewExecutor()
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	defer executor.Close()

	tools := NewForecastTools(executor)
	ctx := retrodict.WithConfig(context.Background(), retrodict.Config{ForecastDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})

	result, err := tools.RunInstall(ctx, []string{"six"})
	if err != nil {
		t.Fatalf("RunInstall: %v", err)
	}
	if len(result.Packages) != 1 || result.Packages[0] != "six" {
		t.Errorf("expected packages echoed back, got %v", result.Packages)
	}
}

func TestPyList_QuotesAndEscapes(t *testing.T) {
	got := pyList([]string{"numpy", "it's-a-test"})
	if !strings.Contains(got, `"numpy"`) {
		t.Errorf("expected numpy quoted, got %s", got)
	}
	if !strings.Contains(got, `it's-a-test`) {
		t.Errorf("expected escaped quote preserved, got %s", got)
	}
}
