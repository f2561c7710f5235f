package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/haasonsaas/oracleforge/internal/forecast/retrodict"
)

// ExecuteCodeResult is execute_code's result shape.
type ExecuteCodeResult struct {
	ExitCode   int    `json:"exit_code"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	DurationMS int64  `json:"duration_ms"`
}

// InstallPackageResult is install_package's result shape.
type InstallPackageResult struct {
	ExitCode int      `json:"exit_code"`
	Output   string   `json:"output"`
	Packages []string `json:"packages"`
}

// ForecastTools adapts the generic Executor to the forecasting agent's two
// code-execution tools: running arbitrary Python snippets and installing
// PyPI packages into the same persistent workspace.
type ForecastTools struct {
	executor *Executor
}

// NewForecastTools wraps an Executor for use as execute_code/install_package.
func NewForecastTools(executor *Executor) *ForecastTools {
	return &ForecastTools{executor: executor}
}

// RunCode executes a Python snippet in the sandbox and returns stdout,
// stderr, exit code, and wall-clock duration.
func (t *ForecastTools) RunCode(ctx context.Context, code string) (*ExecuteCodeResult, error) {
	start := time.Now()

	params := &ExecuteParams{
		Language:        "python",
		Code:            code,
		Timeout:         30,
		WorkspaceAccess: WorkspaceReadWrite,
	}
	execCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	er, err := t.executor.executeCode(execCtx, params)
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}
	return &ExecuteCodeResult{
		ExitCode:   er.ExitCode,
		Stdout:     er.Stdout,
		Stderr:     er.Stderr,
		DurationMS: duration.Milliseconds(),
	}, nil
}

// RunInstall installs one or more PyPI packages into the sandbox's Python
// environment via pip. Under an active retrodict cutoff, the sandbox's
// egress is first restricted to the PyPI domains themselves (DNS-resolved
// at call time, since PyPI sits behind Fastly and addresses rotate) so a
// retrodict run cannot use package installation as a side channel to the
// live internet.
func (t *ForecastTools) RunInstall(ctx context.Context, packages []string) (*InstallPackageResult, error) {
	if len(packages) == 0 {
		return nil, fmt.Errorf("no packages specified")
	}

	var script strings.Builder
	script.WriteString("import subprocess, sys\n")
	if retrodict.IsActive(ctx) {
		// Best-effort: restrict egress to PyPI itself before installing, so a
		// retrodict run can't use package installation as a side channel to
		// the live internet. Requires NET_ADMIN; silently no-ops on images
		// where iptables isn't available or the capability isn't granted.
		allowed := retrodict.ResolvePyPIAllowedIPs(ctx)
		for _, rule := range retrodict.GeneratePyPIOnlyIPTablesRules(allowed) {
			fmt.Fprintf(&script, "subprocess.run(%q, shell=True, check=False, capture_output=True)\n", rule)
		}
	}
	fmt.Fprintf(&script, "sys.exit(subprocess.call([sys.executable, '-m', 'pip', 'install', '--no-input'] + %s))\n", pyList(packages))

	params := &ExecuteParams{
		Language:        "python",
		Code:            script.String(),
		Timeout:         120,
		WorkspaceAccess: WorkspaceReadWrite,
	}
	execCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	er, err := t.executor.executeCode(execCtx, params)
	if err != nil {
		return nil, err
	}

	return &InstallPackageResult{
		ExitCode: er.ExitCode,
		Output:   er.Stdout + er.Stderr,
		Packages: packages,
	}, nil
}

// pyList renders a Go string slice as a Python list literal of string
// constants, for embedding into the generated install script.
func pyList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		b, _ := json.Marshal(s)
		quoted[i] = string(b)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
