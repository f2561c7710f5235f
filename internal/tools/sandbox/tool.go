package sandbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/oracleforge/internal/agent"
)

// ExecuteCodeTool adapts ForecastTools.RunCode to the agent.Tool interface.
type ExecuteCodeTool struct {
	tools *ForecastTools
}

// NewExecuteCodeTool builds the execute_code tool bound to tools.
func NewExecuteCodeTool(tools *ForecastTools) *ExecuteCodeTool {
	return &ExecuteCodeTool{tools: tools}
}

func (t *ExecuteCodeTool) Name() string { return "execute_code" }

func (t *ExecuteCodeTool) Description() string {
	return "Execute a Python snippet in an isolated sandbox and return stdout, stderr, and exit code."
}

func (t *ExecuteCodeTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"code": {"type": "string"}},
		"required": ["code"]
	}`)
}

func (t *ExecuteCodeTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid execute_code params: %v", err), IsError: true}, nil
	}

	result, err := t.tools.RunCode(ctx, in.Code)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(result)
	return &agent.ToolResult{Content: string(encoded), IsError: result.ExitCode != 0}, nil
}

// InstallPackageTool adapts ForecastTools.RunInstall to the agent.Tool interface.
type InstallPackageTool struct {
	tools *ForecastTools
}

// NewInstallPackageTool builds the install_package tool bound to tools.
func NewInstallPackageTool(tools *ForecastTools) *InstallPackageTool {
	return &InstallPackageTool{tools: tools}
}

func (t *InstallPackageTool) Name() string { return "install_package" }

func (t *InstallPackageTool) Description() string {
	return "Install one or more PyPI packages into the sandbox's Python environment."
}

func (t *InstallPackageTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"packages": {"type": "array", "items": {"type": "string"}, "minItems": 1}},
		"required": ["packages"]
	}`)
}

func (t *InstallPackageTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid install_package params: %v", err), IsError: true}, nil
	}

	result, err := t.tools.RunInstall(ctx, in.Packages)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	encoded, _ := json.Marshal(result)
	return &agent.ToolResult{Content: string(encoded), IsError: result.ExitCode != 0}, nil
}
