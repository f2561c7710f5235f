package sandbox

import (
	"context"
	"encoding/json"
	"testing"
)

func TestExecuteCodeTool_Execute(t *testing.T) {
	requireDocker(t)

	executor, err := NewExecutor()
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	defer executor.Close()

	tool := NewExecuteCodeTool(NewForecastTools(executor))
	params, _ := json.Marshal(map[string]string{"code": "print('hi')"})
	res, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.Content)
	}
}

func TestInstallPackageTool_EmptyPackagesErrors(t *testing.T) {
	tool := NewInstallPackageTool(NewForecastTools(&Executor{}))
	params, _ := json.Marshal(map[string][]string{"packages": {}})
	res, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error for empty package list")
	}
}
