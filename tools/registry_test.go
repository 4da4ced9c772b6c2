package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubModule exercises the registry boundary without touching storage.
type stubModule struct{}

func (stubModule) Name() string { return "stub" }

func (stubModule) Definitions() []Descriptor {
	return []Descriptor{
		{Name: "get_value", Kind: KindRead},
		{Name: "set_value", Kind: KindWrite},
		{Name: "delete_value", Kind: KindDestructive},
		{Name: "panic_value", Kind: KindRead},
		{Name: "fail_value", Kind: KindRead},
	}
}

func (stubModule) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "get_value":
		return map[string]any{"value": 42}, nil
	case "panic_value":
		panic("executor fault")
	case "fail_value":
		return nil, errors.New("domain failure")
	}
	return nil, errors.New("unexpected")
}

func TestRegistryExecute(t *testing.T) {
	registry, err := NewRegistry(nil, stubModule{})
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}

	t.Run("success encodes result as JSON", func(t *testing.T) {
		result, err := registry.Execute(context.Background(), "get_value", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(result), `"value":42`) {
			t.Errorf("unexpected result: %s", result)
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := registry.Execute(context.Background(), "no_such_tool", nil)
		if !errors.Is(err, ErrUnknownTool) {
			t.Errorf("expected ErrUnknownTool, got %v", err)
		}
	})

	t.Run("executor panic becomes error", func(t *testing.T) {
		_, err := registry.Execute(context.Background(), "panic_value", nil)
		if err == nil {
			t.Fatal("expected an error from a panicking executor")
		}
		if !strings.Contains(err.Error(), "executor fault") {
			t.Errorf("expected panic message in error, got %v", err)
		}
	})

	t.Run("executor error propagates", func(t *testing.T) {
		_, err := registry.Execute(context.Background(), "fail_value", nil)
		if err == nil || !strings.Contains(err.Error(), "domain failure") {
			t.Errorf("expected domain failure, got %v", err)
		}
	})
}

func TestRegistryConfirmationPolicy(t *testing.T) {
	registry, err := NewRegistry(nil, stubModule{})
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}

	tests := []struct {
		tool        string
		confirm     bool
		destructive bool
	}{
		{"get_value", false, false},
		{"set_value", true, false},
		{"delete_value", true, true},
		{"no_such_tool", false, false},
	}

	for _, tt := range tests {
		if got := registry.RequiresConfirmation(tt.tool); got != tt.confirm {
			t.Errorf("RequiresConfirmation(%s) = %v, want %v", tt.tool, got, tt.confirm)
		}
		if got := registry.IsDestructive(tt.tool); got != tt.destructive {
			t.Errorf("IsDestructive(%s) = %v, want %v", tt.tool, got, tt.destructive)
		}
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry(nil, stubModule{}, stubModule{})
	if err == nil {
		t.Fatal("expected duplicate tool name registration to fail")
	}
}
