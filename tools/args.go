package tools

import (
	"fmt"
	"math"
	"time"

	"github.com/martinacantaro/aurora/storage"
)

// Argument extraction helpers shared by the domain modules. Tool inputs
// arrive as map[string]any decoded from model-produced JSON, so numbers
// are float64 and every field needs a type check.

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func requiredStringArg(args map[string]any, key string) (string, error) {
	v := stringArg(args, key)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", storage.ErrValidation, key)
	}
	return v, nil
}

func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// amountCentsArg reads a decimal amount (e.g. 12.50) as integer cents.
func amountCentsArg(args map[string]any, key string) (int64, error) {
	v, ok := floatArg(args, key)
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", storage.ErrValidation, key)
	}
	return int64(math.Round(v * 100)), nil
}

// dayArg reads a YYYY-MM-DD argument, defaulting to today when absent.
func dayArg(args map[string]any, key string) string {
	if v := stringArg(args, key); v != "" {
		return v
	}
	return time.Now().Format(storage.DayFormat)
}
