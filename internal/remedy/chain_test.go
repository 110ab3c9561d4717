package remedy

import (
	"errors"
	"testing"
)

func TestRunChainFirstSuccessWins(t *testing.T) {
	var calls []string
	steps := []Step{
		{Name: "a", Run: func() error { calls = append(calls, "a"); return errors.New("boom") }},
		{Name: "b", Run: func() error { calls = append(calls, "b"); return nil }},
		{Name: "c", Run: func() error { calls = append(calls, "c"); return nil }},
	}

	name, ok := RunChain(steps)
	if !ok || name != "b" {
		t.Fatalf("RunChain() = %q, %v; want \"b\", true", name, ok)
	}
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Fatalf("calls = %v; want [a b]", calls)
	}
}

func TestRunChainEachStepAttemptedOnce(t *testing.T) {
	counts := make(map[string]int)
	steps := []Step{
		{Name: "a", Run: func() error { counts["a"]++; return errors.New("no") }},
		{Name: "b", Run: func() error { counts["b"]++; return errors.New("no") }},
		{Name: "c", Run: func() error { counts["c"]++; return nil }},
	}

	name, ok := RunChain(steps)
	if !ok || name != "c" {
		t.Fatalf("RunChain() = %q, %v; want \"c\", true", name, ok)
	}
	for _, s := range []string{"a", "b", "c"} {
		if counts[s] != 1 {
			t.Fatalf("step %q attempted %d times; want 1", s, counts[s])
		}
	}
}

func TestRunChainAllFail(t *testing.T) {
	steps := []Step{
		{Name: "a", Run: func() error { return errors.New("no") }},
		{Name: "b", Run: func() error { return errors.New("no") }},
	}

	name, ok := RunChain(steps)
	if ok || name != "" {
		t.Fatalf("RunChain() = %q, %v; want \"\", false", name, ok)
	}
}

func TestRunChainRecoversPanic(t *testing.T) {
	steps := []Step{
		{Name: "a", Run: func() error { panic("window blocked") }},
		{Name: "b", Run: func() error { return nil }},
	}

	name, ok := RunChain(steps)
	if !ok || name != "b" {
		t.Fatalf("RunChain() = %q, %v; want \"b\", true", name, ok)
	}
}

func TestRunChainEmpty(t *testing.T) {
	if name, ok := RunChain(nil); ok || name != "" {
		t.Fatalf("RunChain(nil) = %q, %v; want \"\", false", name, ok)
	}
}
