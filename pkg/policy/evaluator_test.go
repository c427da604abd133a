package policy

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lockwarden/lockwarden/pkg/engine"
)

func fixtureSnapshot(t *testing.T) (*engine.ResourceGraph, *engine.LockIndex) {
	t.Helper()
	resources := []engine.Resource{
		{ID: "disk-1", Type: "disk", Name: "cctestvm-disk"},
		{ID: "vm-1", Type: "vm", Name: "cctestvm"},
		{ID: "lock-1", Type: engine.TypeLock, Name: "cclock", Properties: map[string]interface{}{
			"level": "CanNotDelete",
		}},
	}
	edges := []engine.Edge{
		{From: "vm-1", To: "disk-1"},
		{From: "lock-1", To: "disk-1"},
	}

	g, err := engine.BuildGraph(resources, edges)
	if err != nil {
		t.Fatalf("Fixture graph must build: %v", err)
	}
	idx, err := engine.DeriveLockIndex(g)
	if err != nil {
		t.Fatalf("Fixture index must derive: %v", err)
	}
	return g, idx
}

func TestEvaluate_Locked(t *testing.T) {
	g, idx := fixtureSnapshot(t)
	e := NewEvaluator(zerolog.Nop())

	result, err := e.Evaluate(context.Background(), g, idx, "locked")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	ids := result.MatchedIDs()
	if len(ids) != 1 || ids[0] != "disk-1" {
		t.Errorf("Expected exactly [disk-1], got %v", ids)
	}
	if result.Considered != 3 {
		t.Errorf("Expected 3 resources considered, got %d", result.Considered)
	}
}

func TestEvaluate_LockedAtLeast(t *testing.T) {
	g, idx := fixtureSnapshot(t)
	e := NewEvaluator(zerolog.Nop())

	result, err := e.Evaluate(context.Background(), g, idx, "locked-at-least(ReadOnly)")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	ids := result.MatchedIDs()
	if len(ids) != 1 || ids[0] != "disk-1" {
		t.Errorf("Expected [disk-1] at >= ReadOnly, got %v", ids)
	}

	result, err = e.Evaluate(context.Background(), g, idx, "locked-at-least(CanNotDelete)")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	ids = result.MatchedIDs()
	if len(ids) != 1 || ids[0] != "disk-1" {
		t.Errorf("Expected [disk-1] at >= CanNotDelete, got %v", ids)
	}
}

func TestEvaluate_LockedAtLeast_BadArgument(t *testing.T) {
	g, idx := fixtureSnapshot(t)
	e := NewEvaluator(zerolog.Nop())

	if _, err := e.Evaluate(context.Background(), g, idx, "locked-at-least(Bogus)"); err == nil {
		t.Fatal("Expected error for unparseable lock level argument")
	}
}

func TestEvaluate_TypeFilter(t *testing.T) {
	g, idx := fixtureSnapshot(t)
	e := NewEvaluator(zerolog.Nop())

	result, err := e.Evaluate(context.Background(), g, idx, "type(vm)")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	ids := result.MatchedIDs()
	if len(ids) != 1 || ids[0] != "vm-1" {
		t.Errorf("Expected [vm-1], got %v", ids)
	}
}

func TestEvaluate_Unlocked(t *testing.T) {
	g, idx := fixtureSnapshot(t)
	e := NewEvaluator(zerolog.Nop())

	result, err := e.Evaluate(context.Background(), g, idx, "unlocked")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// vm-1 is unlocked; disk-1 is locked; lock-1 is a lock resource and is
	// excluded from the unlocked set.
	ids := result.MatchedIDs()
	if len(ids) != 1 || ids[0] != "vm-1" {
		t.Errorf("Expected [vm-1], got %v", ids)
	}
}

func TestEvaluate_UnknownFilter(t *testing.T) {
	g, idx := fixtureSnapshot(t)
	e := NewEvaluator(zerolog.Nop())

	_, err := e.Evaluate(context.Background(), g, idx, "no-such-filter")
	if err == nil {
		t.Fatal("Expected error for unknown filter")
	}
	if !engine.IsUnknownFilter(err) {
		t.Errorf("Expected unknown filter error, got: %v", err)
	}
}

func TestEvaluate_MalformedFilterName(t *testing.T) {
	g, idx := fixtureSnapshot(t)
	e := NewEvaluator(zerolog.Nop())

	if _, err := e.Evaluate(context.Background(), g, idx, "locked-at-least(ReadOnly"); err == nil {
		t.Fatal("Expected error for unbalanced filter argument")
	}
}

func TestEvaluate_CustomRegisteredFilter(t *testing.T) {
	g, idx := fixtureSnapshot(t)
	e := NewEvaluator(zerolog.Nop())

	e.RegisterFilter("named", func(arg string) (FilterFunc, error) {
		return func(_ context.Context, in *FilterInput) (bool, error) {
			return in.Resource.Name == arg, nil
		}, nil
	})

	result, err := e.Evaluate(context.Background(), g, idx, "named(cctestvm)")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	ids := result.MatchedIDs()
	if len(ids) != 1 || ids[0] != "vm-1" {
		t.Errorf("Expected [vm-1], got %v", ids)
	}
}

func TestEvaluate_RegoFilter(t *testing.T) {
	g, idx := fixtureSnapshot(t)
	e := NewEvaluator(zerolog.Nop())

	policies := []Policy{
		{
			Name:     "locked-disks",
			Resource: "disk",
			Rego: `package lockwarden.filters

import rego.v1

default match := false

match if {
	input.resource.type == "disk"
	input.locked
}
`,
		},
	}

	if err := e.RegisterRegoPolicies(context.Background(), policies); err != nil {
		t.Fatalf("Expected rego policies to compile, got: %v", err)
	}

	result, err := e.Evaluate(context.Background(), g, idx, "rego:locked-disks")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	ids := result.MatchedIDs()
	if len(ids) != 1 || ids[0] != "disk-1" {
		t.Errorf("Expected [disk-1], got %v", ids)
	}
}

func TestRegisterRegoPolicies_SkipsDisabled(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())

	policies := []Policy{
		{Name: "off", Disabled: true, Rego: "package p\nimport rego.v1\nmatch if { true }"},
	}
	if err := e.RegisterRegoPolicies(context.Background(), policies); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	g, idx := fixtureSnapshot(t)
	if _, err := e.Evaluate(context.Background(), g, idx, "rego:off"); err == nil {
		t.Fatal("Disabled policy must not register a filter")
	}
}
