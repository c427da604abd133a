package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const testPolicyDoc = `policies:
  - name: locked-disks
    resource: disk
    description: Disks under any management lock
    filter: locked
    actions:
      - report
  - name: deletable-disks
    resource: disk
    filter: unlocked
    disabled: true
`

func writePolicyFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}
	return path
}

func TestLoader_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writePolicyFile(t, dir, "disks.yaml", testPolicyDoc)

	l := NewLoader(zerolog.Nop())
	policies, err := l.LoadFromPaths(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(policies) != 2 {
		t.Fatalf("Expected 2 policies, got %d", len(policies))
	}
	if policies[0].Name != "locked-disks" || policies[0].Filter != "locked" {
		t.Errorf("Unexpected first policy: %+v", policies[0])
	}
	if !policies[1].Disabled {
		t.Error("Expected second policy to be disabled")
	}
	if policies[0].Source != path {
		t.Errorf("Expected source %s, got %s", path, policies[0].Source)
	}
}

func TestLoader_LoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writePolicyFile(t, dir, "a.yaml", testPolicyDoc)
	writePolicyFile(t, dir, "b.yml", `policies:
  - name: all-vms
    filter: type(vm)
`)
	writePolicyFile(t, dir, "ignored.txt", "not a policy")

	l := NewLoader(zerolog.Nop())
	policies, err := l.LoadFromPaths(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(policies) != 3 {
		t.Errorf("Expected 3 policies, got %d", len(policies))
	}
}

func TestLoader_MissingName(t *testing.T) {
	dir := t.TempDir()
	path := writePolicyFile(t, dir, "bad.yaml", `policies:
  - filter: locked
`)

	l := NewLoader(zerolog.Nop())
	if _, err := l.LoadFromPaths(context.Background(), []string{path}); err == nil {
		t.Fatal("Expected validation error for policy without a name")
	}
}

func TestLoader_MissingFilterAndRego(t *testing.T) {
	dir := t.TempDir()
	path := writePolicyFile(t, dir, "bad.yaml", `policies:
  - name: empty-policy
`)

	l := NewLoader(zerolog.Nop())
	if _, err := l.LoadFromPaths(context.Background(), []string{path}); err == nil {
		t.Fatal("Expected error for policy with neither filter nor rego")
	}
}

func TestLoader_CacheInvalidation(t *testing.T) {
	dir := t.TempDir()
	path := writePolicyFile(t, dir, "p.yaml", `policies:
  - name: first
    filter: locked
`)

	l := NewLoader(zerolog.Nop())
	policies, err := l.LoadFromPaths(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(policies) != 1 || policies[0].Name != "first" {
		t.Fatalf("Unexpected policies: %+v", policies)
	}

	writePolicyFile(t, dir, "p.yaml", `policies:
  - name: second
    filter: locked
`)

	// Cached until invalidated.
	policies, _ = l.LoadFromPaths(context.Background(), []string{path})
	if policies[0].Name != "first" {
		t.Errorf("Expected cached policy, got %s", policies[0].Name)
	}

	l.Invalidate(path)
	policies, err = l.LoadFromPaths(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if policies[0].Name != "second" {
		t.Errorf("Expected reloaded policy, got %s", policies[0].Name)
	}
}
