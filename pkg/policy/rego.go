package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/rego"

	"github.com/lockwarden/lockwarden/pkg/engine"
)

// regoInput is the input document a Rego filter body evaluates against.
type regoInput struct {
	Resource *engine.Resource `json:"resource"`
	Level    string           `json:"level"`
	Locked   bool             `json:"locked"`
}

// CompileRegoFilter compiles a Rego filter body into a FilterFunc. The body
// must define a boolean `match` rule; the query evaluated is
// data.<package>.match with the resource, its lock level, and a locked flag
// as input.
func CompileRegoFilter(ctx context.Context, name, body string) (FilterFunc, error) {
	pkg := extractPackageName(body)
	query := fmt.Sprintf("data.%s.match", pkg)

	prepared, err := rego.New(
		rego.Module(name, body),
		rego.Query(query),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rego filter %s: %w", name, err)
	}

	return func(ctx context.Context, in *FilterInput) (bool, error) {
		level, ok := in.Index.Level(in.Resource.ID)
		if !ok {
			level = engine.LockNone
		}

		input := regoInput{
			Resource: in.Resource,
			Level:    level.String(),
			Locked:   level > engine.LockNone,
		}

		results, err := prepared.Eval(ctx, rego.EvalInput(input))
		if err != nil {
			return false, fmt.Errorf("rego evaluation error: %w", err)
		}

		// An undefined result means the match rule did not fire.
		if len(results) == 0 || len(results[0].Expressions) == 0 {
			return false, nil
		}
		matched, ok := results[0].Expressions[0].Value.(bool)
		if !ok {
			return false, fmt.Errorf("rego filter %s: match rule must produce a boolean", name)
		}
		return matched, nil
	}, nil
}

// RegisterRegoPolicies compiles the Rego-bodied policies in the given set and
// registers each as a filter named "rego:<policy>".
func (e *Evaluator) RegisterRegoPolicies(ctx context.Context, policies []Policy) error {
	for i := range policies {
		p := &policies[i]
		if p.Rego == "" || p.Disabled {
			continue
		}

		fn, err := CompileRegoFilter(ctx, p.Name, p.Rego)
		if err != nil {
			return err
		}

		name := "rego:" + p.Name
		e.RegisterFilter(name, func(arg string) (FilterFunc, error) {
			if arg != "" {
				return nil, fmt.Errorf("filter %q takes no argument", name)
			}
			return fn, nil
		})

		e.logger.Debug().
			Str("policy", p.Name).
			Str("filter", name).
			Msg("Rego filter registered")
	}
	return nil
}

// extractPackageName extracts the package name from a Rego body, defaulting
// to the lockwarden filter namespace.
func extractPackageName(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				return parts[1]
			}
		}
	}
	return "lockwarden.filters"
}
