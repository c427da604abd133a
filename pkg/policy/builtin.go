package policy

import (
	"context"
	"fmt"

	"github.com/lockwarden/lockwarden/pkg/engine"
)

// registerBuiltinFilters installs the lock-centric built-in filters on a
// fresh evaluator.
func registerBuiltinFilters(e *Evaluator) {
	e.RegisterFilter("locked", lockedFilter)
	e.RegisterFilter("unlocked", unlockedFilter)
	e.RegisterFilter("locked-at-least", lockedAtLeastFilter)
	e.RegisterFilter("type", typeFilter)
}

// lockedFilter matches every resource whose lock level is strictly greater
// than None. The lock resource itself imposes the lock and is never matched.
func lockedFilter(arg string) (FilterFunc, error) {
	if arg != "" {
		return nil, fmt.Errorf("filter %q takes no argument", "locked")
	}
	return func(_ context.Context, in *FilterInput) (bool, error) {
		return in.Index.Locked(in.Resource.ID), nil
	}, nil
}

// unlockedFilter matches non-lock resources with no lock protection.
func unlockedFilter(arg string) (FilterFunc, error) {
	if arg != "" {
		return nil, fmt.Errorf("filter %q takes no argument", "unlocked")
	}
	return func(_ context.Context, in *FilterInput) (bool, error) {
		if in.Resource.Type == engine.TypeLock {
			return false, nil
		}
		return !in.Index.Locked(in.Resource.ID), nil
	}, nil
}

// lockedAtLeastFilter matches resources whose lock level is >= the level
// named in the argument.
func lockedAtLeastFilter(arg string) (FilterFunc, error) {
	if arg == "" {
		return nil, fmt.Errorf("filter %q requires a lock level argument", "locked-at-least")
	}
	threshold, err := engine.ParseLockLevel(arg)
	if err != nil {
		return nil, err
	}
	return func(_ context.Context, in *FilterInput) (bool, error) {
		level, ok := in.Index.Level(in.Resource.ID)
		if !ok {
			return false, nil
		}
		return level >= threshold, nil
	}, nil
}

// typeFilter matches resources of the given type.
func typeFilter(arg string) (FilterFunc, error) {
	if arg == "" {
		return nil, fmt.Errorf("filter %q requires a resource type argument", "type")
	}
	return func(_ context.Context, in *FilterInput) (bool, error) {
		return in.Resource.Type == arg, nil
	}, nil
}
