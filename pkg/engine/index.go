package engine

import "sort"

// LockIndex maps every resource in a graph to the strongest lock level
// affecting it. It is derived once per graph via DeriveLockIndex and never
// mutated afterwards; a new graph gets a new index.
type LockIndex struct {
	levels map[string]LockLevel
}

// DeriveLockIndex computes the lock index for a graph.
//
// Every resource of TypeLock must have exactly one outgoing dependency edge,
// which names the resource it protects; anything else fails with an
// ambiguous-lock error rather than silently picking a target. The protected
// resource's level is raised to the maximum of its current level and the
// lock's declared level. Propagation is single hop: a lock protects only the
// resource its edge points at, not that resource's transitive dependencies.
//
// Because the reduction uses MaxLockLevel, which is commutative and
// associative, the result is independent of iteration order.
func DeriveLockIndex(g *ResourceGraph) (*LockIndex, error) {
	idx := &LockIndex{
		levels: make(map[string]LockLevel, g.Len()),
	}

	// Every resource starts unlocked.
	for id := range g.resources {
		idx.levels[id] = LockNone
	}

	for _, lock := range g.ResourcesOfType(TypeLock) {
		deps := g.DependenciesOf(lock.ID)
		if len(deps) != 1 {
			return nil, NewAmbiguousLockError(lock.ID, len(deps)).
				WithOperation("derive")
		}

		level, err := lock.LockLevel()
		if err != nil {
			return nil, NewPermanentError("invalid lock level", err).
				WithCode(ErrCodeValidation).
				WithResource(lock.ID).
				WithOperation("derive")
		}

		target := deps[0]
		idx.levels[target] = MaxLockLevel(idx.levels[target], level)
	}

	return idx, nil
}

// Level returns the lock level recorded for a resource and whether the
// resource is present in the index.
func (idx *LockIndex) Level(id string) (LockLevel, bool) {
	level, ok := idx.levels[id]
	return level, ok
}

// Locked reports whether the resource has any lock level above LockNone.
func (idx *LockIndex) Locked(id string) bool {
	return idx.levels[id] > LockNone
}

// LockedResources returns the IDs of all resources with a level above
// LockNone, sorted for deterministic output.
func (idx *LockIndex) LockedResources() []string {
	var ids []string
	for id, level := range idx.levels {
		if level > LockNone {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of resources the index covers.
func (idx *LockIndex) Len() int {
	return len(idx.levels)
}
