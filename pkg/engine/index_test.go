package engine

import (
	"testing"
)

func fixtureGraph(t *testing.T) *ResourceGraph {
	t.Helper()
	resources := []Resource{
		{ID: "disk-1", Type: "disk", Name: "cctestvm-disk"},
		{ID: "lock-1", Type: TypeLock, Name: "cclock", Properties: map[string]interface{}{
			"level": "CanNotDelete",
		}},
	}
	edges := []Edge{{From: "lock-1", To: "disk-1"}}

	g, err := BuildGraph(resources, edges)
	if err != nil {
		t.Fatalf("Fixture graph must build: %v", err)
	}
	return g
}

func TestDeriveLockIndex_Fixture(t *testing.T) {
	g := fixtureGraph(t)

	idx, err := DeriveLockIndex(g)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	level, ok := idx.Level("disk-1")
	if !ok {
		t.Fatal("disk-1 must be present in the index")
	}
	if level != LockCanNotDelete {
		t.Errorf("Expected CanNotDelete for disk-1, got %v", level)
	}

	// The lock imposes the lock; it is not itself locked.
	if idx.Locked("lock-1") {
		t.Error("Lock resource must not be reported as locked")
	}
}

func TestDeriveLockIndex_NoLockDefaultsToNone(t *testing.T) {
	g, err := BuildGraph([]Resource{
		{ID: "disk-1", Type: "disk"},
		{ID: "vm-1", Type: "vm"},
	}, []Edge{{From: "vm-1", To: "disk-1"}})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	idx, err := DeriveLockIndex(g)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	for _, id := range []string{"disk-1", "vm-1"} {
		level, ok := idx.Level(id)
		if !ok {
			t.Fatalf("%s must be present in the index", id)
		}
		if level != LockNone {
			t.Errorf("Expected None for %s, got %v", id, level)
		}
	}
	if got := idx.LockedResources(); len(got) != 0 {
		t.Errorf("Expected no locked resources, got %v", got)
	}
}

func TestDeriveLockIndex_StrongestLevelWins(t *testing.T) {
	resources := []Resource{
		{ID: "disk-1", Type: "disk"},
		{ID: "lock-ro", Type: TypeLock, Properties: map[string]interface{}{"level": "ReadOnly"}},
		{ID: "lock-cnd", Type: TypeLock, Properties: map[string]interface{}{"level": "CanNotDelete"}},
	}
	edges := []Edge{
		{From: "lock-ro", To: "disk-1"},
		{From: "lock-cnd", To: "disk-1"},
	}

	g, err := BuildGraph(resources, edges)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	idx, err := DeriveLockIndex(g)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	level, _ := idx.Level("disk-1")
	if level != LockCanNotDelete {
		t.Errorf("Expected strongest level CanNotDelete, got %v", level)
	}
}

func TestDeriveLockIndex_OrderIndependent(t *testing.T) {
	resources := []Resource{
		{ID: "disk-1", Type: "disk"},
		{ID: "disk-2", Type: "disk"},
		{ID: "lock-a", Type: TypeLock, Properties: map[string]interface{}{"level": "ReadOnly"}},
		{ID: "lock-b", Type: TypeLock, Properties: map[string]interface{}{"level": "CanNotDelete"}},
	}
	edges := []Edge{
		{From: "lock-a", To: "disk-1"},
		{From: "lock-b", To: "disk-1"},
	}

	// Reversed permutations of the same snapshot.
	reversedResources := make([]Resource, len(resources))
	for i := range resources {
		reversedResources[len(resources)-1-i] = resources[i]
	}
	reversedEdges := []Edge{edges[1], edges[0]}

	g1, err := BuildGraph(resources, edges)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	g2, err := BuildGraph(reversedResources, reversedEdges)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	idx1, err := DeriveLockIndex(g1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	idx2, err := DeriveLockIndex(g2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	for _, id := range []string{"disk-1", "disk-2", "lock-a", "lock-b"} {
		l1, _ := idx1.Level(id)
		l2, _ := idx2.Level(id)
		if l1 != l2 {
			t.Errorf("Index differs for %s across input permutations: %v vs %v", id, l1, l2)
		}
	}
}

func TestDeriveLockIndex_LockWithNoEdge(t *testing.T) {
	g, err := BuildGraph([]Resource{
		{ID: "lock-1", Type: TypeLock, Properties: map[string]interface{}{"level": "CanNotDelete"}},
	}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err = DeriveLockIndex(g)
	if err == nil {
		t.Fatal("Expected ambiguous lock error for lock with zero edges")
	}
	if !IsAmbiguousLock(err) {
		t.Errorf("Expected ambiguous lock error, got: %v", err)
	}
}

func TestDeriveLockIndex_LockWithTwoEdges(t *testing.T) {
	resources := []Resource{
		{ID: "disk-1", Type: "disk"},
		{ID: "disk-2", Type: "disk"},
		{ID: "lock-1", Type: TypeLock, Properties: map[string]interface{}{"level": "CanNotDelete"}},
	}
	edges := []Edge{
		{From: "lock-1", To: "disk-1"},
		{From: "lock-1", To: "disk-2"},
	}

	g, err := BuildGraph(resources, edges)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err = DeriveLockIndex(g)
	if err == nil {
		t.Fatal("Expected ambiguous lock error for lock with two edges")
	}
	if !IsAmbiguousLock(err) {
		t.Errorf("Expected ambiguous lock error, got: %v", err)
	}
}

func TestDeriveLockIndex_InvalidLevel(t *testing.T) {
	resources := []Resource{
		{ID: "disk-1", Type: "disk"},
		{ID: "lock-1", Type: TypeLock, Properties: map[string]interface{}{"level": "Bogus"}},
	}
	edges := []Edge{{From: "lock-1", To: "disk-1"}}

	g, err := BuildGraph(resources, edges)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if _, err := DeriveLockIndex(g); err == nil {
		t.Fatal("Expected error for unparseable lock level")
	}
}

func TestDeriveLockIndex_SingleHopOnly(t *testing.T) {
	// Lock protects the VM; the disk behind the VM stays unlocked.
	resources := []Resource{
		{ID: "vm-1", Type: "vm"},
		{ID: "disk-1", Type: "disk"},
		{ID: "lock-1", Type: TypeLock, Properties: map[string]interface{}{"level": "CanNotDelete"}},
	}
	edges := []Edge{
		{From: "vm-1", To: "disk-1"},
		{From: "lock-1", To: "vm-1"},
	}

	g, err := BuildGraph(resources, edges)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	idx, err := DeriveLockIndex(g)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if level, _ := idx.Level("vm-1"); level != LockCanNotDelete {
		t.Errorf("Expected CanNotDelete for vm-1, got %v", level)
	}
	if level, _ := idx.Level("disk-1"); level != LockNone {
		t.Errorf("Lock must not propagate past one hop; disk-1 has %v", level)
	}
}
