package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/vango-dev/signals/pkg/signals"
)

func newTestGraph(t *testing.T) (*Registry, *signals.Signal[int], *signals.Computed[int]) {
	t.Helper()
	count := signals.NewSignal(1, signals.WithName("count"))
	doubled := signals.NewComputed1(func(n int) int { return n * 2 }, count, signals.WithName("doubled"))

	reg := NewRegistry(nil)
	if err := reg.Register(count, doubled); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return reg, count, doubled
}

func TestRegistryRegister(t *testing.T) {
	reg, count, _ := newTestGraph(t)

	if fmt.Sprint(reg.Names()) != "[count doubled]" {
		t.Errorf("unexpected names %v", reg.Names())
	}

	err := reg.Register(count)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	if err := reg.Register(signals.NewSignal(0)); !errors.Is(err, ErrUnnamed) {
		t.Errorf("expected ErrUnnamed, got %v", err)
	}
}

func TestRegistrySetPropagates(t *testing.T) {
	reg, count, doubled := newTestGraph(t)

	if err := reg.Set("count", []byte("5")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if count.Get() != 5 || doubled.Get() != 10 {
		t.Errorf("expected 5/10, got %d/%d", count.Get(), doubled.Get())
	}

	v, err := reg.Value("doubled")
	if err != nil || string(v) != "10" {
		t.Errorf("expected 10, got %s (%v)", v, err)
	}
}

func TestRegistrySetErrors(t *testing.T) {
	reg, _, _ := newTestGraph(t)

	tests := []struct {
		name string
		node string
		raw  string
		want error
	}{
		{"unknown node", "missing", "1", ErrNotFound},
		{"computed is read-only", "doubled", "1", ErrReadOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Set(tt.node, []byte(tt.raw))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("bad JSON", func(t *testing.T) {
		err := reg.Set("count", []byte(`"x"`))
		var nerr *NodeError
		if !errors.As(err, &nerr) || nerr.Op != "write" || nerr.Name != "count" {
			t.Errorf("expected write NodeError, got %v", err)
		}
	})

	if reg.Writable("doubled") || !reg.Writable("count") || reg.Writable("missing") {
		t.Error("unexpected Writable results")
	}
}

func TestRegistrySnapshotRestore(t *testing.T) {
	reg, _, _ := newTestGraph(t)
	if err := reg.Set("count", []byte("7")); err != nil {
		t.Fatal(err)
	}

	snap, err := reg.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if string(snap["count"]) != "7" || string(snap["doubled"]) != "14" {
		t.Errorf("unexpected snapshot %v", snap)
	}

	other, count, doubled := newTestGraph(t)
	snap["unknown"] = json.RawMessage("1")
	if err := other.Restore(snap); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if count.Get() != 7 || doubled.Get() != 14 {
		t.Errorf("expected 7/14 after restore, got %d/%d", count.Get(), doubled.Get())
	}
}

func TestRegistryWatch(t *testing.T) {
	reg, _, _ := newTestGraph(t)

	var seen []string
	stop, err := reg.Watch(nil, func(name string, v json.RawMessage) {
		seen = append(seen, name+"="+string(v))
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := reg.Set("count", []byte("2")); err != nil {
		t.Fatal(err)
	}

	want := "[count=1 doubled=2 doubled=4 count=2]"
	if fmt.Sprint(seen) != want {
		t.Errorf("expected %s, got %v", want, seen)
	}

	stop()
	stop()
	if err := reg.Set("count", []byte("3")); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 4 {
		t.Errorf("expected no events after stop, got %v", seen)
	}
}

func TestRegistryWatchUnknown(t *testing.T) {
	reg, _, _ := newTestGraph(t)
	if _, err := reg.Watch([]string{"nope"}, func(string, json.RawMessage) {}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryNonFiniteEncodesNull(t *testing.T) {
	x := signals.NewSignal(1.0, signals.WithName("x"))
	reg := NewRegistry(nil)
	if err := reg.Register(x); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	var seen []string
	stop, err := reg.Watch(nil, func(name string, v json.RawMessage) {
		seen = append(seen, string(v))
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer stop()

	x.Set(math.Inf(1))

	v, err := reg.Value("x")
	if err != nil || string(v) != "null" {
		t.Errorf("Value = %s (%v), want null", v, err)
	}
	snap, err := reg.Snapshot()
	if err != nil || string(snap["x"]) != "null" {
		t.Errorf("Snapshot = %v (%v), want x=null", snap, err)
	}
	if fmt.Sprint(seen) != "[1 null]" {
		t.Errorf("watcher saw %v, want [1 null]", seen)
	}
}
