package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend(0)

	slot, gen, err := b.Create("test value")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if gen == 0 {
		t.Fatal("Expected non-zero generation")
	}

	val, err := b.Get(slot, gen)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	val, err = b.Drop(slot, gen)
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	if _, err := b.Get(slot, gen); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("Expected ErrStaleHandle after Drop, got %v", err)
	}
}

func TestLocalBackend_DoubleDrop(t *testing.T) {
	b := NewLocalBackend(0)

	slot, gen, _ := b.Create(1)
	if _, err := b.Drop(slot, gen); err != nil {
		t.Fatalf("first Drop failed: %v", err)
	}
	if _, err := b.Drop(slot, gen); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("second Drop: expected ErrStaleHandle, got %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("Len = %d, want 0", b.Len())
	}
}

func TestLocalBackend_ReuseBumpsGeneration(t *testing.T) {
	b := NewLocalBackend(0)

	slot1, gen1, _ := b.Create("first")
	_, _ = b.Drop(slot1, gen1)

	slot2, gen2, _ := b.Create("second")
	if slot2 != slot1 {
		t.Fatalf("Expected slot reuse: %d vs %d", slot1, slot2)
	}
	if gen2 == gen1 {
		t.Fatal("Expected a new generation on reuse")
	}

	if _, err := b.Get(slot1, gen1); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("old generation must not resolve, got %v", err)
	}
	v, err := b.Get(slot2, gen2)
	if err != nil || v != "second" {
		t.Fatalf("Get(new) = %v, %v", v, err)
	}
}

func TestLocalBackend_GenerationWraps(t *testing.T) {
	if g := nextGen(maxGen); g != 1 {
		t.Fatalf("nextGen(max) = %d, want 1", g)
	}
	if g := nextGen(5); g != 6 {
		t.Fatalf("nextGen(5) = %d, want 6", g)
	}
}

func TestLocalBackend_Limit(t *testing.T) {
	b := NewLocalBackend(2)

	s, g, err := b.Create(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := b.Create(2); err != nil {
		t.Fatal(err)
	}
	if _, _, err := b.Create(3); !errors.Is(err, ErrTableFull) {
		t.Fatalf("expected ErrTableFull, got %v", err)
	}

	_, _ = b.Drop(s, g)
	if _, _, err := b.Create(3); err != nil {
		t.Fatalf("Create after Drop failed: %v", err)
	}
}

func TestLocalBackend_OutOfRangeSlot(t *testing.T) {
	b := NewLocalBackend(0)
	if _, err := b.Get(1000, 1); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected ErrStaleHandle, got %v", err)
	}
	if b.Live(1000, 1) {
		t.Fatal("out of range slot reported live")
	}
}

type dropCounter struct {
	n *int
}

func (d dropCounter) Drop() { *d.n++ }

func TestLocalBackend_CloseDrops(t *testing.T) {
	b := NewLocalBackend(0)
	count := 0
	for i := 0; i < 3; i++ {
		_, _, _ = b.Create(dropCounter{n: &count})
	}
	_, _, _ = b.Create("plain")

	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("dropped %d, want 3", count)
	}
	if _, _, err := b.Create(1); !errors.Is(err, ErrClosed) {
		t.Fatalf("Create after Close: expected ErrClosed, got %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestLocalBackend_Each(t *testing.T) {
	b := NewLocalBackend(0)
	for i := 0; i < 5; i++ {
		_, _, _ = b.Create(i)
	}

	seen := 0
	b.Each(func(slot, gen uint32, value any) bool {
		seen++
		return seen < 3
	})
	if seen != 3 {
		t.Fatalf("Each stopped after %d, want 3", seen)
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend(0)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				slot, gen, err := b.Create(id*1000 + j)
				if err != nil {
					t.Errorf("Create failed: %v", err)
					return
				}
				v, err := b.Get(slot, gen)
				if err != nil || v != id*1000+j {
					t.Errorf("Get = %v, %v", v, err)
					return
				}
				if _, err := b.Drop(slot, gen); err != nil {
					t.Errorf("Drop failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if b.Len() != 0 {
		t.Fatalf("Len = %d after concurrent churn", b.Len())
	}
}
