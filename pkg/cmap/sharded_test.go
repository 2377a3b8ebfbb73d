package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	m := New[string, int]()
	if m == nil {
		t.Fatal("New() returned nil")
	}
	if m.ShardCount() != DefaultShardCount {
		t.Errorf("shard count = %d, want %d", m.ShardCount(), DefaultShardCount)
	}
}

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{2, 2},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[string, int](tt.input)
			if m.ShardCount() != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d", tt.input, m.ShardCount(), tt.expected)
			}
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[string, int]()

	m.Set("tcp://127.0.0.1:6379#a", 1)
	m.Set("tcp://127.0.0.1:6379#b", 2)

	if v, ok := m.Get("tcp://127.0.0.1:6379#a"); !ok || v != 1 {
		t.Errorf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
	if !m.Has("tcp://127.0.0.1:6379#b") {
		t.Error("Has(b) = false")
	}
	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}

	m.Delete("tcp://127.0.0.1:6379#a")
	if _, ok := m.Get("tcp://127.0.0.1:6379#a"); ok {
		t.Error("Get after Delete should miss")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestNonStringKeys(t *testing.T) {
	type key struct {
		addr string
		db   int
	}
	m := New[key, string]()
	m.Set(key{"a", 0}, "x")
	m.Set(key{"a", 1}, "y")

	if v, _ := m.Get(key{"a", 1}); v != "y" {
		t.Errorf("Get = %q, want y", v)
	}
	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}
}

func TestSingleShard(t *testing.T) {
	m := NewWithShards[int, int](1)
	for i := 0; i < 100; i++ {
		m.Set(i, i*i)
	}
	if m.Count() != 100 {
		t.Errorf("Count() = %d, want 100", m.Count())
	}
	if v, _ := m.Get(9); v != 81 {
		t.Errorf("Get(9) = %d, want 81", v)
	}
}

// ============================================================
// Concurrency Tests
// ============================================================

func TestConcurrentAccess(t *testing.T) {
	m := New[string, int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := fmt.Sprintf("g%d-%d", g, i)
				m.Set(k, i)
				m.Get(k)
				if i%2 == 0 {
					m.Delete(k)
				}
			}
		}(g)
	}
	wg.Wait()

	if m.Count() != 8*100 {
		t.Errorf("Count() = %d, want %d", m.Count(), 8*100)
	}
}
