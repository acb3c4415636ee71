package ecs

import "testing"

func TestPoolGenerations(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	if a.IsZero() {
		t.Fatal("first entity got the zero ID")
	}
	if !p.Alive(a) {
		t.Fatal("new entity not alive")
	}

	p.Destroy(a)
	if p.Alive(a) {
		t.Fatal("destroyed entity still alive")
	}

	b := p.Create()
	if b.Index() != a.Index() {
		t.Fatalf("slot not reused: %d vs %d", b.Index(), a.Index())
	}
	if b.Generation() != a.Generation()+1 {
		t.Fatalf("generation = %d, want %d", b.Generation(), a.Generation()+1)
	}
	if p.Alive(a) || !p.Alive(b) {
		t.Fatal("stale ID resolved after slot reuse")
	}

	p.Destroy(a) // stale, must not free b's slot
	if !p.Alive(b) {
		t.Fatal("stale destroy killed the new occupant")
	}
}

func TestWorldDeferredDestroy(t *testing.T) {
	w := NewWorld()
	store := NewPtrComponentStore[int]()
	w.Register(store)

	id := w.CreateEntity()
	v := 7
	store.Set(id, &v)

	w.MarkForDestruction(id)
	if !w.Alive(id) {
		t.Fatal("entity destroyed before flush")
	}
	w.MarkForDestruction(id)
	if n := w.FlushDestroyQueue(); n != 1 {
		t.Fatalf("destroyed %d, want 1", n)
	}
	if w.Alive(id) {
		t.Fatal("entity alive after flush")
	}
	if _, ok := store.Get(id); ok || store.Len() != 0 {
		t.Fatal("component not removed on destroy")
	}
}
