package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/l1jgo/npcai/internal/ai"
	"github.com/l1jgo/npcai/internal/config"
	"github.com/l1jgo/npcai/internal/core/event"
	coresys "github.com/l1jgo/npcai/internal/core/system"
	"github.com/l1jgo/npcai/internal/data"
	"github.com/l1jgo/npcai/internal/persist"
	"github.com/l1jgo/npcai/internal/scripting"
	"github.com/l1jgo/npcai/internal/world"
	"go.uber.org/zap"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const frame = 200 * time.Millisecond

const npcList = `
npcs:
  - npc_id: 45000
    name: goblin
    impl: L1Monster
    hp: 30
    wander_range: 4
    move_speed: 400
  - npc_id: 45001
    name: stone golem
    impl: L1Monster
    hp: 80
    ai_script: none
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

type harness struct {
	ws      *world.State
	bus     *event.Bus
	spawner *Spawner
	runner  *coresys.Runner
}

func newHarness(t *testing.T, engine *scripting.Engine) *harness {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "npc_list.yaml"), npcList)
	npcs, err := data.LoadNpcTable(filepath.Join(dir, "npc_list.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	bus := event.NewBus()
	ws := world.NewState(nil, bus)
	cfg := config.AIConfig{
		DespawnFade:        time.Second,
		RespawnDelay:       time.Second,
		PathMaxRange:       8,
		ControllersEnabled: true,
	}
	log := zap.NewNop()
	h := &harness{ws: ws, bus: bus, spawner: NewSpawner(ws, npcs, engine, cfg, frame, log), runner: coresys.NewRunner()}
	h.runner.Register(NewEventDispatchSystem(bus))
	h.runner.Register(NewNpcAISystem(ws))
	h.runner.Register(NewNpcRespawnSystem(ws, h.spawner, log))
	h.runner.Register(NewCleanupSystem(ws))
	return h
}

func (h *harness) run(from time.Time, frames int) time.Time {
	now := from
	for i := 0; i < frames; i++ {
		h.runner.Tick(now)
		now = now.Add(frame)
	}
	return now
}

func TestNpcAISystemTicksEveryNpc(t *testing.T) {
	h := newHarness(t, nil)
	h.spawner.SpawnAll([]data.SpawnEntry{{NpcID: 45001, MapID: 4, X: 10, Y: 10, Count: 3}}, t0)
	h.runner.Tick(t0)
	for _, n := range h.ws.NpcList() {
		if !n.AI().LastTick().Equal(t0) {
			t.Fatalf("npc %d last tick = %v", n.ID, n.AI().LastTick())
		}
	}
	if h.ws.NpcCount() != 3 {
		t.Fatalf("spawned %d, want 3", h.ws.NpcCount())
	}
}

func TestSpawnerSkipsUnknownTemplate(t *testing.T) {
	h := newHarness(t, nil)
	n := h.spawner.SpawnAll([]data.SpawnEntry{
		{NpcID: 99999, MapID: 4, X: 1, Y: 1, Count: 1},
		{NpcID: 45001, MapID: 4, X: 1, Y: 1, Count: 2},
	}, t0)
	if n != 2 {
		t.Fatalf("spawned %d, want 2", n)
	}
	// Second NPC lands beside the first, not on top of it.
	list := h.ws.NpcList()
	if list[0].X == list[1].X && list[0].Y == list[1].Y {
		t.Fatal("two npcs share a spawn tile")
	}
}

func TestSpawnerBuildsAIFromTemplate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ai", "mob.lua"), `function npc_ai(ctx) return {} end`)
	engine, err := scripting.NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	h := newHarness(t, engine)
	h.spawner.SpawnAll([]data.SpawnEntry{
		{NpcID: 45000, MapID: 4, X: 10, Y: 10},
		{NpcID: 45001, MapID: 4, X: 20, Y: 20},
	}, t0)
	list := h.ws.NpcList()
	goblin, golem := list[0], list[1]

	if goblin.AI().Controller() == nil || goblin.AI().PathFollower() == nil {
		t.Fatal("wandering scripted npc missing controller or path follower")
	}
	if golem.AI().Controller() != nil || golem.AI().PathFollower() != nil {
		t.Fatal("stationary npc with ai_script none got a controller or follower")
	}
	if goblin.MoveSpeed != 400*time.Millisecond || h.spawner.stepEvery(goblin.MoveSpeed) != 2 {
		t.Fatalf("move speed %v -> step every %d", goblin.MoveSpeed, h.spawner.stepEvery(goblin.MoveSpeed))
	}
}

func TestDespawnThenRespawnReplacesAI(t *testing.T) {
	h := newHarness(t, nil)
	h.spawner.SpawnAll([]data.SpawnEntry{{NpcID: 45001, MapID: 4, X: 10, Y: 10, Count: 1, RespawnDelay: 1}}, t0)
	npc := h.ws.NpcList()[0]
	old := npc.AI()

	var despawned, respawned int
	event.Subscribe(h.bus, func(event.NpcDespawned) { despawned++ })
	event.Subscribe(h.bus, func(event.NpcRespawned) { respawned++ })

	now := h.run(t0, 1)
	old.Despawn() // no controller: immediate
	now = h.run(now, 1)
	if npc.Spawned() {
		t.Fatal("npc still spawned after despawn completed")
	}
	if h.ws.IsOccupied(4, 10, 10, 0) {
		t.Fatal("despawned npc still occupies its tile")
	}

	// Dispatch arms the respawn timer; 1s later the spawner takes over.
	now = h.run(now, 2)
	if despawned != 1 || npc.RespawnAt.IsZero() {
		t.Fatalf("despawned=%d respawnAt=%v", despawned, npc.RespawnAt)
	}
	h.run(now, 6)

	if !npc.Spawned() || npc.AI() == old || npc.Generation != 2 {
		t.Fatalf("spawned=%v sameAI=%v gen=%d", npc.Spawned(), npc.AI() == old, npc.Generation)
	}
	if npc.Status() != ai.StatusNormal || npc.Animation() != ai.AnimationNone || npc.HP != npc.MaxHP {
		t.Fatal("respawned npc not reset")
	}
	if !h.ws.IsOccupied(4, 10, 10, 0) {
		t.Fatal("respawned npc not back on its spawn tile")
	}
	if respawned != 1 {
		t.Fatalf("respawned events = %d, want 1", respawned)
	}
}

func TestNeverRespawnRemovesNpc(t *testing.T) {
	h := newHarness(t, nil)
	h.spawner.SpawnAll([]data.SpawnEntry{{NpcID: 45001, MapID: 4, X: 10, Y: 10, RespawnDelay: -1}}, t0)
	npc := h.ws.NpcList()[0]

	now := h.run(t0, 1)
	npc.AI().Despawn()
	h.run(now, 3)

	if h.ws.NpcCount() != 0 || h.ws.GetNpc(npc.ID) != nil {
		t.Fatalf("npc not removed, count=%d", h.ws.NpcCount())
	}
}

func TestControllerRespawnMidTick(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ai", "mob.lua"), `
function npc_ai(ctx)
  if ctx.hp < ctx.max_hp then
    return { { type = "respawn" } }
  end
  return {}
end`)
	engine, err := scripting.NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	h := newHarness(t, engine)
	var respawned []event.NpcRespawned
	event.Subscribe(h.bus, func(ev event.NpcRespawned) { respawned = append(respawned, ev) })
	h.spawner.SpawnAll([]data.SpawnEntry{{NpcID: 45000, MapID: 4, X: 10, Y: 10}}, t0)
	npc := h.ws.NpcList()[0]

	now := h.run(t0, 1)
	old := npc.AI()
	npc.HP = 5
	now = h.run(now, 1)
	if npc.AI() == old || npc.HP != npc.MaxHP {
		t.Fatal("controller respawn did not replace the AI")
	}
	// The replaced AI skipped synchronisation; the new one does it next frame.
	if !npc.UpdatePending() {
		t.Fatal("stale AI synchronised the respawned npc")
	}
	h.run(now, 1)
	if npc.UpdatePending() {
		t.Fatal("new AI never synchronised")
	}
	if len(respawned) != 1 || respawned[0].ID != npc.ID {
		t.Fatalf("respawn events = %+v", respawned)
	}
}

type fakeWriter struct {
	batches [][]persist.NpcEvent
}

func (w *fakeWriter) InsertNpcEvents(_ context.Context, events []persist.NpcEvent) (int64, error) {
	w.batches = append(w.batches, append([]persist.NpcEvent(nil), events...))
	return int64(len(events)), nil
}

func TestPersistenceBatchesLifecycleEvents(t *testing.T) {
	bus := event.NewBus()
	w := &fakeWriter{}
	sys := NewPersistenceSystem(bus, w, zap.NewNop(), 3, 100)

	event.Emit(bus, event.NpcDespawned{ID: 7, NpcID: 45000, MapID: 4, X: 1, Y: 2, At: t0})
	event.Emit(bus, event.NpcRespawned{ID: 7, NpcID: 45000, MapID: 4, X: 1, Y: 2, At: t0.Add(time.Second)})
	bus.SwapBuffers()
	bus.DispatchAll()

	sys.Update(t0)
	sys.Update(t0)
	if len(w.batches) != 0 || sys.Pending() != 2 {
		t.Fatalf("flushed early: %d batches, %d pending", len(w.batches), sys.Pending())
	}
	sys.Update(t0)
	if len(w.batches) != 1 || len(w.batches[0]) != 2 {
		t.Fatalf("batches = %v", w.batches)
	}
	if w.batches[0][0].Kind != persist.NpcEventDespawn || w.batches[0][1].Kind != persist.NpcEventRespawn {
		t.Fatalf("kinds = %s, %s", w.batches[0][0].Kind, w.batches[0][1].Kind)
	}
	if sys.Pending() != 0 {
		t.Fatal("buffer not cleared after flush")
	}
}

func TestPersistenceFlushesFullBatchEarly(t *testing.T) {
	bus := event.NewBus()
	w := &fakeWriter{}
	sys := NewPersistenceSystem(bus, w, zap.NewNop(), 1000, 2)

	for i := 0; i < 2; i++ {
		event.Emit(bus, event.NpcDespawned{NpcID: 45000, At: t0})
	}
	bus.SwapBuffers()
	bus.DispatchAll()
	sys.Update(t0)
	if len(w.batches) != 1 {
		t.Fatalf("full batch not flushed, %d batches", len(w.batches))
	}

	event.Emit(bus, event.NpcDespawned{NpcID: 45000, At: t0})
	bus.SwapBuffers()
	bus.DispatchAll()
	sys.Flush()
	if len(w.batches) != 2 {
		t.Fatal("shutdown flush did not write")
	}
}

func TestScriptReloadSystem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ai", "mob.lua"), `version = 1`)
	engine, err := scripting.NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()
	watcher, err := scripting.NewWatcher(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer watcher.Close()

	sys := NewScriptReloadSystem(engine, watcher, zap.NewNop())
	writeFile(t, filepath.Join(dir, "ai", "mob.lua"), `version = 2`)

	deadline := time.Now().Add(3 * time.Second)
	for engine.Generation() == 1 && time.Now().Before(deadline) {
		sys.Update(t0)
		time.Sleep(20 * time.Millisecond)
	}
	if engine.Generation() != 2 {
		t.Fatalf("generation = %d after script change", engine.Generation())
	}
	if v := engine.Global("version").String(); v != "2" {
		t.Fatalf("version = %s, want 2", v)
	}
}
