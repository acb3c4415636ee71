package system

import (
	"math/rand"
	"time"

	"github.com/l1jgo/npcai/internal/ai"
	"github.com/l1jgo/npcai/internal/config"
	"github.com/l1jgo/npcai/internal/controller"
	"github.com/l1jgo/npcai/internal/core/ecs"
	"github.com/l1jgo/npcai/internal/core/event"
	"github.com/l1jgo/npcai/internal/data"
	"github.com/l1jgo/npcai/internal/pathfind"
	"github.com/l1jgo/npcai/internal/scripting"
	"github.com/l1jgo/npcai/internal/world"
	"go.uber.org/zap"
)

// Spawner creates NPCs from the spawn list and builds their AIs. A respawn
// always gets a fresh AI; the old one is simply dropped.
type Spawner struct {
	world    *world.State
	npcs     *data.NpcTable
	engine   *scripting.Engine // nil = no controllers
	actions  *controller.ScriptActions
	cfg      config.AIConfig
	tickRate time.Duration
	rng      *rand.Rand
	log      *zap.Logger
}

func NewSpawner(ws *world.State, npcs *data.NpcTable, engine *scripting.Engine, cfg config.AIConfig, tickRate time.Duration, log *zap.Logger) *Spawner {
	s := &Spawner{
		world:    ws,
		npcs:     npcs,
		engine:   engine,
		cfg:      cfg,
		tickRate: tickRate,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log,
	}
	if engine != nil {
		s.actions = controller.NewScriptActions(engine)
	}
	return s
}

// SpawnAll places every spawn entry. Entries naming unknown templates are
// skipped with a warning. Returns the number of NPCs spawned.
func (s *Spawner) SpawnAll(spawns []data.SpawnEntry, now time.Time) int {
	count := 0
	for _, sp := range spawns {
		tpl := s.npcs.Get(sp.NpcID)
		if tpl == nil {
			s.log.Warn("spawn 引用不存在的 NPC 模板", zap.Int32("npc_id", sp.NpcID))
			continue
		}
		if s.engine != nil && tpl.HasController() && !s.engine.Has(tpl.ScriptName()) {
			s.log.Warn("lua AI 函式未定義", zap.Int32("npc_id", tpl.NpcID), zap.String("func", tpl.ScriptName()))
		}
		for i := 0; i < sp.Count; i++ {
			s.spawnOne(tpl, sp, now)
			count++
		}
	}
	return count
}

func (s *Spawner) spawnOne(tpl *data.NpcTemplate, sp data.SpawnEntry, now time.Time) *world.Npc {
	x, y := sp.X, sp.Y
	if sp.RandomX > 0 {
		x += s.rng.Int31n(sp.RandomX*2+1) - sp.RandomX
	}
	if sp.RandomY > 0 {
		y += s.rng.Int31n(sp.RandomY*2+1) - sp.RandomY
	}
	if !s.world.IsPassable(sp.MapID, x, y, 0) {
		x, y = s.freeTileNear(sp.MapID, sp.X, sp.Y, 0)
	}

	respawn := s.cfg.RespawnDelay
	switch {
	case sp.RespawnDelay < 0:
		respawn = -1
	case sp.RespawnDelay > 0:
		respawn = time.Duration(sp.RespawnDelay) * time.Second
	}

	npc := &world.Npc{
		NpcID:        tpl.NpcID,
		Name:         tpl.Name,
		Impl:         tpl.Impl,
		Level:        tpl.Level,
		X:            x,
		Y:            y,
		MapID:        sp.MapID,
		Heading:      sp.Heading,
		HP:           tpl.HP,
		MaxHP:        tpl.HP,
		Agro:         tpl.Agro,
		SpawnX:       x,
		SpawnY:       y,
		SpawnMapID:   sp.MapID,
		RespawnDelay: respawn,
		WanderRange:  tpl.WanderRange,
		MoveSpeed:    time.Duration(tpl.MoveSpeed) * time.Millisecond,
	}
	s.world.AddNpc(npc)
	npc.SetAI(s.NewAI(npc, now))
	return npc
}

// NewAI builds the AI for an NPC from its template: a path follower for
// NPCs that move, a Lua controller unless the template opts out, and the
// Lua runner for queued script actions.
func (s *Spawner) NewAI(npc *world.Npc, now time.Time) *ai.AI {
	tpl := s.npcs.Get(npc.NpcID)

	var follower *pathfind.Follower
	var path ai.PathFollower
	if npc.WanderRange > 0 {
		follower = pathfind.NewFollower(npc, s.cfg.PathMaxRange, s.stepEvery(npc.MoveSpeed))
		path = follower
	}

	var ctrl ai.Controller
	if s.engine != nil && s.cfg.ControllersEnabled && tpl != nil && tpl.HasController() {
		ctrl = controller.NewMob(npc, follower, s.engine, tpl.ScriptName(), s.cfg.DespawnFade, s.Respawn,
			s.log.With(zap.Int32("npc_id", npc.NpcID)))
	}

	brain := ai.New(npc, path, ctrl, now, s.log)
	if s.actions != nil {
		brain.Actions().SetScriptRunner(s.actions)
	}
	return brain
}

// stepEvery converts a per-tile move time into ticks per step.
func (s *Spawner) stepEvery(moveSpeed time.Duration) int {
	if moveSpeed <= s.tickRate || s.tickRate <= 0 {
		return 1
	}
	return int((moveSpeed + s.tickRate - 1) / s.tickRate)
}

// Respawn puts the NPC back at its spawn point with full HP and a fresh AI.
// Safe to call mid-tick from the NPC's own controller.
func (s *Spawner) Respawn(npc *world.Npc, now time.Time) {
	x, y := npc.SpawnX, npc.SpawnY
	if !s.world.IsPassable(npc.SpawnMapID, x, y, npc.ID) {
		x, y = s.freeTileNear(npc.SpawnMapID, x, y, npc.ID)
	}
	s.world.PlaceNpc(npc, npc.SpawnMapID, x, y)

	npc.HP = npc.MaxHP
	npc.RespawnAt = time.Time{}
	npc.SetStatus(ai.StatusNormal)
	npc.SetAnimation(ai.AnimationNone)
	npc.SetAI(s.NewAI(npc, now))
	npc.SetUpdate(ai.UpdatePos | ai.UpdateStatus | ai.UpdateHP)

	event.Emit(s.world.Bus(), event.NpcRespawned{
		ID: npc.ID, NpcID: npc.NpcID, X: npc.X, Y: npc.Y, MapID: npc.MapID, At: now,
	})
}

// freeTileNear spirals out up to 3 tiles for a passable tile, falling back
// to the origin.
func (s *Spawner) freeTileNear(mapID int16, x, y int32, self ecs.EntityID) (int32, int32) {
	for r := int32(1); r <= 3; r++ {
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				if s.world.IsPassable(mapID, x+dx, y+dy, self) {
					return x + dx, y + dy
				}
			}
		}
	}
	return x, y
}
