// Package controller holds the Lua-driven NPC controllers plugged into
// ai.AI as its decision delegate.
package controller

import (
	"math/rand"
	"time"

	"github.com/l1jgo/npcai/internal/ai"
	"github.com/l1jgo/npcai/internal/pathfind"
	"github.com/l1jgo/npcai/internal/scripting"
	"github.com/l1jgo/npcai/internal/world"
	"go.uber.org/zap"
)

// Respawner puts an NPC back at its spawn point with a fresh AI.
type Respawner func(n *world.Npc, now time.Time)

// Mob asks a Lua function for commands every tick and carries them out
// through the NPC's current AI. It never caches the AI: a respawn command
// replaces it mid-tick.
type Mob struct {
	npc     *world.Npc
	path    *pathfind.Follower
	engine  *scripting.Engine
	script  string
	fade    time.Duration
	respawn Respawner
	enabled bool
	rng     *rand.Rand
	log     *zap.Logger
}

// NewMob creates a controller. path may be nil for stationary NPCs;
// respawn may be nil, in which case respawn commands are ignored.
func NewMob(npc *world.Npc, path *pathfind.Follower, engine *scripting.Engine, script string,
	fade time.Duration, respawn Respawner, log *zap.Logger) *Mob {
	return &Mob{
		npc:     npc,
		path:    path,
		engine:  engine,
		script:  script,
		fade:    fade,
		respawn: respawn,
		enabled: true,
		rng:     rand.New(rand.NewSource(int64(npc.ID))),
		log:     log,
	}
}

func (m *Mob) CanUpdate() bool { return m.enabled }

// SetEnabled turns script decisions on or off (GM possession, cutscenes).
func (m *Mob) SetEnabled(v bool) { m.enabled = v }

// Despawn starts a fade-out despawn on the NPC's current AI. A despawn
// already in progress is left alone.
func (m *Mob) Despawn() {
	brain := m.npc.AI()
	if brain == nil {
		return
	}
	if _, ok := brain.CurrentState().(*ai.DespawnState); ok {
		return
	}
	if m.path != nil {
		m.path.Clear()
	}
	brain.DespawnAfter(m.fade)
}

func (m *Mob) Tick(now time.Time) {
	if !m.npc.Spawned() {
		return
	}
	brain := m.npc.AI()
	if brain == nil {
		return
	}
	cmds := m.engine.RunNpcAI(m.script, m.context(brain, now))
	for _, cmd := range cmds {
		m.apply(cmd, now)
		// A respawn or despawn hands the NPC to another AI or takes it out of
		// the world; the rest of this batch belongs to the old life.
		if m.npc.AI() != brain || !m.npc.Spawned() {
			return
		}
	}
}

func (m *Mob) context(brain *ai.AI, now time.Time) scripting.AIContext {
	n := m.npc
	moving := m.path != nil && m.path.IsFollowingPath()
	return scripting.AIContext{
		ObjID:          int64(n.ID),
		NpcID:          int(n.NpcID),
		X:              int(n.X),
		Y:              int(n.Y),
		MapID:          int(n.MapID),
		SpawnX:         int(n.SpawnX),
		SpawnY:         int(n.SpawnY),
		SpawnDist:      int(pathfind.Chebyshev(n.X, n.Y, n.SpawnX, n.SpawnY)),
		WanderRange:    int(n.WanderRange),
		HP:             int(n.HP),
		MaxHP:          int(n.MaxHP),
		Agro:           n.Agro,
		Engaged:        brain.IsEngaged(),
		Roaming:        brain.IsRoaming(),
		Moving:         moving,
		StateDepth:     brain.StateDepth(),
		CanChangeState: brain.CanChangeState(),
		TickMs:         now.UnixMilli(),
	}
}

func (m *Mob) apply(cmd scripting.AICommand, now time.Time) {
	n := m.npc
	switch cmd.Type {
	case "wander":
		m.wander(cmd.Dir, cmd.Dist)
	case "move_to":
		m.pathTo(int32(cmd.X), int32(cmd.Y))
	case "return_home":
		m.pathTo(n.SpawnX, n.SpawnY)
	case "wait":
		n.AI().ChangeState(NewWaitState(now, time.Duration(cmd.Delay)*time.Millisecond, true))
	case "queue":
		if cmd.Func == "" {
			return
		}
		n.AI().QueueAction(ai.Action{
			Delay:  time.Duration(cmd.Delay) * time.Millisecond,
			Script: cmd.Func,
		})
	case "despawn":
		m.Despawn()
	case "respawn":
		if m.respawn != nil {
			m.respawn(n, now)
		}
	case "idle", "":
	default:
		m.log.Warn("unknown ai command", zap.String("type", cmd.Type), zap.Int32("npc", n.NpcID))
	}
}

func (m *Mob) pathTo(x, y int32) {
	if m.path == nil || !m.npc.AI().CanChangeState() {
		return
	}
	m.path.PathTo(x, y)
}

// wander walks dist tiles along dir (negative = random), staying inside
// the NPC's wander range around its spawn point.
func (m *Mob) wander(dir, dist int) {
	n := m.npc
	if n.WanderRange <= 0 {
		return
	}
	if dir < 0 || dir > 7 {
		dir = m.rng.Intn(8)
	}
	if dist <= 0 {
		dist = m.rng.Intn(5) + 2
	}
	tx, ty := n.X, n.Y
	for i := 0; i < dist; i++ {
		nx, ny := pathfind.Step(tx, ty, int16(dir))
		if pathfind.Chebyshev(nx, ny, n.SpawnX, n.SpawnY) > n.WanderRange {
			break
		}
		tx, ty = nx, ny
	}
	if tx == n.X && ty == n.Y {
		return
	}
	m.pathTo(tx, ty)
}
