package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// AIContext holds pre-packed data for one NPC AI decision.
type AIContext struct {
	ObjID       int64 // runtime entity ID
	NpcID       int   // template ID
	X, Y        int
	MapID       int
	SpawnX      int
	SpawnY      int
	SpawnDist   int // Chebyshev distance from spawn point
	WanderRange int
	HP, MaxHP   int
	Agro        bool

	// AI state
	Engaged        bool
	Roaming        bool
	Moving         bool // route in progress
	StateDepth     int
	CanChangeState bool
	TickMs         int64 // frame time, unix milliseconds
}

// AICommand is a single action returned by Lua AI.
type AICommand struct {
	Type  string // "wander", "move_to", "return_home", "wait", "queue", "despawn", "respawn", "idle"
	X, Y  int
	Dir   int // heading 0-7 for wander
	Dist  int // tiles for wander
	Delay int // ms, for wait/queue
	Func  string
}

// RunNpcAI calls the Lua function fn(ctx) and returns its command list.
// Missing functions and script errors yield no commands.
func (e *Engine) RunNpcAI(fn string, ctx AIContext) []AICommand {
	f := e.vm.GetGlobal(fn)
	if f == lua.LNil {
		return nil
	}

	t := e.vm.NewTable()
	t.RawSetString("obj_id", lua.LNumber(ctx.ObjID))
	t.RawSetString("npc_id", lua.LNumber(ctx.NpcID))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("map_id", lua.LNumber(ctx.MapID))
	t.RawSetString("spawn_x", lua.LNumber(ctx.SpawnX))
	t.RawSetString("spawn_y", lua.LNumber(ctx.SpawnY))
	t.RawSetString("spawn_dist", lua.LNumber(ctx.SpawnDist))
	t.RawSetString("wander_range", lua.LNumber(ctx.WanderRange))
	t.RawSetString("hp", lua.LNumber(ctx.HP))
	t.RawSetString("max_hp", lua.LNumber(ctx.MaxHP))
	t.RawSetString("agro", lBool(ctx.Agro))
	t.RawSetString("engaged", lBool(ctx.Engaged))
	t.RawSetString("roaming", lBool(ctx.Roaming))
	t.RawSetString("moving", lBool(ctx.Moving))
	t.RawSetString("state_depth", lua.LNumber(ctx.StateDepth))
	t.RawSetString("can_change_state", lBool(ctx.CanChangeState))
	t.RawSetString("tick_ms", lua.LNumber(ctx.TickMs))

	if err := e.vm.CallByParam(lua.P{
		Fn:      f,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua npc_ai error", zap.Error(err), zap.String("func", fn), zap.Int("npc_id", ctx.NpcID))
		return nil
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil
	}

	var cmds []AICommand
	rt.ForEach(func(_, v lua.LValue) {
		if row, ok := v.(*lua.LTable); ok {
			cmds = append(cmds, AICommand{
				Type:  lStr(row, "type"),
				X:     lInt(row, "x"),
				Y:     lInt(row, "y"),
				Dir:   lInt(row, "dir"),
				Dist:  lInt(row, "dist"),
				Delay: lInt(row, "delay"),
				Func:  lStr(row, "fn"),
			})
		}
	})
	return cmds
}

// ActionContext is passed to Lua-backed queued actions.
type ActionContext struct {
	ObjID int64
	NpcID int
	X, Y  int
	MapID int
}

// CallAction runs the Lua function name(ctx) for a queued action.
func (e *Engine) CallAction(name string, ctx ActionContext) error {
	f := e.vm.GetGlobal(name)
	if f == lua.LNil {
		return fmt.Errorf("lua function %s not found", name)
	}
	t := e.vm.NewTable()
	t.RawSetString("obj_id", lua.LNumber(ctx.ObjID))
	t.RawSetString("npc_id", lua.LNumber(ctx.NpcID))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("map_id", lua.LNumber(ctx.MapID))

	if err := e.vm.CallByParam(lua.P{
		Fn:      f,
		NRet:    0,
		Protect: true,
	}, t); err != nil {
		return fmt.Errorf("lua %s: %w", name, err)
	}
	return nil
}
