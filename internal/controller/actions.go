package controller

import (
	"fmt"

	"github.com/l1jgo/npcai/internal/ai"
	"github.com/l1jgo/npcai/internal/scripting"
	"github.com/l1jgo/npcai/internal/world"
)

// ScriptActions runs Lua-backed queued actions. It implements ai.ScriptRunner.
type ScriptActions struct {
	engine *scripting.Engine
}

func NewScriptActions(engine *scripting.Engine) *ScriptActions {
	return &ScriptActions{engine: engine}
}

func (s *ScriptActions) RunAction(name string, e ai.Entity) error {
	n, ok := e.(*world.Npc)
	if !ok {
		return fmt.Errorf("script action %s: unsupported entity %T", name, e)
	}
	return s.engine.CallAction(name, scripting.ActionContext{
		ObjID: int64(n.ID),
		NpcID: int(n.NpcID),
		X:     int(n.X),
		Y:     int(n.Y),
		MapID: int(n.MapID),
	})
}
