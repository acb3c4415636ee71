package system

import (
	"time"

	coresys "github.com/l1jgo/npcai/internal/core/system"
	"github.com/l1jgo/npcai/internal/scripting"
	"go.uber.org/zap"
)

// ScriptReloadSystem applies Lua hot reloads between ticks, so no NPC ever
// sees a half-swapped VM. Phase 0 (Input).
type ScriptReloadSystem struct {
	engine  *scripting.Engine
	watcher *scripting.Watcher
	log     *zap.Logger
}

func NewScriptReloadSystem(engine *scripting.Engine, watcher *scripting.Watcher, log *zap.Logger) *ScriptReloadSystem {
	return &ScriptReloadSystem{engine: engine, watcher: watcher, log: log}
}

func (s *ScriptReloadSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ScriptReloadSystem) Update(_ time.Time) {
	select {
	case err := <-s.watcher.Errors:
		s.log.Warn("script watcher error", zap.Error(err))
	default:
	}
	changed := s.watcher.Drain()
	if len(changed) == 0 {
		return
	}
	s.log.Info("lua 腳本變更", zap.Strings("files", changed))
	if err := s.engine.Reload(); err != nil {
		s.log.Error("lua 腳本重新載入失敗，保留舊版本", zap.Error(err))
	}
}
