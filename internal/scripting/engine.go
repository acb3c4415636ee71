package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for NPC AI scripts.
// Single-goroutine access only (game loop). Reload swaps in a fresh VM.
type Engine struct {
	vm   *lua.LState
	dir  string
	log  *zap.Logger
	gen  int // reload generation, 1 after NewEngine
	subs []string
}

// scriptDirs are loaded in order; later files may override earlier globals.
var scriptDirs = []string{"core", "ai"}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := &Engine{dir: scriptsDir, log: log, subs: scriptDirs}
	vm, err := e.newVM()
	if err != nil {
		return nil, err
	}
	e.vm = vm
	e.gen = 1
	return e, nil
}

func (e *Engine) newVM() (*lua.LState, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("ai_log", vm.NewFunction(e.luaLog))

	for _, sub := range e.subs {
		p := filepath.Join(e.dir, sub)
		if err := loadDir(vm, p, e.log); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return vm, nil
}

// Reload builds a fresh VM from disk and swaps it in. On error the running
// VM is kept.
func (e *Engine) Reload() error {
	vm, err := e.newVM()
	if err != nil {
		return err
	}
	e.vm.Close()
	e.vm = vm
	e.gen++
	e.log.Info("lua 腳本重新載入", zap.Int("generation", e.gen))
	return nil
}

// Generation returns how many times scripts have been loaded.
func (e *Engine) Generation() int { return e.gen }

// Has reports whether a global Lua function is defined.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// loadDir loads all .lua files in a directory.
func loadDir(vm *lua.LState, dir string, log *zap.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// luaLog implements ai_log(msg) for scripts.
func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

// --- Lua helpers ---

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

func lBool(b bool) lua.LValue {
	if b {
		return lua.LTrue
	}
	return lua.LFalse
}

// Global returns a global from the current VM (LNil when unset).
func (e *Engine) Global(name string) lua.LValue { return e.vm.GetGlobal(name) }

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
