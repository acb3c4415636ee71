package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NpcTemplate holds static data for an NPC type loaded from YAML.
type NpcTemplate struct {
	NpcID     int32  `yaml:"npc_id"`
	Name      string `yaml:"name"`
	Impl      string `yaml:"impl"` // L1Monster, L1Merchant, L1Guard, ...
	GfxID     int32  `yaml:"gfx_id"`
	Level     int16  `yaml:"level"`
	HP        int32  `yaml:"hp"`
	MP        int32  `yaml:"mp"`
	Agro      bool   `yaml:"agro"`
	MoveSpeed int16  `yaml:"move_speed"` // ms per tile, 0 = every tick

	// AIScript is the Lua global called for decisions ("" = npc_ai).
	// Controller-less NPCs (AIScript "none") run states and actions only.
	AIScript    string `yaml:"ai_script"`
	WanderRange int32  `yaml:"wander_range"` // tiles from spawn, 0 = stationary
}

// HasController reports whether NPCs of this template get a Lua controller.
func (t *NpcTemplate) HasController() bool { return t.AIScript != "none" }

// ScriptName returns the Lua entry point for this template.
func (t *NpcTemplate) ScriptName() string {
	if t.AIScript == "" {
		return "npc_ai"
	}
	return t.AIScript
}

// SpawnEntry defines where and how many NPCs to spawn.
type SpawnEntry struct {
	NpcID        int32 `yaml:"npc_id"`
	MapID        int16 `yaml:"map_id"`
	X            int32 `yaml:"x"`
	Y            int32 `yaml:"y"`
	Count        int   `yaml:"count"`
	RandomX      int32 `yaml:"randomx"`
	RandomY      int32 `yaml:"randomy"`
	Heading      int16 `yaml:"heading"`
	RespawnDelay int   `yaml:"respawn_delay"` // seconds, 0 = config default, -1 = never
}

type npcListFile struct {
	Npcs []NpcTemplate `yaml:"npcs"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// NpcTable holds all NPC templates indexed by NpcID.
type NpcTable struct {
	templates map[int32]*NpcTemplate
}

// LoadNpcTable loads NPC templates from a YAML file.
func LoadNpcTable(path string) (*NpcTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read npc_list: %w", err)
	}
	var f npcListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse npc_list: %w", err)
	}
	t := &NpcTable{templates: make(map[int32]*NpcTemplate, len(f.Npcs))}
	for i := range f.Npcs {
		npc := &f.Npcs[i]
		if _, dup := t.templates[npc.NpcID]; dup {
			return nil, fmt.Errorf("npc_list: duplicate npc_id %d", npc.NpcID)
		}
		t.templates[npc.NpcID] = npc
	}
	return t, nil
}

// Get returns an NPC template by ID, or nil if not found.
func (t *NpcTable) Get(npcID int32) *NpcTemplate {
	return t.templates[npcID]
}

// Count returns the number of loaded templates.
func (t *NpcTable) Count() int {
	return len(t.templates)
}

// LoadSpawnList loads spawn entries from a YAML file.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	for i := range f.Spawns {
		if f.Spawns[i].Count <= 0 {
			f.Spawns[i].Count = 1
		}
	}
	return f.Spawns, nil
}
