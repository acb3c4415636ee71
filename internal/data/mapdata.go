package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MapInfo holds bounds and static obstacles for one map.
type MapInfo struct {
	MapID   int16     `yaml:"map_id"`
	Name    string    `yaml:"name"`
	StartX  int32     `yaml:"start_x"`
	EndX    int32     `yaml:"end_x"`
	StartY  int32     `yaml:"start_y"`
	EndY    int32     `yaml:"end_y"`
	Blocked [][]int32 `yaml:"blocked"` // impassable tiles as [x, y]
}

type tileKey struct {
	x, y int32
}

type mapEntry struct {
	info    MapInfo
	blocked map[tileKey]struct{}
}

// MapDataTable answers bounds and static passability queries.
type MapDataTable struct {
	maps map[int16]*mapEntry
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

// LoadMapData loads map metadata from map_list.yaml.
func LoadMapData(path string) (*MapDataTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map_list: %w", err)
	}
	var f mapListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse map_list: %w", err)
	}
	t := &MapDataTable{maps: make(map[int16]*mapEntry, len(f.Maps))}
	for _, m := range f.Maps {
		if m.EndX < m.StartX || m.EndY < m.StartY {
			return nil, fmt.Errorf("map_list: map %d has inverted bounds", m.MapID)
		}
		e := &mapEntry{info: m, blocked: make(map[tileKey]struct{}, len(m.Blocked))}
		for _, b := range m.Blocked {
			if len(b) != 2 {
				return nil, fmt.Errorf("map_list: map %d blocked tile %v is not [x, y]", m.MapID, b)
			}
			e.blocked[tileKey{b[0], b[1]}] = struct{}{}
		}
		t.maps[m.MapID] = e
	}
	return t, nil
}

func (t *MapDataTable) Count() int { return len(t.maps) }

// GetInfo returns map metadata, or nil for unknown maps.
func (t *MapDataTable) GetInfo(mapID int16) *MapInfo {
	if e, ok := t.maps[mapID]; ok {
		return &e.info
	}
	return nil
}

// IsInMap reports whether (x, y) lies inside the map bounds. Unknown maps
// have no bounds.
func (t *MapDataTable) IsInMap(mapID int16, x, y int32) bool {
	e, ok := t.maps[mapID]
	if !ok {
		return true
	}
	return x >= e.info.StartX && x <= e.info.EndX && y >= e.info.StartY && y <= e.info.EndY
}

// IsPassablePoint reports whether a tile is in bounds and not statically blocked.
func (t *MapDataTable) IsPassablePoint(mapID int16, x, y int32) bool {
	if !t.IsInMap(mapID, x, y) {
		return false
	}
	e, ok := t.maps[mapID]
	if !ok {
		return true
	}
	_, blocked := e.blocked[tileKey{x, y}]
	return !blocked
}
