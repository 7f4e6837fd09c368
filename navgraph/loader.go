package navgraph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chianfern/free-fleet/geometry"
)

// yamlGraph mirrors the on-disk graph description: a flat list of
// waypoints (index implied by position) and lanes (entry/exit by index).
type yamlGraph struct {
	Waypoints []yamlWaypoint `yaml:"waypoints"`
	Lanes     []yamlLane     `yaml:"lanes"`
}

type yamlWaypoint struct {
	MapName string  `yaml:"map"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
}

type yamlLane struct {
	Entry int `yaml:"entry"`
	Exit  int `yaml:"exit"`
}

// LoadYAML reads a navigation graph description from path and constructs a
// Graph. Waypoint index is implied by position in the file.
func LoadYAML(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("navgraph: read %s: %w", path, err)
	}
	var raw yamlGraph
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("navgraph: parse %s: %w", path, err)
	}

	waypoints := make([]Waypoint, len(raw.Waypoints))
	for i, w := range raw.Waypoints {
		waypoints[i] = Waypoint{
			Index:    i,
			MapName:  w.MapName,
			Location: geometry.Point{X: w.X, Y: w.Y},
		}
	}
	lanes := make([]Lane, len(raw.Lanes))
	for i, l := range raw.Lanes {
		lanes[i] = Lane{Index: i, Entry: l.Entry, Exit: l.Exit}
	}

	return New(waypoints, lanes)
}
