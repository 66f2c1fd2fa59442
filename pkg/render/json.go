package render

import (
	"encoding/json"

	"github.com/matzehuels/zonealloc/pkg/zone"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	seed     uint64
	strategy zone.Strategy
	tier     zone.Tier
}

// WithJSONSeed records the random seed so a simulation can be replayed.
func WithJSONSeed(seed uint64) JSONOption { return func(r *jsonRenderer) { r.seed = seed } }

// WithJSONStrategy records the selection strategy that produced the snapshot.
func WithJSONStrategy(s zone.Strategy) JSONOption { return func(r *jsonRenderer) { r.strategy = s } }

// WithJSONTier records the policy tier.
func WithJSONTier(t zone.Tier) JSONOption { return func(r *jsonRenderer) { r.tier = t } }

type jsonOutput struct {
	Viewport     zone.Viewport     `json:"viewport"`
	Ratios       zone.Ratios       `json:"ratios"`
	Tier         zone.Tier         `json:"tier,omitempty"`
	Strategy     zone.Strategy     `json:"strategy,omitempty"`
	Seed         uint64            `json:"seed,omitempty"`
	PartitionID  string            `json:"partition_id,omitempty"`
	Generation   int               `json:"generation,omitempty"`
	Regions      []jsonRegion      `json:"regions"`
	Distribution zone.Distribution `json:"distribution"`
	Points       []zone.Point      `json:"points,omitempty"`
}

type jsonRegion struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Kind            zone.Kind `json:"kind"`
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	Width           float64   `json:"width"`
	Height          float64   `json:"height"`
	BaseWeight      float64   `json:"base_weight"`
	Weight          float64   `json:"weight"`
	ActiveOccupants int       `json:"active_occupants"`
	TotalUsage      int       `json:"total_usage"`
	Density         float64   `json:"density"`
}

// RenderJSON exports the snapshot as a pretty-printed JSON document. Regions
// keep topology order.
func RenderJSON(s Snapshot, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Viewport:     s.Viewport,
		Ratios:       s.Ratios,
		Tier:         r.tier,
		Strategy:     r.strategy,
		Seed:         r.seed,
		PartitionID:  s.Stats.PartitionID,
		Generation:   s.Stats.Generation,
		Regions:      make([]jsonRegion, 0, len(s.Regions)),
		Distribution: s.Distribution,
		Points:       s.Points,
	}
	for _, reg := range s.Regions {
		out.Regions = append(out.Regions, jsonRegion{
			ID:              reg.ID,
			Name:            reg.Name,
			Kind:            reg.Kind,
			X:               reg.Bounds.MinX,
			Y:               reg.Bounds.MinY,
			Width:           reg.Bounds.Width(),
			Height:          reg.Bounds.Height(),
			BaseWeight:      reg.BaseWeight,
			Weight:          reg.Weight,
			ActiveOccupants: reg.ActiveOccupants,
			TotalUsage:      reg.TotalUsageCount,
			Density:         s.Distribution.Densities[reg.ID],
		})
	}
	return json.MarshalIndent(out, "", "  ")
}
