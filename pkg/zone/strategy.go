package zone

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/matzehuels/zonealloc/pkg/errors"
)

// Strategy selects which selection algorithm a draw uses.
type Strategy string

const (
	StrategyBalanced       Strategy = "balanced"
	StrategyCenterWeighted Strategy = "center-weighted"
	StrategyEdgeOnly       Strategy = "edge-only"
	StrategyOrganic        Strategy = "organic"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{StrategyBalanced, StrategyCenterWeighted, StrategyEdgeOnly, StrategyOrganic}

// ParseStrategy resolves a user-supplied name. Unknown names produce an
// INVALID_STRATEGY error suggesting the closest known name.
func ParseStrategy(name string) (Strategy, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	norm = strings.ReplaceAll(norm, "_", "-")
	for _, s := range Strategies {
		if string(s) == norm {
			return s, nil
		}
	}

	best, bestDist := Strategy(""), -1
	for _, s := range Strategies {
		if d := levenshtein.ComputeDistance(norm, string(s)); bestDist < 0 || d < bestDist {
			best, bestDist = s, d
		}
	}
	if bestDist <= len(best)/2 {
		return "", errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %q (did you mean %q?)", name, best)
	}
	return "", errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %q", name)
}
