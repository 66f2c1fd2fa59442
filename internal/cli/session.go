package cli

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/zonealloc/pkg/compat"
	"github.com/matzehuels/zonealloc/pkg/observability"
	"github.com/matzehuels/zonealloc/pkg/policy"
	"github.com/matzehuels/zonealloc/pkg/zone"
)

// session is one allocator together with the providers it was built with.
type session struct {
	alloc  *zone.Allocator
	policy *policy.Tiered
	compat *compat.Provider
}

// newSession builds providers from the configuration and an allocator for v.
// tierOverride, when non-empty, replaces the configured tier.
func (c fileConfig) newSession(v zone.Viewport, tierOverride string, logger *log.Logger, hooks observability.AllocatorHooks, extra ...zone.Option) (*session, error) {
	if tierOverride != "" {
		c.Policy.Tier = tierOverride
	}
	tier, err := c.tier()
	if err != nil {
		return nil, err
	}

	popts := []policy.Option{
		policy.WithDowngradeAfter(c.Policy.DowngradeAfter),
		policy.WithLogger(logger),
	}
	for t, o := range c.Policy.Limits {
		popts = append(popts, policy.WithOverride(t, o))
	}
	pol := policy.New(tier, popts...)

	cp := compat.New(
		compat.WithPadding(c.Compat.Padding),
		compat.WithCapabilities(zone.Capabilities{
			SimplePositioningOnly: c.Compat.SimplePositioningOnly,
			VeryCompactViewport:   c.Compat.VeryCompactViewport,
		}),
	)

	opts := append([]zone.Option{
		zone.WithConfig(c.Allocator),
		zone.WithLogger(logger),
		zone.WithHooks(hooks),
	}, extra...)

	logger.Debug("building allocator", "tier", tier, "width", v.Width, "height", v.Height)
	return &session{
		alloc:  zone.New(v, pol, cp, opts...),
		policy: pol,
		compat: cp,
	}, nil
}
