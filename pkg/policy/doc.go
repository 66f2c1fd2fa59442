// Package policy supplies the allocator's performance policy.
//
// A [Tiered] policy maps a device performance [zone.Tier] to concrete
// [Limits]: occupant ceiling, density ceiling, whether center placement and
// complex (organic) paths are enabled, the default strategy, and per-kind
// weight factors. [Classify] picks a tier from a [Device] profile.
//
// The policy adapts at runtime: when the monitor reports frame rates under
// the tier's floor for several consecutive samples, the tier steps down.
package policy
