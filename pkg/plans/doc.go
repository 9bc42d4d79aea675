// Package plans defines the subscription tiers, their per-period limits, and
// the closed set of copywriting tones accepted by the generator.
//
// Tiers and tones are modelled as closed enumerations. Parsing an unknown
// value never fails: tiers fall back to TierFree and tones fall back to
// ToneProfessional.
//
// A Registry is built once at startup, optionally with per-tier overrides
// from configuration, and is read-only afterwards:
//
//	reg, err := plans.NewRegistry(nil)
//	limit := reg.LimitFor(plans.TierBasic) // 50
package plans
