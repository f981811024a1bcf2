// Package filter compiles a Source's declared Filter list into an
// applicable chain and evaluates it against a normalized Entry stream.
//
// A filter's Rules are evaluated in declared order; the filter's keep/drop
// decision per entry depends on its Type (block or allow) and on whether
// the combining Mode is "or" or "and". See applyOne and matchesMode for
// the exact block/allow x or/and matrix.
package filter

import "github.com/fusefeed/fusefeed/internal/feedmodel"

// Chain is an ordered sequence of filters ready to apply to an Entry
// slice. It is the declared []feedmodel.Filter itself, converted without
// any compilation step; internal/fetch converts a Source's filters on
// every fetch.
type Chain []feedmodel.Filter

// Apply runs every filter in the chain in order, the output of filter i
// becoming the input of filter i+1.
func (c Chain) Apply(entries []feedmodel.Entry) []feedmodel.Entry {
	for _, f := range c {
		entries = applyOne(f, entries)
	}
	return entries
}

func applyOne(f feedmodel.Filter, entries []feedmodel.Entry) []feedmodel.Entry {
	switch f.Type {
	case feedmodel.FilterTypeBlock:
		if !validMode(f.Mode) {
			// Anything other than or/and yields an empty result list
			// (defensive). Applies regardless of filter type.
			return nil
		}
		return applyBlock(f, entries)
	case feedmodel.FilterTypeAllow:
		if !validMode(f.Mode) {
			return nil
		}
		return applyAllow(f, entries)
	default:
		// Unknown filter type: identity pass-through.
		return entries
	}
}

func validMode(m feedmodel.FilterMode) bool {
	return m == feedmodel.FilterModeOr || m == feedmodel.FilterModeAnd
}

func applyBlock(f feedmodel.Filter, entries []feedmodel.Entry) []feedmodel.Entry {
	results := make([]feedmodel.Entry, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if matchesMode(f, e) {
			continue // drop
		}
		results = append(results, *e)
	}
	return results
}

func applyAllow(f feedmodel.Filter, entries []feedmodel.Entry) []feedmodel.Entry {
	results := make([]feedmodel.Entry, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if matchesMode(f, e) {
			results = append(results, *e)
		}
	}
	return results
}

// matchesMode reports whether an entry matches a filter's rule set under
// its combining mode: ANY rule for "or", ALL rules for "and". Callers only
// reach here once f.Mode has already passed validMode.
func matchesMode(f feedmodel.Filter, e *feedmodel.Entry) bool {
	if f.Mode == feedmodel.FilterModeOr {
		for _, r := range f.Rules {
			if evalRule(r, e) {
				return true
			}
		}
		return false
	}
	// f.Mode == feedmodel.FilterModeAnd
	for _, r := range f.Rules {
		if !evalRule(r, e) {
			return false
		}
	}
	return len(f.Rules) > 0
}
