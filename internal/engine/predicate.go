package engine

import (
	"strings"

	"github.com/canopy-data/canopy/internal/domain"
	"github.com/canopy-data/canopy/internal/domain/query"
)

// matches reports whether a record satisfies a single comparison
// clause. Pure function of (record, comparison).
//
// Comparison policy is deliberately loose, matching the store's
// coercive semantics: eq/ne coerce across numeric widths and numeric
// strings, and null tests are truthiness tests (nil, absent, false, 0
// and "" all count as null). An unrecognized operator matches
// everything so that unhandled operator kinds never drop records.
func matches(rec domain.Record, cmp query.Comparison) bool {
	val, present := rec.At(cmp.Field())

	switch cmp.Op() {
	case query.OpEq:
		return looseEqual(val, cmp.Value())
	case query.OpNe:
		return !looseEqual(val, cmp.Value())
	case query.OpLt:
		return looseLess(val, cmp.Value())
	case query.OpGt:
		return looseLess(cmp.Value(), val)
	case query.OpLte:
		return !looseLess(cmp.Value(), val)
	case query.OpGte:
		return !looseLess(val, cmp.Value())
	case query.OpNull:
		return isFalsy(val, present)
	case query.OpNotNull:
		return !isFalsy(val, present)
	case query.OpIn:
		return contains(cmp.Value(), val)
	case query.OpNotIn:
		return !contains(cmp.Value(), val)
	default:
		return true
	}
}

// looseEqual is value-level coerced equality: numbers compare across
// int/float width, numeric strings equal numbers ("0" == 0), and bools
// coerce to 0/1 against numbers.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	af, aNum := domain.Number(a)
	bf, bNum := domain.Number(b)
	if aNum && bNum {
		return af == bf
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return ab == bb
		}
		return bNum && boolToFloat(ab) == bf
	}
	if bb, ok := b.(bool); ok {
		return aNum && af == boolToFloat(bb)
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return as == bs
	}

	return false
}

// looseLess orders two values with a strict less-than. Numbers (and
// numeric strings) order numerically, strings lexically. Mixed
// incomparable types fall back to a lexical comparison of their
// renderings, which keeps the result deterministic.
func looseLess(a, b any) bool {
	af, aNum := domain.Number(a)
	bf, bNum := domain.Number(b)
	if aNum && bNum {
		return af < bf
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return as < bs
	}

	return domain.Stringify(a) < domain.Stringify(b)
}

// isFalsy implements the truthiness-based null test.
func isFalsy(v any, present bool) bool {
	if !present || v == nil {
		return true
	}
	switch t := v.(type) {
	case bool:
		return !t
	case string:
		return t == ""
	default:
		if f, ok := domain.Number(v); ok {
			return f == 0
		}
		return false
	}
}

// contains tests loose-equality membership of val in the operand set.
// The operand may be a slice of any element kind, or a comma-separated
// string as produced by query-string transports.
func contains(set, val any) bool {
	switch s := set.(type) {
	case []any:
		for _, member := range s {
			if looseEqual(val, member) {
				return true
			}
		}
	case []string:
		for _, member := range s {
			if looseEqual(val, member) {
				return true
			}
		}
	case []float64:
		for _, member := range s {
			if looseEqual(val, member) {
				return true
			}
		}
	case []int:
		for _, member := range s {
			if looseEqual(val, member) {
				return true
			}
		}
	case string:
		for _, member := range strings.Split(s, ",") {
			if looseEqual(val, member) {
				return true
			}
		}
	}
	return false
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
