package grading

import (
	"regexp"
	"strings"
)

// applicable reports whether the comparator carries an expectation. Fields
// without one are extracted for audit but contribute nothing to scoring.
func (c ComparatorConfig) applicable() bool {
	switch c.Type {
	case ComparatorEquals, ComparatorContains:
		return c.Config.Expected != nil
	case ComparatorRange:
		return c.Config.Min != nil || c.Config.Max != nil
	case ComparatorRegex:
		return c.Config.Pattern != ""
	default:
		return false
	}
}

// expectation echoes the configured expectation in a shape suitable for the
// audit trail of a FieldResult.
func (c ComparatorConfig) expectation() interface{} {
	switch c.Type {
	case ComparatorEquals, ComparatorContains:
		return c.Config.Expected
	case ComparatorRange:
		bounds := map[string]interface{}{}
		if c.Config.Min != nil {
			bounds["min"] = *c.Config.Min
		}
		if c.Config.Max != nil {
			bounds["max"] = *c.Config.Max
		}
		if len(bounds) == 0 {
			return nil
		}
		return bounds
	case ComparatorRegex:
		if c.Config.Pattern == "" {
			return nil
		}
		return c.Config.Pattern
	default:
		return nil
	}
}

// compare applies the comparator to a coerced value. It is pure and total:
// malformed expectations and invalid patterns yield false, never a panic.
func compare(c ComparatorConfig, actual interface{}) bool {
	switch c.Type {
	case ComparatorEquals:
		return equalsMatch(c.Config.Expected, actual)
	case ComparatorContains:
		return strings.Contains(valueString(actual), valueString(c.Config.Expected))
	case ComparatorRange:
		return rangeMatch(c.Config.Min, c.Config.Max, actual)
	case ComparatorRegex:
		return regexMatch(c.Config.Pattern, actual)
	default:
		return false
	}
}

// equalsMatch checks strict value equality after type coercion. Numeric
// comparison is exact, not epsilon-tolerant; float expectations that cannot
// be represented exactly are a known precision risk.
func equalsMatch(expected, actual interface{}) bool {
	if expectedNum, ok := asFloat(expected); ok {
		actualNum, ok := asFloat(actual)
		return ok && expectedNum == actualNum
	}

	if expectedBool, ok := expected.(bool); ok {
		actualBool, ok := actual.(bool)
		return ok && expectedBool == actualBool
	}

	if expectedStr, ok := expected.(string); ok {
		return valueString(actual) == expectedStr
	}

	return false
}

func rangeMatch(min, max *float64, actual interface{}) bool {
	value, ok := asFloat(actual)
	if !ok {
		return false
	}
	if min != nil && value < *min {
		return false
	}
	if max != nil && value > *max {
		return false
	}
	return true
}

// regexMatch uses search semantics: the pattern may match anywhere in the
// value. An invalid pattern is a non-match rather than an error.
func regexMatch(pattern string, actual interface{}) bool {
	if pattern == "" {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(valueString(actual))
}

// asFloat widens any supported numeric representation to float64.
func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func valueString(value interface{}) string {
	return stringify(value)
}
