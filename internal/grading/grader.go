package grading

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGrader indicates a grader was authored incorrectly. It is a
// configuration fault of the task, not a scoring outcome, and is surfaced to
// the caller instead of being silently scored as zero.
var ErrInvalidGrader = errors.New("invalid grader configuration")

// GraderType declares the container format a grader expects the raw response
// to follow.
type GraderType string

// Supported grader types.
const (
	GraderTypeXML      GraderType = "xml"
	GraderTypeJSON     GraderType = "json"
	GraderTypeText     GraderType = "text"
	GraderTypeNumber   GraderType = "number"
	GraderTypeUnitTest GraderType = "unit_test"
)

// FieldType drives type coercion of an extracted raw string.
type FieldType string

// Supported field types.
const (
	FieldTypeInt     FieldType = "int"
	FieldTypeString  FieldType = "string"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeFloat   FieldType = "float"
)

// ComparatorType selects the comparison semantics applied to an extracted value.
type ComparatorType string

// Supported comparator types.
const (
	ComparatorEquals   ComparatorType = "equals"
	ComparatorContains ComparatorType = "contains"
	ComparatorRange    ComparatorType = "range"
	ComparatorRegex    ComparatorType = "regex"
)

// ComparatorParams carries the comparator-specific expectation. An absent
// expectation marks the field as informational: extracted and echoed for
// audit, but excluded from scoring.
type ComparatorParams struct {
	Expected interface{} `json:"expected,omitempty"`
	Min      *float64    `json:"min,omitempty"`
	Max      *float64    `json:"max,omitempty"`
	Pattern  string      `json:"pattern,omitempty"`
}

// ComparatorConfig pairs a comparison rule with its parameters.
type ComparatorConfig struct {
	Type   ComparatorType   `json:"type"`
	Config ComparatorParams `json:"config"`
}

// StructureField is one expected field within a structured (xml/json) grader,
// keyed by Name in the raw response.
type StructureField struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Type       FieldType        `json:"type"`
	Weight     float64          `json:"weight"`
	Comparator ComparatorConfig `json:"comparator"`
}

// TestCase is the unit_test-shaped counterpart of StructureField, keyed by ID.
// Legacy configs carry the expectation directly in ExpectedValue instead of a
// comparator; the adapter in normalizeFields translates both shapes.
type TestCase struct {
	ID            string           `json:"id"`
	Type          FieldType        `json:"type"`
	Weight        float64          `json:"weight"`
	ExpectedValue interface{}      `json:"expected_value,omitempty"`
	Comparator    ComparatorConfig `json:"comparator"`
}

// GraderConfigBody holds the field list of a grader. Exactly one of
// Structure or TestCases may be populated.
type GraderConfigBody struct {
	Structure []StructureField `json:"structure,omitempty"`
	TestCases []TestCase       `json:"test_cases,omitempty"`
}

// GraderConfig is one named, weighted unit of evaluation attached to a task.
// The list is frozen into the task record at creation time and never mutated
// afterwards.
type GraderConfig struct {
	Type   GraderType       `json:"type"`
	Name   string           `json:"name"`
	Weight float64          `json:"weight"`
	Config GraderConfigBody `json:"config"`
}

// ValidateGraders checks every grader in an authored configuration without
// evaluating anything. Task creation runs this so a misauthored grader is
// rejected at authoring time instead of failing every future submission.
func ValidateGraders(graders []GraderConfig) error {
	for _, g := range graders {
		if _, err := normalizeFields(g); err != nil {
			return err
		}
	}
	return nil
}

// field is the normalized internal representation both grader shapes collapse
// into: extraction and comparison only ever operate on this.
type field struct {
	key        string
	fieldType  FieldType
	weight     float64
	comparator ComparatorConfig
}

// normalizeFields translates either grader shape into the internal field list
// and validates the configuration up front, so a misauthored grader fails as
// a configuration error before any scoring happens.
func normalizeFields(g GraderConfig) ([]field, error) {
	switch g.Type {
	case GraderTypeXML, GraderTypeJSON, GraderTypeText, GraderTypeNumber, GraderTypeUnitTest:
	default:
		return nil, fmt.Errorf("%w: grader %q: unknown grader type %q", ErrInvalidGrader, g.Name, g.Type)
	}

	hasStructure := len(g.Config.Structure) > 0
	hasTestCases := len(g.Config.TestCases) > 0
	if hasStructure && hasTestCases {
		return nil, fmt.Errorf("%w: grader %q: both structure and test_cases populated", ErrInvalidGrader, g.Name)
	}
	if !hasStructure && !hasTestCases {
		return nil, fmt.Errorf("%w: grader %q: neither structure nor test_cases populated", ErrInvalidGrader, g.Name)
	}

	var fields []field
	if hasStructure {
		fields = make([]field, 0, len(g.Config.Structure))
		for _, sf := range g.Config.Structure {
			if strings.TrimSpace(sf.Name) == "" {
				return nil, fmt.Errorf("%w: grader %q: structure field without a name", ErrInvalidGrader, g.Name)
			}
			fields = append(fields, field{
				key:        sf.Name,
				fieldType:  sf.Type,
				weight:     sf.Weight,
				comparator: sf.Comparator,
			})
		}
	} else {
		fields = make([]field, 0, len(g.Config.TestCases))
		for _, tc := range g.Config.TestCases {
			if strings.TrimSpace(tc.ID) == "" {
				return nil, fmt.Errorf("%w: grader %q: test case without an id", ErrInvalidGrader, g.Name)
			}
			fields = append(fields, field{
				key:        tc.ID,
				fieldType:  tc.Type,
				weight:     tc.Weight,
				comparator: testCaseComparator(tc),
			})
		}
	}

	for _, f := range fields {
		if err := validateField(g.Name, f); err != nil {
			return nil, err
		}
	}

	return fields, nil
}

// testCaseComparator lifts the legacy expected_value shorthand into a regular
// equals comparator so downstream logic never special-cases test cases.
func testCaseComparator(tc TestCase) ComparatorConfig {
	cmp := tc.Comparator
	if cmp.Type == "" {
		cmp.Type = ComparatorEquals
	}
	if cmp.Config.Expected == nil && tc.ExpectedValue != nil {
		cmp.Config.Expected = tc.ExpectedValue
	}
	return cmp
}

func validateField(graderName string, f field) error {
	switch f.fieldType {
	case FieldTypeInt, FieldTypeString, FieldTypeBoolean, FieldTypeFloat:
	default:
		return fmt.Errorf("%w: grader %q: field %q: unknown field type %q", ErrInvalidGrader, graderName, f.key, f.fieldType)
	}

	switch f.comparator.Type {
	case ComparatorEquals, ComparatorContains, ComparatorRange, ComparatorRegex:
	default:
		return fmt.Errorf("%w: grader %q: field %q: unknown comparator type %q", ErrInvalidGrader, graderName, f.key, f.comparator.Type)
	}

	if f.weight < 0 {
		return fmt.Errorf("%w: grader %q: field %q: negative weight", ErrInvalidGrader, graderName, f.key)
	}

	return nil
}
