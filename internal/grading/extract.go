package grading

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// container abstracts field lookup over the raw response for one grader.
// Lookup failure is a recoverable per-field state, reported through ok=false,
// never an error that aborts sibling fields.
type container interface {
	extract(key string) (raw string, ok bool)
}

// newContainer selects the extraction strategy implied by the grader type.
// JSON graders parse the whole response exactly once; every other type uses
// tag-delimited extraction.
func newContainer(graderType GraderType, raw string) container {
	if graderType == GraderTypeJSON {
		return newJSONContainer(raw)
	}
	return tagContainer{body: raw}
}

// tagContainer locates content between an opening tag <key> and the nearest
// matching closing tag </key>.
type tagContainer struct {
	body string
}

func (c tagContainer) extract(key string) (string, bool) {
	open := "<" + key + ">"
	closing := "</" + key + ">"

	start := strings.Index(c.body, open)
	if start < 0 {
		return "", false
	}
	start += len(open)

	end := strings.Index(c.body[start:], closing)
	if end < 0 {
		return "", false
	}

	return c.body[start : start+end], true
}

// jsonContainer holds the single parse of a JSON response. A parse failure
// fails every field of the grader uniformly.
type jsonContainer struct {
	values map[string]interface{}
	valid  bool
}

func newJSONContainer(raw string) jsonContainer {
	var values map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return jsonContainer{}
	}
	return jsonContainer{values: values, valid: true}
}

func (c jsonContainer) extract(key string) (string, bool) {
	if !c.valid {
		return "", false
	}
	value, ok := c.values[key]
	if !ok {
		return "", false
	}
	// Wrong-type values are still rendered to their raw form; coercion decides
	// downstream whether they are usable.
	return stringify(value), true
}

// stringify renders a decoded JSON value back to the textual form coercion
// operates on.
func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// coerce converts a raw extracted string to the declared field type. String
// coercion is total; every other type reports a recoverable failure for
// non-conforming content.
func coerce(raw string, fieldType FieldType) (interface{}, error) {
	trimmed := strings.TrimSpace(raw)

	switch fieldType {
	case FieldTypeString:
		return trimmed, nil
	case FieldTypeInt:
		parsed, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not a valid integer: %q", trimmed)
		}
		return parsed, nil
	case FieldTypeFloat:
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("not a valid float: %q", trimmed)
		}
		return parsed, nil
	case FieldTypeBoolean:
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		default:
			return nil, fmt.Errorf("not a valid boolean: %q", trimmed)
		}
	default:
		return nil, fmt.Errorf("unsupported field type %q", fieldType)
	}
}
