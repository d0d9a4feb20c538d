package options

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ParseAssignment parses a "key=value" override. The value is coerced using the
// key's Schema entry; unknown keys become booleans for "true"/"false" and strings
// otherwise. A bare "key" sets a boolean option to true.
func ParseAssignment(s string) (string, Value, error) {
	key, raw, hasValue := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", Value{}, fmt.Errorf("invalid option assignment %q: missing key", s)
	}
	spec, known := Schema[key]
	if !hasValue {
		if known && !spec.accepts(KindBool) {
			return "", Value{}, fmt.Errorf("invalid option assignment %q: %s needs a value", s, key)
		}
		return key, BoolValue(true), nil
	}
	if !known {
		if raw == "true" || raw == "false" {
			return key, BoolValue(raw == "true"), nil
		}
		return key, StringValue(raw), nil
	}
	v, err := coerce(raw, spec)
	if err != nil {
		return "", Value{}, fmt.Errorf("invalid option assignment %q: %w", s, err)
	}
	return key, v, nil
}

func coerce(raw string, spec Spec) (Value, error) {
	if spec.accepts(KindBool) && (raw == "true" || raw == "false") {
		return BoolValue(raw == "true"), nil
	}
	if spec.accepts(KindList) {
		return ListValue(strings.Split(raw, ",")...), nil
	}
	if spec.accepts(KindString) {
		if len(spec.Enum) > 0 && !slices.Contains(spec.Enum, raw) {
			return Value{}, fmt.Errorf("must be one of %v", spec.Enum)
		}
		return StringValue(raw), nil
	}
	if spec.accepts(KindNumber) {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, fmt.Errorf("%q is not a number", raw)
		}
		return NumberValue(f), nil
	}
	return Value{}, errors.New("unsupported value")
}

// FromAssignments builds Options from a list of "key=value" overrides, in order.
func FromAssignments(assignments []string) (*Options, error) {
	out := &Options{}
	for _, a := range assignments {
		key, v, err := ParseAssignment(a)
		if err != nil {
			return nil, err
		}
		out.Set(key, v)
	}
	return out, nil
}
