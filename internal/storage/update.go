package storage

import (
	"fmt"
	"maps"
	"reflect"
)

// ApplyUpdate applies an operator-tagged update payload to a document,
// returning a new map. It mirrors the operator set the validation layer
// accepts; callers validate before applying, so an unknown operator here is a
// programming error surfaced as a plain error.
func ApplyUpdate(doc map[string]any, ops map[string]any) (map[string]any, error) {
	updated := make(map[string]any, len(doc))
	maps.Copy(updated, doc)

	for tag, value := range ops {
		payload, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s payload must be an object", tag)
		}
		switch tag {
		case "$set":
			maps.Copy(updated, payload)

		case "$push":
			for field, element := range payload {
				if err := appendToField(updated, field, element, false); err != nil {
					return nil, err
				}
			}

		case "$addToSet":
			for field, element := range payload {
				if err := appendToField(updated, field, element, true); err != nil {
					return nil, err
				}
			}

		case "$inc":
			for field, delta := range payload {
				current, _ := numeric(updated[field])
				amount, ok := numeric(delta)
				if !ok {
					return nil, fmt.Errorf("increment for field %s must be numeric", field)
				}
				updated[field] = current + amount
			}

		case "$unset":
			for field := range payload {
				delete(updated, field)
			}

		case "$rename":
			for oldField, newName := range payload {
				newField, ok := newName.(string)
				if !ok {
					return nil, fmt.Errorf("rename target for %s must be a string", oldField)
				}
				if existing, ok := updated[oldField]; ok {
					updated[newField] = existing
					delete(updated, oldField)
				}
			}

		default:
			return nil, fmt.Errorf("invalid update operator: %s", tag)
		}
	}
	return updated, nil
}

// appendToField appends one element, or each element of a {$each: [...]}
// wrapper, to an array field, creating the array when absent. unique skips
// elements already present, matching add-to-set semantics for comparable
// values.
func appendToField(doc map[string]any, field string, element any, unique bool) error {
	var list []any
	switch existing := doc[field].(type) {
	case nil:
		list = nil
	case []any:
		list = existing
	default:
		return fmt.Errorf("field %s is not an array", field)
	}

	elements := []any{element}
	if wrapper, ok := element.(map[string]any); ok {
		if each, ok := wrapper["$each"]; ok {
			inner, ok := each.([]any)
			if !ok {
				return fmt.Errorf("$each for %s must be an array", field)
			}
			elements = inner
		}
	}

	for _, el := range elements {
		if unique && contains(list, el) {
			continue
		}
		list = append(list, el)
	}
	doc[field] = list
	return nil
}

func contains(list []any, candidate any) bool {
	for _, el := range list {
		if reflect.DeepEqual(el, candidate) {
			return true
		}
	}
	return false
}

func numeric(value any) (float64, bool) {
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
