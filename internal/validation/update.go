package validation

import (
	"context"
	"slices"
	"sort"

	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
)

// Update operator tags. The set mirrors the document store's operator
// language; anything else fails immediately.
const (
	opSet      = "$set"
	opPush     = "$push"
	opAddToSet = "$addToSet"
	opInc      = "$inc"
	opUnset    = "$unset"
	opRename   = "$rename"
)

// ValidateUpdate checks an operator-tagged update payload before it reaches
// the store. A "$set" payload is validated as a full document under the
// update operation; array appends validate each appended element as a partial
// update document; increments are checked for numeric shape only and skip the
// business-rule pass.
func (v *Validator) ValidateUpdate(ctx context.Context, collection domain.Collection, query map[string]any, ops map[string]any) error {
	schema, err := v.registry.Describe(collection)
	if err != nil {
		return err
	}

	tags := make([]string, 0, len(ops))
	for tag := range ops {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		value := ops[tag]
		switch tag {
		case opSet:
			doc, ok := value.(map[string]any)
			if !ok {
				return dErrors.New(dErrors.CodeValidationFailed, "$set payload must be an object")
			}
			if err := v.ValidateDocument(ctx, collection, doc, OpUpdate); err != nil {
				return err
			}

		case opPush, opAddToSet:
			if err := v.validateArrayAppend(ctx, collection, tag, value); err != nil {
				return err
			}

		case opInc:
			if err := validateIncrement(tag, value); err != nil {
				return err
			}

		case opUnset:
			fields, ok := value.(map[string]any)
			if !ok {
				return dErrors.New(dErrors.CodeValidationFailed, "$unset payload must be an object")
			}
			for field := range fields {
				if slices.Contains(schema.Required, field) {
					return dErrors.Newf(dErrors.CodeValidationFailed, "cannot unset required field: %s", field)
				}
			}

		case opRename:
			renames, ok := value.(map[string]any)
			if !ok {
				return dErrors.New(dErrors.CodeValidationFailed, "$rename payload must be an object")
			}
			for oldField, newName := range renames {
				newField, ok := newName.(string)
				if !ok {
					return dErrors.Newf(dErrors.CodeValidationFailed, "rename target for %s must be a string", oldField)
				}
				if slices.Contains(schema.Required, oldField) || slices.Contains(schema.Required, newField) {
					return dErrors.Newf(dErrors.CodeValidationFailed,
						"cannot rename required field: %s -> %s", oldField, newField)
				}
			}

		default:
			return dErrors.Newf(dErrors.CodeValidationFailed, "invalid update operator: %s", tag)
		}
	}

	return nil
}

// validateArrayAppend checks each appended element as a partial update
// document. Scalar elements have no fields to validate and pass through.
func (v *Validator) validateArrayAppend(ctx context.Context, collection domain.Collection, tag string, value any) error {
	payload, ok := value.(map[string]any)
	if !ok {
		return dErrors.Newf(dErrors.CodeValidationFailed, "%s payload must be an object keyed by field", tag)
	}
	fields := make([]string, 0, len(payload))
	for field := range payload {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		elements := []any{payload[field]}
		// $push may carry {$each: [...]} to append several elements at once.
		if wrapper, ok := payload[field].(map[string]any); ok {
			if each, ok := wrapper["$each"]; ok {
				list, ok := each.([]any)
				if !ok {
					return dErrors.Newf(dErrors.CodeValidationFailed, "%s $each for %s must be an array", tag, field)
				}
				elements = list
			}
		}
		for _, element := range elements {
			doc, ok := element.(map[string]any)
			if !ok {
				continue
			}
			if err := v.ValidateDocument(ctx, collection, doc, OpUpdate); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateIncrement checks numeric shape only; increments carry deltas, not
// domain state, so no business rules run.
func validateIncrement(tag string, value any) error {
	payload, ok := value.(map[string]any)
	if !ok {
		return dErrors.Newf(dErrors.CodeValidationFailed, "%s payload must be an object keyed by field", tag)
	}
	for field, delta := range payload {
		if _, ok := asFloat(delta); !ok {
			return dErrors.Newf(dErrors.CodeValidationFailed, "increment for field %s must be numeric", field)
		}
	}
	return nil
}
