package validation

import (
	"fmt"
	"time"

	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
)

// Kind is the statically expected run-time kind of a document field.
type Kind string

const (
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindInteger  Kind = "integer"
	KindBool     Kind = "boolean"
	KindDatetime Kind = "datetime"
	KindObject   Kind = "object"
	KindArray    Kind = "array"
	KindID       Kind = "id"
)

// matchesKind checks a run-time value against its declared kind. Documents
// arrive either as decoded JSON (float64 numbers, string timestamps) or as
// typed values from internal callers; both representations are accepted.
func matchesKind(value any, kind Kind) bool {
	switch kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindNumber:
		_, ok := asFloat(value)
		return ok
	case KindInteger:
		_, ok := asInt(value)
		return ok
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindDatetime:
		return isDatetime(value)
	case KindObject:
		_, ok := value.(map[string]any)
		return ok
	case KindArray:
		_, ok := value.([]any)
		return ok
	case KindID:
		s, ok := value.(string)
		return ok && s != ""
	default:
		return false
	}
}

func isDatetime(value any) bool {
	switch v := value.(type) {
	case time.Time:
		return true
	case string:
		_, err := time.Parse(time.RFC3339, v)
		return err == nil
	default:
		return false
	}
}

// ShapeFunc performs the structural check for one create/update variant. It
// returns the first violation; the caller fails the document immediately.
type ShapeFunc func(doc map[string]any) error

// Schema is one collection's immutable validation descriptor: required and
// unique field names, bound field validators, statically expected kinds, and
// the per-operation shape checks. Built once at process start; never mutated.
type Schema struct {
	Collection  domain.Collection
	Required    []string
	Unique      []string
	Validators  map[string]FieldValidator
	Kinds       map[string]Kind
	CreateShape ShapeFunc
	UpdateShape ShapeFunc
}

// Registry holds the schema descriptors for every known collection.
type Registry struct {
	schemas map[domain.Collection]*Schema
}

// NewRegistry builds the descriptor set. The clock parameterizes validators
// that compare against the current date (manufacturing year).
func NewRegistry(clock func() time.Time) *Registry {
	schemas := map[domain.Collection]*Schema{
		domain.CollectionUsers: {
			Collection: domain.CollectionUsers,
			Required:   []string{"email", "role", "status"},
			Unique:     []string{"email"},
			Validators: map[string]FieldValidator{
				"email": ValidEmail,
				"phone": ValidPhone,
			},
			Kinds: map[string]Kind{
				"email":       KindString,
				"role":        KindString,
				"status":      KindString,
				"phone":       KindString,
				"fullName":    KindString,
				"centerId":    KindID,
				"permissions": KindArray,
				"profile":     KindObject,
			},
			CreateShape: userShape,
			UpdateShape: userShape,
		},
		domain.CollectionCenters: {
			Collection: domain.CollectionCenters,
			Required:   []string{"centerName", "centerCode", "address", "status"},
			Unique:     []string{"centerCode"},
			Validators: map[string]FieldValidator{
				"centerCode":  ValidCenterCode,
				"pinCode":     ValidPINCode,
				"coordinates": ValidCoordinates,
			},
			Kinds: map[string]Kind{
				"centerName":  KindString,
				"centerCode":  KindString,
				"address":     KindObject,
				"status":      KindString,
				"pinCode":     KindString,
				"coordinates": KindObject,
				"equipment":   KindObject,
				"ownerId":     KindID,
			},
			CreateShape: centerShape,
			UpdateShape: centerShape,
		},
		domain.CollectionSessions: {
			Collection: domain.CollectionSessions,
			Required:   []string{"vehicleId", "centerId", "sessionCode", "status"},
			Unique:     []string{"sessionCode"},
			Validators: map[string]FieldValidator{
				"sessionCode": ValidSessionCode,
			},
			Kinds: map[string]Kind{
				"vehicleId":     KindID,
				"centerId":      KindID,
				"sessionCode":   KindString,
				"status":        KindString,
				"currentStatus": KindString,
				"scheduledTime": KindDatetime,
				"startTime":     KindDatetime,
				"endTime":       KindDatetime,
				"duration":      KindInteger,
				"currentStep":   KindInteger,
				"operatorId":    KindID,
				"supervisorId":  KindID,
				"measurements":  KindObject,
				"qualityChecks": KindArray,
				"verifications": KindArray,
				"interruptions": KindArray,
				"issues":        KindArray,
				"notes":         KindString,
			},
			CreateShape: sessionShape,
			UpdateShape: sessionShape,
		},
		domain.CollectionVehicles: {
			Collection: domain.CollectionVehicles,
			Required:   []string{"registrationNumber", "vehicleType", "manufacturingYear"},
			Unique:     []string{"registrationNumber"},
			Validators: map[string]FieldValidator{
				"registrationNumber": ValidRegistrationNumber,
				"manufacturingYear":  ManufacturingYear(clock),
			},
			Kinds: map[string]Kind{
				"registrationNumber": KindString,
				"vehicleType":        KindString,
				"manufacturingYear":  KindInteger,
				"ownerId":            KindID,
				"centerId":           KindID,
				"documents":          KindObject,
				"testHistory":        KindArray,
			},
			CreateShape: vehicleShape,
			UpdateShape: vehicleShape,
		},
	}
	return &Registry{schemas: schemas}
}

// Describe returns the schema descriptor for a collection. An unregistered
// collection is a schema_not_found condition, distinct from a validation
// failure.
func (r *Registry) Describe(collection domain.Collection) (*Schema, error) {
	schema, ok := r.schemas[collection]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeSchemaNotFound, "no validation schema defined for collection %q", collection)
	}
	return schema, nil
}

// requireObjectMember checks that doc[field], when present as an object,
// carries a non-empty string member.
func requireObjectMember(obj map[string]any, member string) error {
	v, ok := obj[member]
	if !ok {
		return fmt.Errorf("missing %q", member)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return fmt.Errorf("%q must be a non-empty string", member)
	}
	return nil
}

func userShape(doc map[string]any) error {
	if v, ok := doc["profile"]; ok {
		if _, ok := v.(map[string]any); !ok {
			return fmt.Errorf("profile must be an object")
		}
	}
	return nil
}

func centerShape(doc map[string]any) error {
	if v, ok := doc["address"]; ok {
		addr, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("address must be an object")
		}
		for _, member := range []string{"city", "state"} {
			if err := requireObjectMember(addr, member); err != nil {
				return fmt.Errorf("address: %w", err)
			}
		}
	}
	if v, ok := doc["equipment"]; ok {
		if _, ok := v.(map[string]any); !ok {
			return fmt.Errorf("equipment must be an object keyed by category")
		}
	}
	return nil
}

func sessionShape(doc map[string]any) error {
	if v, ok := doc["scheduledTime"]; ok && !isDatetime(v) {
		return fmt.Errorf("scheduledTime must be a date-time")
	}
	if v, ok := doc["measurements"]; ok {
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("measurements must be an object keyed by test type")
		}
		for testType, seq := range m {
			if _, ok := seq.([]any); !ok {
				return fmt.Errorf("measurements[%q] must be an ordered list", testType)
			}
		}
	}
	return nil
}

func vehicleShape(doc map[string]any) error {
	if v, ok := doc["documents"]; ok {
		if _, ok := v.(map[string]any); !ok {
			return fmt.Errorf("documents must be an object keyed by document type")
		}
	}
	return nil
}
