package domain

import (
	"strings"

	dErrors "atsnet/pkg/domain-errors"
)

// CheckKind identifies how a quality check compares observed to threshold.
type CheckKind string

const (
	CheckMaximum CheckKind = "maximum"
	CheckMinimum CheckKind = "minimum"
	CheckExact   CheckKind = "exact"
)

var validCheckKinds = map[CheckKind]bool{
	CheckMaximum: true,
	CheckMinimum: true,
	CheckExact:   true,
}

// ParseCheckKind normalizes external input (lowercase, exact match).
func ParseCheckKind(s string) (CheckKind, error) {
	kind := CheckKind(strings.ToLower(strings.TrimSpace(s)))
	if !validCheckKinds[kind] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown check kind %q", s)
	}
	return kind, nil
}

func (k CheckKind) IsValid() bool {
	return validCheckKinds[k]
}

func (k CheckKind) String() string {
	return string(k)
}

// MeasurementStatus is the validation state of one recorded measurement.
type MeasurementStatus string

const (
	MeasurementPending        MeasurementStatus = "pending"
	MeasurementValid          MeasurementStatus = "valid"
	MeasurementInvalid        MeasurementStatus = "invalid"
	MeasurementRequiresReview MeasurementStatus = "requires_review"
)

var validMeasurementStatuses = map[MeasurementStatus]bool{
	MeasurementPending:        true,
	MeasurementValid:          true,
	MeasurementInvalid:        true,
	MeasurementRequiresReview: true,
}

// ParseMeasurementStatus normalizes external input (lowercase, exact match).
func ParseMeasurementStatus(s string) (MeasurementStatus, error) {
	status := MeasurementStatus(strings.ToLower(strings.TrimSpace(s)))
	if !validMeasurementStatuses[status] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown measurement status %q", s)
	}
	return status, nil
}

func (s MeasurementStatus) IsValid() bool {
	return validMeasurementStatuses[s]
}

func (s MeasurementStatus) String() string {
	return string(s)
}
