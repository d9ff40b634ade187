package handler

import (
	"atsnet/internal/inspection"
	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
)

type interruptRequest struct {
	Reason string `json:"reason"`
}

type measurementRequest struct {
	TestType    string  `json:"testType"`
	Parameter   string  `json:"parameter"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	EquipmentID string  `json:"equipmentId"`
	Status      string  `json:"status"`
}

// ToMeasurement converts the payload to the domain type. The recording time
// and operator are filled in by the service and handler.
func (r measurementRequest) ToMeasurement(operatorID domain.UserID) (inspection.Measurement, error) {
	m := inspection.Measurement{
		Parameter:   r.Parameter,
		Value:       r.Value,
		Unit:        r.Unit,
		EquipmentID: r.EquipmentID,
		OperatorID:  operatorID,
	}
	if r.Status != "" {
		status, err := domain.ParseMeasurementStatus(r.Status)
		if err != nil {
			return inspection.Measurement{}, err
		}
		m.Status = status
	}
	return m, nil
}

type qualityCheckRequest struct {
	Kind      string  `json:"kind"`
	Threshold float64 `json:"threshold"`
	Observed  float64 `json:"observed"`
}

func (r qualityCheckRequest) ToQualityCheck() (inspection.QualityCheck, error) {
	kind, err := domain.ParseCheckKind(r.Kind)
	if err != nil {
		return inspection.QualityCheck{}, err
	}
	return inspection.QualityCheck{
		Kind:      kind,
		Threshold: r.Threshold,
		Observed:  r.Observed,
	}, nil
}

type verifyRequest struct {
	Checks []qualityCheckRequest `json:"checks"`
	Notes  string                `json:"notes"`
}

func (r verifyRequest) ToQualityChecks() ([]inspection.QualityCheck, error) {
	if len(r.Checks) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one quality check is required")
	}
	checks := make([]inspection.QualityCheck, 0, len(r.Checks))
	for _, raw := range r.Checks {
		check, err := raw.ToQualityCheck()
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	return checks, nil
}

type issueRequest struct {
	Description string `json:"description"`
}
