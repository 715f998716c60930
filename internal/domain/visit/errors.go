package visit

import "errors"

var (
	ErrVisitNotFound     = errors.New("visit not found")
	ErrPatientIDRequired = errors.New("patientId is required")
	ErrNothingToUpdate   = errors.New("no fields to update")
	ErrUnknownFinding    = errors.New("unknown examination finding")
)
