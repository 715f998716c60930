package patient

import "errors"

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrPatientAlreadyExists = errors.New("a patient with this phone number already exists")
	ErrInvalidGender        = errors.New("invalid gender value")
	ErrSearchTermRequired   = errors.New("please provide a patient name to search")
	ErrNoPatientsFound      = errors.New("no patients found matching the search term")
	ErrNothingToUpdate      = errors.New("no fields to update")
	ErrPatientHasVisits     = errors.New("patient has recorded visits and cannot be deleted")
)
