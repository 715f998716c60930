package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient and assigns its code from the patient
	// sequence. Returns ErrPatientAlreadyExists on duplicate phone.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// FindByPhone returns the live patient holding phone, ignoring excludeID.
	// Returns ErrPatientNotFound when the phone is free.
	FindByPhone(ctx context.Context, phone string, excludeID *uuid.UUID) (*Patient, error)

	// List returns every live patient, newest first.
	List(ctx context.Context) ([]*Patient, error)

	// SearchByName performs a case-insensitive substring match on name.
	SearchByName(ctx context.Context, fragment string) ([]*Patient, error)

	// Update applies partial updates to an existing patient record.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdatePatientCommand) (*Patient, error)

	// Delete removes the patient row permanently.
	Delete(ctx context.Context, id uuid.UUID) error
}
