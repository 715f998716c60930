package visit

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error

	// GetByID loads the visit with its patient and author. Returns
	// ErrVisitNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)

	// List returns visits with patient and author loaded, most recent visit
	// date first.
	List(ctx context.Context, q *ListVisitsQuery) ([]*Visit, error)

	// Update stores every field of v except its author.
	Update(ctx context.Context, v *Visit) error

	Delete(ctx context.Context, id uuid.UUID) error
}
