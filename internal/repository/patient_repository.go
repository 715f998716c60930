package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobos12/eyeclinic/internal/domain/patient"
	"github.com/bobos12/eyeclinic/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// Create draws the next code from the patient sequence and inserts the row.
// A failed insert leaves a gap in the numbering; codes are never reused.
func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	var seq int64
	if err := r.db.WithContext(ctx).
		Raw("SELECT nextval(?::regclass)", database.PatientCodeSequence).
		Scan(&seq).Error; err != nil {
		return fmt.Errorf("allocating patient code: %w", err)
	}
	p.Code = patient.FormatCode(seq)

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isDuplicateKeyError(err, "phone") {
			return patient.ErrPatientAlreadyExists
		}
		return fmt.Errorf("creating patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("getting patient: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) FindByPhone(ctx context.Context, phone string, excludeID *uuid.UUID) (*patient.Patient, error) {
	q := r.db.WithContext(ctx).Where("phone = ? AND deleted_at IS NULL", phone)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var p patient.Patient
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("finding patient by phone: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) List(ctx context.Context) ([]*patient.Patient, error) {
	var patients []*patient.Patient
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("created_at DESC").
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	return patients, nil
}

func (r *PatientRepository) SearchByName(ctx context.Context, fragment string) ([]*patient.Patient, error) {
	var patients []*patient.Patient
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL AND name ILIKE ?", likePattern(fragment)).
		Order("name ASC").
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("searching patients: %w", err)
	}
	return patients, nil
}

func (r *PatientRepository) Update(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	updates := map[string]any{}
	if cmd.Name != nil {
		updates["name"] = *cmd.Name
	}
	if cmd.Phone != nil {
		updates["phone"] = *cmd.Phone
	}
	if cmd.Age != nil {
		updates["age"] = *cmd.Age
	}
	if cmd.Gender != nil {
		updates["gender"] = *cmd.Gender
	}
	if len(updates) == 0 {
		return nil, patient.ErrNothingToUpdate
	}

	res := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		if isDuplicateKeyError(res.Error, "phone") {
			return nil, patient.ErrPatientAlreadyExists
		}
		return nil, fmt.Errorf("updating patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, patient.ErrPatientNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *PatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&patient.Patient{}, "id = ?", id)
	if res.Error != nil {
		if isForeignKeyError(res.Error, "patient") {
			return patient.ErrPatientHasVisits
		}
		return fmt.Errorf("deleting patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}
