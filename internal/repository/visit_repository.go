package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
	"github.com/bobos12/eyeclinic/internal/domain/visit"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Columns written by an update. The author and creation time are fixed.
var visitUpdateColumns = []string{
	"patient_id", "visit_date", "complaint", "medical_history", "surgical_history",
	"eye_exam", "recommendations", "follow_up", "follow_up_date",
}

type VisitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

// withRefs loads only the patient and author columns shown alongside a visit.
func withRefs(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Patient", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "name", "phone", "code")
		}).
		Preload("Doctor", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "name", "email", "role")
		})
}

func (r *VisitRepository) Create(ctx context.Context, v *visit.Visit) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error
	if err != nil {
		return translateVisitWriteError("creating visit", err)
	}
	return nil
}

func (r *VisitRepository) GetByID(ctx context.Context, id uuid.UUID) (*visit.Visit, error) {
	var v visit.Visit
	err := withRefs(r.db.WithContext(ctx)).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, visit.ErrVisitNotFound
		}
		return nil, fmt.Errorf("getting visit: %w", err)
	}
	return &v, nil
}

func (r *VisitRepository) List(ctx context.Context, q *visit.ListVisitsQuery) ([]*visit.Visit, error) {
	db := withRefs(r.db.WithContext(ctx)).Where("deleted_at IS NULL")
	if q != nil && q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}

	var visits []*visit.Visit
	if err := db.Order("visit_date DESC, created_at DESC").Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}
	return visits, nil
}

func (r *VisitRepository) Update(ctx context.Context, v *visit.Visit) error {
	res := r.db.WithContext(ctx).
		Model(&visit.Visit{ID: v.ID}).
		Where("deleted_at IS NULL").
		Omit(clause.Associations).
		Select(visitUpdateColumns).
		Updates(v)
	if res.Error != nil {
		return translateVisitWriteError("updating visit", res.Error)
	}
	if res.RowsAffected == 0 {
		return visit.ErrVisitNotFound
	}
	return nil
}

func (r *VisitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&visit.Visit{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting visit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return visit.ErrVisitNotFound
	}
	return nil
}

// translateVisitWriteError maps a dangling reference to the missing entity.
func translateVisitWriteError(op string, err error) error {
	switch {
	case isForeignKeyError(err, "patient"):
		return patient.ErrPatientNotFound
	case isForeignKeyError(err, "doctor"):
		return domain.ErrUserNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
