package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
)

// DefaultIOPMax is the highest intra-ocular pressure accepted when the clinic
// does not configure its own ceiling.
const DefaultIOPMax = 80

// Limits carries the configurable clinical bounds used by validation.
type Limits struct {
	IOPMax float64
}

func DefaultLimits() Limits {
	return Limits{IOPMax: DefaultIOPMax}
}

// Visit is one clinical encounter. The author (DoctorID) is the staff member
// who recorded it and never changes after creation.
type Visit struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index:idx_visits_patient_date,priority:1"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index:idx_visits_doctor_date,priority:1"`
	VisitDate time.Time `gorm:"column:visit_date;not null;index:idx_visits_patient_date,priority:2,sort:desc;index:idx_visits_doctor_date,priority:2,sort:desc"`

	Complaint       History    `gorm:"column:complaint;type:jsonb;serializer:json"`
	MedicalHistory  History    `gorm:"column:medical_history;type:jsonb;serializer:json"`
	SurgicalHistory History    `gorm:"column:surgical_history;type:jsonb;serializer:json"`
	EyeExam         *EyeExam   `gorm:"column:eye_exam;type:jsonb;serializer:json"`
	Recommendations string     `gorm:"column:recommendations;type:text"`
	FollowUp        *Duration  `gorm:"column:follow_up;type:jsonb;serializer:json"`
	FollowUpDate    *time.Time `gorm:"column:follow_up_date"`

	Patient *patient.Patient `gorm:"foreignKey:PatientID;constraint:OnDelete:RESTRICT"`
	Doctor  *domain.User     `gorm:"foreignKey:DoctorID;constraint:OnDelete:RESTRICT"`
}

func (Visit) TableName() string {
	return "clinic.visits"
}

// Problems validates the clinical content of the visit. An empty result
// means the visit may be stored.
func (v *Visit) Problems(limits Limits) []string {
	var out []string
	if v.PatientID == uuid.Nil {
		out = append(out, "patientId: "+ErrPatientIDRequired.Error())
	}
	out = append(out, v.Complaint.Problems("complaint")...)
	out = append(out, v.MedicalHistory.Problems("medicalHistory")...)
	out = append(out, v.SurgicalHistory.Problems("surgicalHistory")...)
	if v.FollowUp != nil {
		out = append(out, v.FollowUp.Problems("followUp")...)
	}
	out = append(out, v.EyeExam.Problems(limits)...)
	return out
}

// View is the read shape of a visit: the patient and author references are
// expanded into summaries under their id keys.
type View struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       any        `json:"patientId"`
	DoctorID        any        `json:"doctorId"`
	VisitDate       time.Time  `json:"visitDate"`
	Complaint       History    `json:"complaint"`
	MedicalHistory  History    `json:"medicalHistory"`
	SurgicalHistory History    `json:"surgicalHistory"`
	EyeExam         *EyeExam   `json:"eyeExam,omitempty"`
	Recommendations string     `json:"recommendations"`
	FollowUp        *Duration  `json:"followUp,omitempty"`
	FollowUpDate    *time.Time `json:"followUpDate"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// NewView renders v. A reference whose row is missing is rendered as the
// bare id.
func NewView(v *Visit) *View {
	view := &View{
		ID:              v.ID,
		PatientID:       v.PatientID,
		DoctorID:        v.DoctorID,
		VisitDate:       v.VisitDate,
		Complaint:       nonNil(v.Complaint),
		MedicalHistory:  nonNil(v.MedicalHistory),
		SurgicalHistory: nonNil(v.SurgicalHistory),
		EyeExam:         v.EyeExam,
		Recommendations: v.Recommendations,
		FollowUp:        v.FollowUp,
		FollowUpDate:    v.FollowUpDate,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
	if v.Patient != nil {
		view.PatientID = v.Patient.Summary()
	}
	if v.Doctor != nil {
		view.DoctorID = v.Doctor.Summary()
	}
	return view
}

func NewViews(visits []*Visit) []*View {
	out := make([]*View, 0, len(visits))
	for _, v := range visits {
		out = append(out, NewView(v))
	}
	return out
}

func nonNil(h History) History {
	if h == nil {
		return History{}
	}
	return h
}

type CreateVisitCommand struct {
	PatientID       uuid.UUID
	DoctorID        uuid.UUID
	VisitDate       *time.Time
	Complaint       History
	MedicalHistory  History
	SurgicalHistory History
	EyeExam         *EyeExam
	Recommendations string
	FollowUp        *Duration
	FollowUpDate    *time.Time
}

// Build turns the command into a visit dated now unless a date was given.
func (c *CreateVisitCommand) Build(now time.Time) *Visit {
	v := &Visit{
		PatientID:       c.PatientID,
		DoctorID:        c.DoctorID,
		VisitDate:       now,
		Complaint:       c.Complaint,
		MedicalHistory:  c.MedicalHistory,
		SurgicalHistory: c.SurgicalHistory,
		EyeExam:         c.EyeExam,
		Recommendations: c.Recommendations,
		FollowUp:        c.FollowUp,
		FollowUpDate:    c.FollowUpDate,
	}
	if c.VisitDate != nil {
		v.VisitDate = *c.VisitDate
	}
	v.normalize()
	return v
}

// UpdateVisitCommand replaces whole top-level fields; nil fields are kept.
// The author is not part of it.
type UpdateVisitCommand struct {
	PatientID         *uuid.UUID
	VisitDate         *time.Time
	Complaint         *History
	MedicalHistory    *History
	SurgicalHistory   *History
	EyeExam           *EyeExam
	Recommendations   *string
	FollowUp          *Duration
	FollowUpDate      *time.Time
	ClearFollowUpDate bool
}

func (c *UpdateVisitCommand) IsEmpty() bool {
	return c.PatientID == nil && c.VisitDate == nil && c.Complaint == nil &&
		c.MedicalHistory == nil && c.SurgicalHistory == nil && c.EyeExam == nil &&
		c.Recommendations == nil && c.FollowUp == nil && c.FollowUpDate == nil && !c.ClearFollowUpDate
}

// Apply merges the command into v.
func (c *UpdateVisitCommand) Apply(v *Visit) {
	if c.PatientID != nil {
		v.PatientID = *c.PatientID
		v.Patient = nil
	}
	if c.VisitDate != nil {
		v.VisitDate = *c.VisitDate
	}
	if c.Complaint != nil {
		v.Complaint = *c.Complaint
	}
	if c.MedicalHistory != nil {
		v.MedicalHistory = *c.MedicalHistory
	}
	if c.SurgicalHistory != nil {
		v.SurgicalHistory = *c.SurgicalHistory
	}
	if c.EyeExam != nil {
		v.EyeExam = c.EyeExam
	}
	if c.Recommendations != nil {
		v.Recommendations = *c.Recommendations
	}
	if c.FollowUp != nil {
		v.FollowUp = c.FollowUp
	}
	if c.ClearFollowUpDate {
		v.FollowUpDate = nil
	} else if c.FollowUpDate != nil {
		v.FollowUpDate = c.FollowUpDate
	}
	v.normalize()
}

func (v *Visit) normalize() {
	v.Complaint.Normalize()
	v.MedicalHistory.Normalize()
	v.SurgicalHistory.Normalize()
}

type ListVisitsQuery struct {
	PatientID *uuid.UUID
}
