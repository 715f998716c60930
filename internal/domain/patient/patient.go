package patient

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

const (
	CodePrefix = "P"
	MinAge     = 0
	MaxAge     = 150
)

// FormatCode renders the clinic code for the n-th registered patient.
func FormatCode(seq int64) string {
	return fmt.Sprintf("%s%06d", CodePrefix, seq)
}

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"deletedAt,omitempty"` // never set by the documented flows

	// Assigned once at creation, never rewritten.
	Code string `gorm:"column:code;type:varchar(16);uniqueIndex;not null" json:"code"`

	Name   string `gorm:"column:name;type:varchar(150);not null" json:"name"`
	Phone  string `gorm:"column:phone;type:varchar(30);not null" json:"phone"`
	Age    int    `gorm:"column:age;not null" json:"age"`
	Gender Gender `gorm:"column:gender;type:varchar(10);not null;default:'other'" json:"gender"`
}

func (Patient) TableName() string {
	return "clinic.patients"
}

func (p *Patient) IsActive() bool {
	return p.DeletedAt == nil
}

// Summary is the subset of a patient joined into visit responses and
// returned on phone conflicts.
type Summary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
	Code  string    `json:"code"`
}

func (p *Patient) Summary() Summary {
	return Summary{ID: p.ID, Name: p.Name, Phone: p.Phone, Code: p.Code}
}

type CreatePatientCommand struct {
	Name   string
	Phone  string
	Age    *int
	Gender Gender
}

// Normalize trims free text and applies the default gender.
func (c *CreatePatientCommand) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Gender = Gender(strings.ToLower(strings.TrimSpace(string(c.Gender))))
	if c.Gender == "" {
		c.Gender = GenderOther
	}
}

// UpdatePatientCommand carries the fields present in an update request.
// There is no code field: a clinic code never changes.
type UpdatePatientCommand struct {
	Name   *string
	Phone  *string
	Age    *int
	Gender *Gender
}

func (c *UpdatePatientCommand) IsEmpty() bool {
	return c.Name == nil && c.Phone == nil && c.Age == nil && c.Gender == nil
}

func (c *UpdatePatientCommand) Normalize() {
	if c.Name != nil {
		v := strings.TrimSpace(*c.Name)
		c.Name = &v
	}
	if c.Phone != nil {
		v := strings.TrimSpace(*c.Phone)
		c.Phone = &v
	}
	if c.Gender != nil {
		v := Gender(strings.ToLower(strings.TrimSpace(string(*c.Gender))))
		c.Gender = &v
	}
}
