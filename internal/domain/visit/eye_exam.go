package visit

import (
	"fmt"
)

// Eye identifies one eye in exam records: OD is the right eye, OS the left.
type Eye string

const (
	EyeRight Eye = "OD"
	EyeLeft  Eye = "OS"
)

func (e Eye) Other() Eye {
	if e == EyeRight {
		return EyeLeft
	}
	return EyeRight
}

func (e Eye) IsValid() bool {
	return e == EyeRight || e == EyeLeft
}

// PerEye holds one value for each eye.
type PerEye[T any] struct {
	OD T `json:"OD"`
	OS T `json:"OS"`
}

// Get returns a pointer to the value recorded for eye.
func (p *PerEye[T]) Get(eye Eye) *T {
	if eye == EyeLeft {
		return &p.OS
	}
	return &p.OD
}

// Lens is a spectacle prescription for one eye.
type Lens struct {
	Sphere   string `json:"sphere"`
	Cylinder string `json:"cylinder"`
	Axis     string `json:"axis"`
	ADD      string `json:"ADD"`
}

// Finding is a multi-select examination result with a free-text remark.
// Values keep the order in which they were selected.
type Finding struct {
	Values []string `json:"values"`
	Other  string   `json:"other"`
}

// Has reports whether option is selected.
func (f Finding) Has(option string) bool {
	for _, v := range f.Values {
		if v == option {
			return true
		}
	}
	return false
}

// Toggle selects option, or deselects it when already selected.
func (f *Finding) Toggle(option string) {
	for i, v := range f.Values {
		if v == option {
			f.Values = append(f.Values[:i:i], f.Values[i+1:]...)
			return
		}
	}
	f.Values = append(f.Values, option)
}

type FindingField string

const (
	FieldExternalAppearance FindingField = "externalAppearance"
	FieldOcularMotility     FindingField = "ocularMotility"
	FieldEyelid             FindingField = "eyelid"
	FieldConjunctiva        FindingField = "conjunctiva"
	FieldCornea             FindingField = "cornea"
	FieldSclera             FindingField = "sclera"
	FieldAnteriorChamber    FindingField = "anteriorChamber"
	FieldIris               FindingField = "iris"
	FieldPupil              FindingField = "pupil"
	FieldLens               FindingField = "lens"
	FieldPosteriorSegment   FindingField = "posteriorSegment"
)

// FindingFields lists the examination findings in form order.
func FindingFields() []FindingField {
	return []FindingField{
		FieldExternalAppearance, FieldOcularMotility, FieldEyelid, FieldConjunctiva,
		FieldCornea, FieldSclera, FieldAnteriorChamber, FieldIris, FieldPupil,
		FieldLens, FieldPosteriorSegment,
	}
}

// EyeExam is the structured ophthalmology examination attached to a visit.
// Sections left out of a request stay nil and are omitted on output.
type EyeExam struct {
	VisualAcuity    *PerEye[string] `json:"visualAcuity,omitempty"`
	OldGlasses      *PerEye[Lens]   `json:"oldGlasses,omitempty"`
	Refraction      *PerEye[Lens]   `json:"refraction,omitempty"`
	NewPrescription *PerEye[Lens]   `json:"newPrescription,omitempty"`
	IOP             *PerEye[Number] `json:"iop,omitempty"`

	ExternalAppearance *PerEye[Finding] `json:"externalAppearance,omitempty"`
	OcularMotility     *PerEye[Finding] `json:"ocularMotility,omitempty"`
	Eyelid             *PerEye[Finding] `json:"eyelid,omitempty"`
	Conjunctiva        *PerEye[Finding] `json:"conjunctiva,omitempty"`
	Cornea             *PerEye[Finding] `json:"cornea,omitempty"`
	Sclera             *PerEye[Finding] `json:"sclera,omitempty"`
	AnteriorChamber    *PerEye[Finding] `json:"anteriorChamber,omitempty"`
	Iris               *PerEye[Finding] `json:"iris,omitempty"`
	Pupil              *PerEye[Finding] `json:"pupil,omitempty"`
	Lens               *PerEye[Finding] `json:"lens,omitempty"`
	PosteriorSegment   *PerEye[Finding] `json:"posteriorSegment,omitempty"`

	Others *PerEye[string] `json:"others,omitempty"`
}

// Finding returns the section for field, allocating it on first use.
func (e *EyeExam) Finding(field FindingField) (*PerEye[Finding], error) {
	slot := e.findingSlot(field)
	if slot == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFinding, field)
	}
	if *slot == nil {
		*slot = &PerEye[Finding]{}
	}
	return *slot, nil
}

func (e *EyeExam) findingSlot(field FindingField) **PerEye[Finding] {
	switch field {
	case FieldExternalAppearance:
		return &e.ExternalAppearance
	case FieldOcularMotility:
		return &e.OcularMotility
	case FieldEyelid:
		return &e.Eyelid
	case FieldConjunctiva:
		return &e.Conjunctiva
	case FieldCornea:
		return &e.Cornea
	case FieldSclera:
		return &e.Sclera
	case FieldAnteriorChamber:
		return &e.AnteriorChamber
	case FieldIris:
		return &e.Iris
	case FieldPupil:
		return &e.Pupil
	case FieldLens:
		return &e.Lens
	case FieldPosteriorSegment:
		return &e.PosteriorSegment
	}
	return nil
}

// Problems validates the intra-ocular pressure readings. Other sections are
// free text and accepted as entered.
func (e *EyeExam) Problems(limits Limits) []string {
	if e == nil || e.IOP == nil {
		return nil
	}
	var out []string
	for _, eye := range []Eye{EyeRight, EyeLeft} {
		n := *e.IOP.Get(eye)
		v, ok, err := n.Float()
		if !ok {
			continue
		}
		label := "eyeExam.iop." + string(eye)
		if err != nil {
			out = append(out, label+": IOP must be a number")
			continue
		}
		if v < 0 || v > limits.IOPMax {
			out = append(out, fmt.Sprintf("%s: IOP must be between 0 and %g mmHg", label, limits.IOPMax))
		}
	}
	return out
}
