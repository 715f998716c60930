package visit

import (
	"fmt"
	"strconv"
)

// Option lists offered by the visit entry form. Stored visits are not
// restricted to them.

var (
	ComplaintOptions = []string{
		"Decreased vision near", "Decreased vision far", "Seeking glasses", "Redness",
		"Discomfort", "Floaters", "Flashes", "Squint", "Diplopia", "MASS", "Epiphora", "Others",
	}

	MedicalHistoryOptions = []string{
		"DM", "HTN", "Hypotension", "Neurological", "Thyroid disease", "Allergy",
		"Prostate", "Cardiac", "Liver", "Renal", "Others",
	}

	SurgicalHistoryOptions = []string{
		"Cataract", "Refractive", "PPV", "IVI", "Laser", "Squint", "Plasty", "Others",
	}

	VisualAcuityOptions = []string{
		"0.1", "0.2", "0.3", "0.4", "0.5", "0.6", "0.7", "0.8", "0.9", "1.0",
		"1M", "2M", "3M", "4M", "5M", "CF", "HM", "PL", "NPL", "No Target",
	}
)

var findingOptions = map[FindingField][]string{
	FieldExternalAppearance: {
		"Normal", "Proptosis", "Enophthalmos", "Periorbital edema", "Periorbital ecchymosis",
		"Ptosis", "Eyelid retraction", "Mass / Lesion", "Congenital malformation",
		"Inflammation / Redness", "Wound", "Others",
	},
	FieldOcularMotility: {
		"Normal", "Limited up", "Limited down", "Limited Nasal", "Limited temporal",
	},
	FieldEyelid: {
		"Normal", "Ptosis", "Retraction", "Mass", "Anterior blephritis", "Posterior blephritis", "Others",
	},
	FieldConjunctiva: {
		"injected", "Pterygium", "phlyctenule", "Follicles", "Papillae", "Dryness",
		"Mucoid discharge", "Purulent discharge", "Others",
	},
	FieldCornea: {
		"Clear", "Opacified", "Edema", "Hypothesia", "Ulcer", "PED", "Keratoconus", "FB",
		"Vascularization", "Abnormal sensation", "Others",
	},
	FieldSclera: {
		"Normal", "Icteric (yellow)", "Bluish", "Scleral thinning",
		"Inflammation (scleritis / episcleritis)", "Nodules", "Pinguecula", "Staphyloma", "Others",
	},
	FieldAnteriorChamber: {
		"Normal", "Shallow", "Deep", "Cells", "Flare", "Hypopyon", "Hyphema", "Others",
	},
	FieldIris: {
		"Normal", "Heterochromia", "Atrophy", "Coloboma", "Neovascularization",
		"Inflammation (iritis / uveitis)", "Trauma", "PI", "Anterior synechiae", "Others",
	},
	FieldPupil: {
		"RRR", "RAPD", "Others",
	},
	FieldLens: {
		"Clear", "Cataract", "Pseudophakia", "aphakia", "anterior capsular opacity", "PCO",
		"subluxated", "iol decentered", "hypermature cataract", "intumescent cataract",
		"microshopric cataract", "Others",
	},
	FieldPosteriorSegment: {
		"Normal", "Optic disc edema / Papilledema", "Optic disc pallor", "Glaucomatous cupping",
		"Retinal hemorrhage", "Cotton wool spots", "Exudates", "Macular edema",
		"Retinal detachment / Tear", "NPDR", "NVD", "NVE", "Hypertensive retinopathy", "ARMD",
		"CNV", "Choroidal lesions", "Vitreous hemorrhage", "Others",
	},
}

// FindingOptions returns the selectable values for an examination finding.
func FindingOptions(field FindingField) []string {
	return append([]string(nil), findingOptions[field]...)
}

// SphereOptions runs from -30.00 to +15.00 in quarter dioptres.
func SphereOptions() []string {
	return dioptreSteps(-30, 15, 0.25)
}

// CylinderOptions runs from +6.00 down to -6.00 in quarter dioptres.
func CylinderOptions() []string {
	opts := dioptreSteps(-6, 6, 0.25)
	for i, j := 0, len(opts)-1; i < j; i, j = i+1, j-1 {
		opts[i], opts[j] = opts[j], opts[i]
	}
	return opts
}

// AxisOptions runs from 0 to 180 degrees in steps of 5.
func AxisOptions() []string {
	opts := make([]string, 0, 37)
	for deg := 0; deg <= 180; deg += 5 {
		opts = append(opts, strconv.Itoa(deg))
	}
	return opts
}

// AddOptions runs from +0.50 to +4.00 in quarter dioptres.
func AddOptions() []string {
	return dioptreSteps(0.5, 4, 0.25)
}

func dioptreSteps(from, to, step float64) []string {
	n := int((to-from)/step) + 1
	opts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v := from + float64(i)*step
		switch {
		case v > 0:
			opts = append(opts, fmt.Sprintf("+%.2f", v))
		case v == 0:
			opts = append(opts, "0.00")
		default:
			opts = append(opts, fmt.Sprintf("%.2f", v))
		}
	}
	return opts
}
