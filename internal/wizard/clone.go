package wizard

import "github.com/bobos12/eyeclinic/internal/domain/visit"

// clone returns a copy of f that shares no mutable memory with it.
func (f Form) clone() Form {
	out := f
	out.Complaint = cloneHistory(f.Complaint)
	out.MedicalHistory = cloneHistory(f.MedicalHistory)
	out.SurgicalHistory = cloneHistory(f.SurgicalHistory)
	out.EyeExam = cloneExam(f.EyeExam)
	out.FollowUp = clonePtr(f.FollowUp)
	out.FollowUpDate = clonePtr(f.FollowUpDate)
	return out
}

func cloneHistory(h visit.History) visit.History {
	out := make(visit.History, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func cloneExam(e visit.EyeExam) visit.EyeExam {
	out := visit.EyeExam{
		VisualAcuity:    clonePtr(e.VisualAcuity),
		OldGlasses:      clonePtr(e.OldGlasses),
		Refraction:      clonePtr(e.Refraction),
		NewPrescription: clonePtr(e.NewPrescription),
		IOP:             clonePtr(e.IOP),
		Others:          clonePtr(e.Others),
	}
	for _, field := range visit.FindingFields() {
		src, _ := e.Finding(field)
		if isEmptyFinding(src) {
			continue
		}
		dst, _ := out.Finding(field)
		*dst = visit.PerEye[visit.Finding]{OD: cloneFinding(src.OD), OS: cloneFinding(src.OS)}
	}
	return out
}

// isEmptyFinding is true for a section that was never touched.
func isEmptyFinding(p *visit.PerEye[visit.Finding]) bool {
	return p == nil || (len(p.OD.Values) == 0 && p.OD.Other == "" && len(p.OS.Values) == 0 && p.OS.Other == "")
}

func cloneFinding(f visit.Finding) visit.Finding {
	return visit.Finding{Values: append([]string(nil), f.Values...), Other: f.Other}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
