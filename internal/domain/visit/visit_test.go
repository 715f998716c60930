package visit

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bobos12/eyeclinic/internal/domain"
	"github.com/bobos12/eyeclinic/internal/domain/patient"
)

func TestNumber_UnmarshalAcceptsFormInput(t *testing.T) {
	tests := []struct {
		in   string
		want Number
	}{
		{`2`, "2"},
		{`"3"`, "3"},
		{`" 4 "`, "4"},
		{`""`, ""},
		{`null`, ""},
		{`"abc"`, "abc"},
		{`1.5`, "1.5"},
	}
	for _, tt := range tests {
		var n Number
		if err := json.Unmarshal([]byte(tt.in), &n); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if n != tt.want {
			t.Errorf("unmarshal %s: got %q, want %q", tt.in, n, tt.want)
		}
	}

	var n Number
	if err := json.Unmarshal([]byte(`{"x":1}`), &n); err == nil {
		t.Error("expected an object to be rejected")
	}
}

func TestNumber_Marshal(t *testing.T) {
	tests := []struct {
		in   Number
		want string
	}{
		{"2", `2`},
		{"1.5", `1.5`},
		{"", `""`},
		{"abc", `"abc"`},
		{"+5", `"+5"`},
	}
	for _, tt := range tests {
		b, err := json.Marshal(tt.in)
		if err != nil {
			t.Fatalf("marshal %q: %v", tt.in, err)
		}
		if string(b) != tt.want {
			t.Errorf("marshal %q: got %s, want %s", tt.in, b, tt.want)
		}
	}
}

func TestHistory_Problems(t *testing.T) {
	h := History{
		"Redness":  {Years: "1", Months: "13", Days: "2"},
		"Floaters": {Days: "32"},
		"Squint":   {Years: "-1"},
		"DM":       {Years: "x"},
		"Flashes":  {Years: "2", Months: "12", Days: "31", Eye: EyeLeftSide},
		"Diplopia": {Eye: "Up"},
	}

	got := strings.Join(h.Problems("complaint"), "\n")
	for _, want := range []string{
		`complaint["Redness"]: months must be 0-12`,
		`complaint["Floaters"]: days must be 0-31`,
		`complaint["Squint"]: years must be 0 or greater`,
		`complaint["DM"]: years must be a number`,
		`complaint["Diplopia"]: eye must be one of Right, Left, Both`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Flashes") {
		t.Errorf("valid entry reported:\n%s", got)
	}
}

func TestHistory_NormalizeDefaultsEye(t *testing.T) {
	h := History{"Redness": {Years: "1"}, "DM": {Eye: EyeRightSide}}
	h.Normalize()
	if h["Redness"].Eye != EyeBoth {
		t.Errorf("expected default eye Both, got %q", h["Redness"].Eye)
	}
	if h["DM"].Eye != EyeRightSide {
		t.Errorf("explicit eye overwritten: %q", h["DM"].Eye)
	}
}

func TestEyeExam_IOPBounds(t *testing.T) {
	limits := Limits{IOPMax: 80}

	ok := &EyeExam{IOP: &PerEye[Number]{OD: "0", OS: "80"}}
	if p := ok.Problems(limits); len(p) != 0 {
		t.Errorf("expected boundary values to pass, got %v", p)
	}

	empty := &EyeExam{IOP: &PerEye[Number]{}}
	if p := empty.Problems(limits); len(p) != 0 {
		t.Errorf("empty readings should pass, got %v", p)
	}

	bad := &EyeExam{IOP: &PerEye[Number]{OD: "-1", OS: "81"}}
	p := bad.Problems(limits)
	if len(p) != 2 {
		t.Fatalf("expected 2 problems, got %v", p)
	}
	if !strings.HasPrefix(p[0], "eyeExam.iop.OD") || !strings.HasPrefix(p[1], "eyeExam.iop.OS") {
		t.Errorf("problems not labelled per eye: %v", p)
	}

	var nilExam *EyeExam
	if p := nilExam.Problems(limits); p != nil {
		t.Errorf("nil exam should have no problems, got %v", p)
	}
}

func TestEyeExam_RoundTripKeepsStructure(t *testing.T) {
	in := `{"visualAcuity":{"OD":"0.5","OS":"CF"},` +
		`"newPrescription":{"OD":{"sphere":"-1.25","cylinder":"-0.50","axis":"90","ADD":"+1.00"},"OS":{"sphere":"","cylinder":"","axis":"","ADD":""}},` +
		`"iop":{"OD":14,"OS":16},` +
		`"cornea":{"OD":{"values":["Clear","Edema"],"other":"faint haze"},"OS":{"values":[],"other":""}}}`

	var exam EyeExam
	if err := json.Unmarshal([]byte(in), &exam); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(&exam)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != in {
		t.Errorf("round trip changed payload:\n got %s\nwant %s", out, in)
	}
}

func TestEyeExam_FindingAllocates(t *testing.T) {
	var exam EyeExam
	f, err := exam.Finding(FieldLens)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.Get(EyeLeft).Toggle("PCO")
	if exam.Lens == nil || !exam.Lens.OS.Has("PCO") {
		t.Fatal("toggle did not reach the exam")
	}
	f.Get(EyeLeft).Toggle("PCO")
	if exam.Lens.OS.Has("PCO") {
		t.Error("second toggle should deselect")
	}

	if _, err := exam.Finding("retina"); err == nil {
		t.Error("expected unknown finding error")
	}
}

func TestVisit_ProblemsCoversAllSections(t *testing.T) {
	v := &Visit{
		Complaint:       History{"Redness": {Months: "13"}},
		SurgicalHistory: History{"Laser": {Days: "40"}},
		FollowUp:        &Duration{Months: "15"},
		EyeExam:         &EyeExam{IOP: &PerEye[Number]{OD: "100"}},
	}
	got := strings.Join(v.Problems(DefaultLimits()), "\n")
	for _, want := range []string{"patientId", "complaint[", "surgicalHistory[", "followUp: months", "eyeExam.iop.OD"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestCreateVisitCommand_BuildDefaultsDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cmd := &CreateVisitCommand{PatientID: uuid.New(), Complaint: History{"Redness": {Years: "1"}}}

	v := cmd.Build(now)
	if !v.VisitDate.Equal(now) {
		t.Errorf("expected visit date %s, got %s", now, v.VisitDate)
	}
	if v.Complaint["Redness"].Eye != EyeBoth {
		t.Error("expected complaint laterality default")
	}

	given := now.Add(-24 * time.Hour)
	cmd.VisitDate = &given
	if v := cmd.Build(now); !v.VisitDate.Equal(given) {
		t.Errorf("expected given date, got %s", v.VisitDate)
	}
}

func TestUpdateVisitCommand_ApplyReplacesTopLevelFields(t *testing.T) {
	doctor := uuid.New()
	v := &Visit{
		PatientID:       uuid.New(),
		DoctorID:        doctor,
		Complaint:       History{"Redness": {Years: "1"}, "Floaters": {Days: "2"}},
		Recommendations: "drops",
		Patient:         &patient.Patient{Name: "old"},
	}
	newPatient := uuid.New()
	complaint := History{"Squint": {}}
	cmd := &UpdateVisitCommand{PatientID: &newPatient, Complaint: &complaint}
	cmd.Apply(v)

	if v.PatientID != newPatient || v.Patient != nil {
		t.Error("patient reference not replaced")
	}
	if v.DoctorID != doctor {
		t.Error("author must not change")
	}
	if len(v.Complaint) != 1 || v.Complaint["Squint"].Eye != EyeBoth {
		t.Errorf("complaint not replaced wholesale: %v", v.Complaint)
	}
	if v.Recommendations != "drops" {
		t.Error("untouched field changed")
	}

	if !(&UpdateVisitCommand{}).IsEmpty() {
		t.Error("empty command should report empty")
	}
}

func TestNewView_ExpandsReferences(t *testing.T) {
	p := &patient.Patient{ID: uuid.New(), Name: "Sara", Phone: "0100", Code: "P000001"}
	u := &domain.User{ID: uuid.New(), Name: "Dr. Ali", Email: "ali@clinic.test", Role: domain.RoleDoctor}
	v := &Visit{ID: uuid.New(), PatientID: p.ID, DoctorID: u.ID, Patient: p, Doctor: u}

	b, err := json.Marshal(NewView(v))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	_ = json.Unmarshal(b, &out)

	pid, ok := out["patientId"].(map[string]any)
	if !ok || pid["code"] != "P000001" || pid["name"] != "Sara" {
		t.Errorf("patient not expanded: %v", out["patientId"])
	}
	did, ok := out["doctorId"].(map[string]any)
	if !ok || did["email"] != "ali@clinic.test" || did["role"] != "doctor" {
		t.Errorf("doctor not expanded: %v", out["doctorId"])
	}
	if _, leaked := did["passwordHash"]; leaked {
		t.Error("doctor summary leaks password hash")
	}

	v.Patient = nil
	if id, ok := NewView(v).PatientID.(uuid.UUID); !ok || id != p.ID {
		t.Error("missing patient should render as bare id")
	}
}

func TestVocabulary(t *testing.T) {
	sphere := SphereOptions()
	if sphere[0] != "-30.00" || sphere[len(sphere)-1] != "+15.00" || len(sphere) != 181 {
		t.Errorf("unexpected sphere range: %s..%s (%d)", sphere[0], sphere[len(sphere)-1], len(sphere))
	}
	cyl := CylinderOptions()
	if cyl[0] != "+6.00" || cyl[24] != "0.00" || cyl[len(cyl)-1] != "-6.00" {
		t.Errorf("unexpected cylinder list: %v", cyl)
	}
	if axis := AxisOptions(); len(axis) != 37 || axis[36] != "180" {
		t.Errorf("unexpected axis list: %v", axis)
	}
	if add := AddOptions(); add[0] != "+0.50" || add[len(add)-1] != "+4.00" {
		t.Errorf("unexpected ADD list: %v", add)
	}
	for _, f := range FindingFields() {
		if len(FindingOptions(f)) == 0 {
			t.Errorf("no options for %s", f)
		}
	}
}
