package visit

import (
	"fmt"
	"sort"
)

type Laterality string

const (
	EyeRightSide Laterality = "Right"
	EyeLeftSide  Laterality = "Left"
	EyeBoth      Laterality = "Both"
)

func (l Laterality) IsValid() bool {
	switch l {
	case EyeRightSide, EyeLeftSide, EyeBoth:
		return true
	}
	return false
}

// Duration is a free-form span entered as separate year, month and day
// counts. Any of the parts may be left empty.
type Duration struct {
	Years  Number `json:"years,omitempty"`
	Months Number `json:"months,omitempty"`
	Days   Number `json:"days,omitempty"`
}

func (d Duration) IsZero() bool {
	return d.Years.IsEmpty() && d.Months.IsEmpty() && d.Days.IsEmpty()
}

// Problems reports every out-of-range part, each prefixed with label.
func (d Duration) Problems(label string) []string {
	var out []string
	out = appendRange(out, label, "years", d.Years, 0, nil)
	out = appendRange(out, label, "months", d.Months, 0, ptr(12.0))
	out = appendRange(out, label, "days", d.Days, 0, ptr(31.0))
	return out
}

// HistoryEntry is one selected complaint or history item, with how long it
// has been present and which eye it concerns.
type HistoryEntry struct {
	Years  Number     `json:"years,omitempty"`
	Months Number     `json:"months,omitempty"`
	Days   Number     `json:"days,omitempty"`
	Value  string     `json:"value,omitempty"`
	Eye    Laterality `json:"eye,omitempty"`
}

func (e HistoryEntry) Duration() Duration {
	return Duration{Years: e.Years, Months: e.Months, Days: e.Days}
}

// History maps a condition label to its entry. Labels are free text; the
// vocabulary lists only seed the entry form.
type History map[string]HistoryEntry

// Normalize fills in the default laterality.
func (h History) Normalize() {
	for label, e := range h {
		if e.Eye == "" {
			e.Eye = EyeBoth
			h[label] = e
		}
	}
}

// Problems validates every entry. Messages are ordered by label so repeated
// submissions report identically.
func (h History) Problems(section string) []string {
	labels := make([]string, 0, len(h))
	for label := range h {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var out []string
	for _, label := range labels {
		e := h[label]
		prefix := fmt.Sprintf("%s[%q]", section, label)
		out = append(out, e.Duration().Problems(prefix)...)
		if e.Eye != "" && !e.Eye.IsValid() {
			out = append(out, fmt.Sprintf("%s: eye must be one of Right, Left, Both", prefix))
		}
	}
	return out
}

func appendRange(out []string, label, field string, n Number, min float64, max *float64) []string {
	v, ok, err := n.Float()
	if !ok {
		return out
	}
	if err != nil {
		return append(out, fmt.Sprintf("%s: %s must be a number", label, field))
	}
	switch {
	case max == nil && v < min:
		return append(out, fmt.Sprintf("%s: %s must be %g or greater", label, field, min))
	case max != nil && (v < min || v > *max):
		return append(out, fmt.Sprintf("%s: %s must be %g-%g", label, field, min, *max))
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
