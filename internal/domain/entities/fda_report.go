package entities

import (
	"time"
)

// FDAReport is a reference record extracted from FDA trial reports and labels,
// searched by the tool server to corroborate reported symptoms.
type FDAReport struct {
	ID            string    `json:"id" db:"id"`
	Filename      string    `json:"filename" db:"filename"`
	VaccineName   string    `json:"vaccineName" db:"vaccine_name"`
	StudyType     string    `json:"studyType,omitempty" db:"study_type"`
	SourceSection string    `json:"sourceSection,omitempty" db:"source_section"`
	Symptoms      []string  `json:"symptoms" db:"-"`
	TrialText     string    `json:"trialText,omitempty" db:"trial_text"`
	Success       bool      `json:"success" db:"success"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
