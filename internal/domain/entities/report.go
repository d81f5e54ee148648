package entities

import (
	"time"
)

// ReportStatus represents the validation state of a VAERS report
type ReportStatus string

const (
	ReportStatusNew               ReportStatus = "new"
	ReportStatusValidated         ReportStatus = "validated"
	ReportStatusPendingValidation ReportStatus = "pending_validation"
	ReportStatusRejected          ReportStatus = "rejected"
)

// Report represents a single submitted vaccine-adverse-event record
type Report struct {
	ID              string       `json:"id" db:"id"`
	VaersID         string       `json:"vaersId" db:"vaers_id"`
	RecvDate        *time.Time   `json:"recvDate,omitempty" db:"recv_date"`
	State           string       `json:"state,omitempty" db:"state"`
	AgeYrs          *float64     `json:"ageYrs,omitempty" db:"age_yrs"`
	Sex             string       `json:"sex,omitempty" db:"sex"`
	SymptomText     string       `json:"symptomText" db:"symptom_text"`
	Died            bool         `json:"died" db:"died"`
	LifeThreatening bool         `json:"lThreat" db:"l_threat"`
	ERVisit         bool         `json:"erVisit" db:"er_visit"`
	Hospitalized    bool         `json:"hospital" db:"hospital"`
	Disabled        bool         `json:"disable" db:"disable"`
	Recovered       *bool        `json:"recovd,omitempty" db:"recovd"`
	VaxDate         *time.Time   `json:"vaxDate,omitempty" db:"vax_date"`
	OnsetDate       *time.Time   `json:"onsetDate,omitempty" db:"onset_date"`
	NumDays         *int         `json:"numDays,omitempty" db:"num_days"`
	Status          ReportStatus `json:"status" db:"status"`
	Vaccines        []Vaccine    `json:"vaccines,omitempty" db:"-"`
	Symptoms        []Symptom    `json:"symptoms,omitempty" db:"-"`
	CreatedAt       time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time    `json:"updatedAt" db:"updated_at"`
}

// Vaccine represents one administered vaccine on a report
type Vaccine struct {
	ID            string `json:"id,omitempty" db:"id"`
	ReportID      string `json:"-" db:"report_id"`
	VaxType       string `json:"vaxType" db:"vax_type"`
	Manufacturer  string `json:"vaxManufacturer,omitempty" db:"vax_manufacturer"`
	VaxName       string `json:"vaxName,omitempty" db:"vax_name"`
	VaxDoseSeries string `json:"vaxDoseSeries,omitempty" db:"vax_dose_series"`
	VaxRoute      string `json:"vaxRoute,omitempty" db:"vax_route"`
	VaxSite       string `json:"vaxSite,omitempty" db:"vax_site"`
}

// Symptom represents one reported symptom on a report
type Symptom struct {
	ID               string `json:"id,omitempty" db:"id"`
	ReportID         string `json:"-" db:"report_id"`
	SymptomName      string `json:"symptomName" db:"symptom_name"`
	Severity         string `json:"severity,omitempty" db:"severity"`
	ValidationStatus string `json:"validationStatus,omitempty" db:"validation_status"`
}

// OutcomeLabels returns human-readable labels for the severe outcome flags set
// on the report, in a fixed order.
func (r *Report) OutcomeLabels() []string {
	labels := []string{}
	if r.Died {
		labels = append(labels, "Death")
	}
	if r.LifeThreatening {
		labels = append(labels, "Life Threatening")
	}
	if r.Hospitalized {
		labels = append(labels, "Hospitalized")
	}
	if r.Disabled {
		labels = append(labels, "Disabled")
	}
	if r.ERVisit {
		labels = append(labels, "ER Visit")
	}
	return labels
}

// VaccineTypes returns the non-empty vaccine type names on the report
func (r *Report) VaccineTypes() []string {
	types := []string{}
	for _, v := range r.Vaccines {
		if v.VaxType != "" {
			types = append(types, v.VaxType)
		}
	}
	return types
}
