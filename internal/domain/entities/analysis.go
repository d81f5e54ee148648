package entities

import (
	"time"
)

// ConfidenceLevel is the coarse three-tier label attached to evidence sections
// and to the overall analysis.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// StepStatus represents the lifecycle state of one pipeline stage
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in-progress"
	StepCompleted  StepStatus = "completed"
	StepError      StepStatus = "error"
)

// AnalysisStep is a progress event emitted by the pipeline. Consumers key on
// ID to update a step in place; the stream itself is append-only.
type AnalysisStep struct {
	ID      int        `json:"id"`
	Title   string     `json:"title"`
	Status  StepStatus `json:"status"`
	Details string     `json:"details,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// ExtractedVaccine is one vaccine as identified by the extraction model
type ExtractedVaccine struct {
	Type         string `json:"type"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Dose         string `json:"dose,omitempty"`
}

// ExtractedOutcomes holds the outcome flags identified by the extraction model
type ExtractedOutcomes struct {
	Died            bool `json:"died"`
	LifeThreatening bool `json:"lifeThreatening"`
	Hospitalized    bool `json:"hospitalized"`
	Disabled        bool `json:"disabled"`
	EmergencyRoom   bool `json:"emergencyRoom"`
}

// ExtractedPatientInfo holds patient demographics identified by the extraction model
type ExtractedPatientInfo struct {
	Age *float64 `json:"age,omitempty"`
	Sex string   `json:"sex,omitempty"`
}

// ExtractedInfo is the normalized view of a report produced by stage 1. It is
// always fully populated: fields the model does not supply fall back to the
// values already present on the source report.
type ExtractedInfo struct {
	Vaccines    []ExtractedVaccine   `json:"vaccines"`
	Symptoms    []string             `json:"symptoms"`
	Outcomes    ExtractedOutcomes    `json:"outcomes"`
	OnsetDays   *int                 `json:"onsetDays,omitempty"`
	PatientInfo ExtractedPatientInfo `json:"patientInfo"`
}

// FDAReportExcerpt is one representative FDA record returned by the tool server
type FDAReportExcerpt struct {
	StudyType     string   `json:"studyType,omitempty"`
	SourceSection string   `json:"sourceSection,omitempty"`
	Symptoms      []string `json:"symptoms,omitempty"`
}

// FDASearchResult is the outcome of one searchValidatedSymptoms tool call,
// one per distinct vaccine in the extracted info.
type FDASearchResult struct {
	Vaccine      string             `json:"vaccine"`
	Symptoms     []string           `json:"symptoms"`
	FoundReports int                `json:"foundReports"`
	Reports      []FDAReportExcerpt `json:"reports,omitempty"`
}

// SimilarReport is a candidate report scored against the generated search terms.
// The score is the fraction of search terms the candidate matched, in [0, 1].
type SimilarReport struct {
	VaersID         string   `json:"vaersId"`
	SimilarityScore float64  `json:"similarityScore"`
	MatchedSymptoms []string `json:"matchedSymptoms"`
	Vaccines        []string `json:"vaccines"`
	Outcomes        []string `json:"outcomes"`
}

// AnalysisResult is the terminal aggregate of one analysis run
type AnalysisResult struct {
	Report            *Report           `json:"report"`
	ExtractedInfo     *ExtractedInfo    `json:"extractedInfo"`
	FDAResults        []FDASearchResult `json:"fdaResults"`
	SimilarReports    []SimilarReport   `json:"similarReports"`
	OverallConfidence ConfidenceLevel   `json:"overallConfidence"`
	Recommendations   []string          `json:"recommendations"`
}

// ReportLink points a structured-report section at a similar report
type ReportLink struct {
	VaersID    string  `json:"vaersId"`
	Similarity float64 `json:"similarity"`
}

// ReportSection is one named section of a structured report
type ReportSection struct {
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	Confidence *ConfidenceLevel `json:"confidence,omitempty"`
	Links      []ReportLink     `json:"links,omitempty"`
}

// ReportMetadata describes how and when a structured report was produced
type ReportMetadata struct {
	SearchedDatabases []string        `json:"searchedDatabases"`
	AnalysisDate      time.Time       `json:"analysisDate"`
	ConfidenceLevel   ConfidenceLevel `json:"confidenceLevel"`
}

// StructuredReport is the human-readable projection of an AnalysisResult
type StructuredReport struct {
	Summary    string          `json:"summary"`
	Disclaimer string          `json:"disclaimer"`
	Sections   []ReportSection `json:"sections"`
	Metadata   ReportMetadata  `json:"metadata"`
}
