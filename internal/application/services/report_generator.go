package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
)

// Disclaimer attached to every structured report
const reportDisclaimer = "VAERS reports are unverified and may contain errors. This analysis is for informational purposes only and should not replace professional medical advice. Always consult with healthcare providers for medical decisions."

var searchedDatabases = []string{"FDA Labels", "FDA Trials", "VAERS Historical"}

// ReportGenerator projects an AnalysisResult into a human-readable
// StructuredReport. It performs no I/O; the clock is injected so output is
// reproducible in tests.
type ReportGenerator struct {
	now func() time.Time
}

// NewReportGenerator creates a new report generator
func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{now: time.Now}
}

// NewReportGeneratorWithClock creates a generator with a fixed clock
func NewReportGeneratorWithClock(now func() time.Time) *ReportGenerator {
	return &ReportGenerator{now: now}
}

// Generate builds the structured report. Identical input (modulo the clock)
// yields identical output.
func (g *ReportGenerator) Generate(analysis *entities.AnalysisResult) *entities.StructuredReport {
	fdaConfidence := calculateFDAConfidence(analysis.FDAResults)

	links := make([]entities.ReportLink, 0, len(analysis.SimilarReports))
	for _, r := range analysis.SimilarReports {
		links = append(links, entities.ReportLink{
			VaersID:    r.VaersID,
			Similarity: r.SimilarityScore,
		})
	}

	return &entities.StructuredReport{
		Summary:    g.generateSummary(analysis),
		Disclaimer: reportDisclaimer,
		Sections: []entities.ReportSection{
			{
				Title:      "FDA Validated Information",
				Content:    formatFDAFindings(analysis.FDAResults),
				Confidence: &fdaConfidence,
			},
			{
				Title:   "Similar VAERS Reports",
				Content: formatSimilarReports(analysis.SimilarReports),
				Links:   links,
			},
			{
				Title:   "Analysis Summary",
				Content: generateAnalysisSummary(analysis),
			},
		},
		Metadata: entities.ReportMetadata{
			SearchedDatabases: searchedDatabases,
			AnalysisDate:      g.now(),
			ConfidenceLevel:   analysis.OverallConfidence,
		},
	}
}

func (g *ReportGenerator) generateSummary(analysis *entities.AnalysisResult) string {
	info := analysis.ExtractedInfo

	totalFDAReports := 0
	for _, r := range analysis.FDAResults {
		totalFDAReports += r.FoundReports
	}

	age := "unknown age"
	if info.PatientInfo.Age != nil {
		age = fmt.Sprintf("%g", *info.PatientInfo.Age)
	}
	sex := info.PatientInfo.Sex
	if sex == "" {
		sex = "patient"
	}

	types := make([]string, 0, len(info.Vaccines))
	for _, v := range info.Vaccines {
		types = append(types, v.Type)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analysis of VAERS report for %s year old %s ", age, sex)
	fmt.Fprintf(&b, "who received %s vaccine(s). ", strings.Join(types, ", "))

	if info.OnsetDays != nil && *info.OnsetDays > 0 {
		fmt.Fprintf(&b, "Symptoms appeared %d days after vaccination. ", *info.OnsetDays)
	}

	fmt.Fprintf(&b, "Found %d FDA-validated reports and %d similar VAERS cases. ", totalFDAReports, len(analysis.SimilarReports))

	severeOutcomes := []string{}
	if info.Outcomes.Died {
		severeOutcomes = append(severeOutcomes, "death")
	}
	if info.Outcomes.LifeThreatening {
		severeOutcomes = append(severeOutcomes, "life-threatening event")
	}
	if info.Outcomes.Hospitalized {
		severeOutcomes = append(severeOutcomes, "hospitalization")
	}
	if info.Outcomes.Disabled {
		severeOutcomes = append(severeOutcomes, "disability")
	}
	if len(severeOutcomes) > 0 {
		fmt.Fprintf(&b, "Report includes severe outcomes: %s.", strings.Join(severeOutcomes, ", "))
	}

	return b.String()
}

func formatFDAFindings(fdaResults []entities.FDASearchResult) string {
	if len(fdaResults) == 0 {
		return "No FDA-validated data found for the reported vaccine-symptom combinations. This does not necessarily indicate the symptoms are not related to the vaccine, only that they were not found in the FDA database searched."
	}

	var b strings.Builder
	for _, result := range fdaResults {
		fmt.Fprintf(&b, "\n**%s**\n", result.Vaccine)
		fmt.Fprintf(&b, "- Found %d FDA reports\n", result.FoundReports)
		fmt.Fprintf(&b, "- Searched symptoms: %s\n", strings.Join(result.Symptoms, ", "))

		if len(result.Reports) > 0 {
			b.WriteString("- Top matching studies:\n")
			for _, report := range firstN(result.Reports, 3) {
				fmt.Fprintf(&b, "  - %s (%s): %s\n", report.StudyType, report.SourceSection, strings.Join(firstN(report.Symptoms, 5), ", "))
			}
		}
	}
	return b.String()
}

func formatSimilarReports(similarReports []entities.SimilarReport) string {
	if len(similarReports) == 0 {
		return "No similar reports found in the VAERS database."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d similar VAERS reports:\n\n", len(similarReports))

	for i, report := range firstN(similarReports, 5) {
		fmt.Fprintf(&b, "%d. VAERS ID: %s (%d%% match)\n", i+1, report.VaersID, int(math.Round(report.SimilarityScore*100)))
		fmt.Fprintf(&b, "   - Vaccines: %s\n", strings.Join(report.Vaccines, ", "))
		fmt.Fprintf(&b, "   - Matched symptoms: %s\n", strings.Join(firstN(report.MatchedSymptoms, 5), ", "))
		if len(report.Outcomes) > 0 {
			fmt.Fprintf(&b, "   - Outcomes: %s\n", strings.Join(report.Outcomes, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func generateAnalysisSummary(analysis *entities.AnalysisResult) string {
	hasFDAMatches := false
	for _, r := range analysis.FDAResults {
		if r.FoundReports > 0 {
			hasFDAMatches = true
			break
		}
	}

	var b strings.Builder
	if hasFDAMatches {
		b.WriteString("The reported symptoms have been documented in FDA-validated data for these vaccines. ")
	} else {
		b.WriteString("The reported symptoms were not found in FDA-validated data, which may indicate they are uncommon or not previously documented. ")
	}

	if len(analysis.SimilarReports) > 0 {
		sum := 0.0
		for _, r := range analysis.SimilarReports {
			sum += r.SimilarityScore
		}
		avgSimilarity := sum / float64(len(analysis.SimilarReports))

		switch {
		case avgSimilarity > 0.7:
			b.WriteString("Multiple highly similar reports exist in VAERS, suggesting this may be a recurring pattern. ")
		case avgSimilarity > 0.4:
			b.WriteString("Some similar reports exist in VAERS with moderate similarity. ")
		default:
			b.WriteString("Few similar reports found, suggesting this may be a less common presentation. ")
		}
	}

	severeOutcomes := 0
	outcomes := analysis.ExtractedInfo.Outcomes
	for _, present := range []bool{outcomes.Died, outcomes.LifeThreatening, outcomes.Hospitalized, outcomes.Disabled} {
		if present {
			severeOutcomes++
		}
	}
	if severeOutcomes > 0 {
		fmt.Fprintf(&b, "This report includes %d severe outcome(s), requiring careful medical evaluation. ", severeOutcomes)
	}

	return b.String()
}

// calculateFDAConfidence is the section-level heuristic, independent of the
// overall confidence the model assigns
func calculateFDAConfidence(fdaResults []entities.FDASearchResult) entities.ConfidenceLevel {
	totalReports := 0
	for _, r := range fdaResults {
		totalReports += r.FoundReports
	}

	if totalReports > 10 {
		return entities.ConfidenceHigh
	}
	if totalReports > 3 {
		return entities.ConfidenceMedium
	}
	return entities.ConfidenceLow
}

func firstN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
