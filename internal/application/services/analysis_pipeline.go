package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/providers"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/observability"
	apperrors "github.com/openvaers/analyzer-backend/pkg/errors"
)

// StepEmitter receives progress events from the pipeline. Emission is
// fire-and-forget: the pipeline never waits on the consumer, and events for
// one run are emitted in order.
type StepEmitter func(step entities.AnalysisStep)

const (
	stepTitleExtract    = "Extracting vaccine and symptom information"
	stepTitleSearchFDA  = "Searching FDA validated data"
	stepTitleSimilar    = "Finding similar VAERS reports"
	stepTitleSynthesize = "Generating comprehensive analysis"
)

const maxSimilarReports = 10

// AnalysisPipeline orchestrates the four analysis stages for one report:
// extraction, FDA search, similarity search, synthesis. Extraction and
// synthesis failures abort the run; the middle stages degrade to empty
// results.
type AnalysisPipeline struct {
	llm      providers.LLMProvider
	tools    providers.ToolClient
	reports  repositories.ReportRepository
	symptoms repositories.SymptomSearchRepository
}

// NewAnalysisPipeline creates a new analysis pipeline
func NewAnalysisPipeline(
	llm providers.LLMProvider,
	tools providers.ToolClient,
	reports repositories.ReportRepository,
	symptoms repositories.SymptomSearchRepository,
) *AnalysisPipeline {
	return &AnalysisPipeline{
		llm:      llm,
		tools:    tools,
		reports:  reports,
		symptoms: symptoms,
	}
}

// Analyze runs the full pipeline against one report. The report is read-only
// for the duration of the run; emit receives every step transition in order.
func (p *AnalysisPipeline) Analyze(ctx context.Context, report *entities.Report, emit StepEmitter) (*entities.AnalysisResult, error) {
	ctx, span := observability.StartSpan(ctx, "AnalysisPipeline.Analyze")
	defer span.End()

	logger := observability.LoggerFromContext(ctx)

	extracted, err := p.extract(ctx, report, emit)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	fdaResults := p.searchFDA(ctx, extracted, emit)

	similarReports := p.findSimilar(ctx, report, extracted, emit)

	emitStep(emit, entities.AnalysisStep{ID: 4, Title: stepTitleSynthesize, Status: entities.StepInProgress})

	synthesis, err := p.llm.GenerateAnalysis(ctx, &providers.AnalysisEvidence{
		Report:         report,
		ExtractedInfo:  extracted,
		FDAResults:     fdaResults,
		SimilarReports: similarReports,
	})
	if err != nil {
		logger.Error().Err(err).Str("vaers_id", report.VaersID).Msg("analysis synthesis failed")
		emitStep(emit, entities.AnalysisStep{ID: 4, Title: stepTitleSynthesize, Status: entities.StepError, Error: "Failed to generate analysis"})
		observability.RecordError(span, err)
		return nil, err
	}

	emitStep(emit, entities.AnalysisStep{ID: 4, Title: stepTitleSynthesize, Status: entities.StepCompleted})

	confidence := synthesis.OverallConfidence
	if confidence == "" {
		confidence = entities.ConfidenceLow
	}
	recommendations := synthesis.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}

	return &entities.AnalysisResult{
		Report:            report,
		ExtractedInfo:     extracted,
		FDAResults:        fdaResults,
		SimilarReports:    similarReports,
		OverallConfidence: confidence,
		Recommendations:   recommendations,
	}, nil
}

// extract is stage 1: flatten the report, ask the model for structured
// fields, and merge with the report's own fields as fallback. Failure here is
// fatal to the run.
func (p *AnalysisPipeline) extract(ctx context.Context, report *entities.Report, emit StepEmitter) (*entities.ExtractedInfo, error) {
	emitStep(emit, entities.AnalysisStep{ID: 1, Title: stepTitleExtract, Status: entities.StepInProgress})

	llmExtracted, err := p.llm.ExtractKeyInformation(ctx, flattenReport(report))
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Str("vaers_id", report.VaersID).Msg("extraction failed")
		emitStep(emit, entities.AnalysisStep{ID: 1, Title: stepTitleExtract, Status: entities.StepError, Error: "Failed to extract information"})
		return nil, err
	}

	extracted := mergeExtracted(llmExtracted, report)

	emitStep(emit, entities.AnalysisStep{
		ID:      1,
		Title:   stepTitleExtract,
		Status:  entities.StepCompleted,
		Details: fmt.Sprintf("Found %d vaccines and %d symptoms", len(extracted.Vaccines), len(extracted.Symptoms)),
	})
	return extracted, nil
}

// searchFDA is stage 2: one tool call per distinct vaccine, issued
// concurrently. Failed calls degrade to missing results rather than aborting
// the run; zero vaccines skips the stage's calls entirely.
func (p *AnalysisPipeline) searchFDA(ctx context.Context, extracted *entities.ExtractedInfo, emit StepEmitter) []entities.FDASearchResult {
	emitStep(emit, entities.AnalysisStep{ID: 2, Title: stepTitleSearchFDA, Status: entities.StepInProgress})

	results := make([]*entities.FDASearchResult, len(extracted.Vaccines))
	errs := make([]error, len(extracted.Vaccines))

	var wg sync.WaitGroup
	for i, vaccine := range extracted.Vaccines {
		wg.Add(1)
		go func(i int, vaccineType string) {
			defer wg.Done()
			result, err := p.tools.SearchValidatedSymptoms(ctx, vaccineType, extracted.Symptoms)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = result
		}(i, vaccine.Type)
	}
	wg.Wait()

	fdaResults := []entities.FDASearchResult{}
	totalFound := 0
	for _, result := range results {
		if result == nil {
			continue
		}
		fdaResults = append(fdaResults, *result)
		totalFound += result.FoundReports
	}

	var firstErr error
	for _, err := range errs {
		if err != nil {
			firstErr = err
			break
		}
	}
	if firstErr != nil {
		observability.LoggerFromContext(ctx).Warn().Err(firstErr).Msg("FDA search degraded")
		emitStep(emit, entities.AnalysisStep{ID: 2, Title: stepTitleSearchFDA, Status: entities.StepError, Error: "Failed to search FDA database"})
		return fdaResults
	}

	emitStep(emit, entities.AnalysisStep{
		ID:      2,
		Title:   stepTitleSearchFDA,
		Status:  entities.StepCompleted,
		Details: fmt.Sprintf("Found %d FDA reports", totalFound),
	})
	return fdaResults
}

// findSimilar is stage 3: generate search terms, look up candidates per term
// concurrently, score by fraction of terms matched, and project the top
// candidates. Any failure degrades to an empty list.
func (p *AnalysisPipeline) findSimilar(ctx context.Context, report *entities.Report, extracted *entities.ExtractedInfo, emit StepEmitter) []entities.SimilarReport {
	emitStep(emit, entities.AnalysisStep{ID: 3, Title: stepTitleSimilar, Status: entities.StepInProgress})

	similarReports, err := p.collectSimilar(ctx, report, extracted)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("vaers_id", report.VaersID).Msg("similarity search degraded")
		emitStep(emit, entities.AnalysisStep{ID: 3, Title: stepTitleSimilar, Status: entities.StepError, Error: "Failed to find similar reports"})
		return []entities.SimilarReport{}
	}

	emitStep(emit, entities.AnalysisStep{
		ID:      3,
		Title:   stepTitleSimilar,
		Status:  entities.StepCompleted,
		Details: fmt.Sprintf("Found %d similar reports", len(similarReports)),
	})
	return similarReports
}

func (p *AnalysisPipeline) collectSimilar(ctx context.Context, report *entities.Report, extracted *entities.ExtractedInfo) ([]entities.SimilarReport, error) {
	searchTerms, err := p.llm.FindRelevantSearchTerms(ctx, extracted)
	if err != nil {
		return nil, err
	}
	if len(searchTerms) == 0 {
		return []entities.SimilarReport{}, nil
	}

	// Per-term lookups run concurrently; matches merge into one map only
	// after every lookup finishes.
	type termMatches struct {
		term    string
		vaersID []string
	}
	matchesByTerm := make([]termMatches, len(searchTerms))
	errs := make([]error, len(searchTerms))

	var wg sync.WaitGroup
	for i, term := range searchTerms {
		wg.Add(1)
		go func(i int, term string) {
			defer wg.Done()
			ids, err := p.symptoms.FindReportsBySymptomTerm(ctx, term)
			if err != nil {
				errs[i] = err
				return
			}
			matchesByTerm[i] = termMatches{term: term, vaersID: ids}
		}(i, term)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// Set-based accumulation: a candidate matched via overlapping terms
	// counts each term once, so the score never exceeds 1.
	matched := make(map[string]map[string]struct{})
	order := []string{}
	for _, tm := range matchesByTerm {
		for _, vaersID := range tm.vaersID {
			if vaersID == report.VaersID {
				continue
			}
			if matched[vaersID] == nil {
				matched[vaersID] = make(map[string]struct{})
				order = append(order, vaersID)
			}
			matched[vaersID][tm.term] = struct{}{}
		}
	}

	type scored struct {
		vaersID         string
		matchedSymptoms []string
		score           float64
	}
	candidates := make([]scored, 0, len(order))
	for _, vaersID := range order {
		terms := matched[vaersID]
		matchedSymptoms := make([]string, 0, len(terms))
		// Keep matched terms in search-term order for stable output
		for _, term := range searchTerms {
			if _, ok := terms[term]; ok {
				matchedSymptoms = append(matchedSymptoms, term)
			}
		}
		candidates = append(candidates, scored{
			vaersID:         vaersID,
			matchedSymptoms: matchedSymptoms,
			score:           float64(len(terms)) / float64(len(searchTerms)),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxSimilarReports {
		candidates = candidates[:maxSimilarReports]
	}

	similarReports := []entities.SimilarReport{}
	for _, candidate := range candidates {
		match, err := p.reports.GetByVaersID(ctx, candidate.vaersID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		detail, err := p.reports.GetDetail(ctx, match.ID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}

		similarReports = append(similarReports, entities.SimilarReport{
			VaersID:         candidate.vaersID,
			SimilarityScore: candidate.score,
			MatchedSymptoms: candidate.matchedSymptoms,
			Vaccines:        detail.VaccineTypes(),
			Outcomes:        detail.OutcomeLabels(),
		})
	}

	return similarReports, nil
}

// flattenReport renders a report as the plaintext block the extraction
// prompt expects
func flattenReport(report *entities.Report) string {
	age := "Unknown"
	if report.AgeYrs != nil {
		age = fmt.Sprintf("%g", *report.AgeYrs)
	}
	sex := report.Sex
	if sex == "" {
		sex = "Unknown"
	}

	vaccines := "Unknown"
	if len(report.Vaccines) > 0 {
		parts := make([]string, 0, len(report.Vaccines))
		for _, v := range report.Vaccines {
			parts = append(parts, fmt.Sprintf("%s (%s)", v.VaxType, v.Manufacturer))
		}
		vaccines = strings.Join(parts, ", ")
	}

	onset := "Unknown"
	if report.NumDays != nil {
		onset = fmt.Sprintf("%d", *report.NumDays)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Patient: %s years old, %s sex\n", age, sex)
	fmt.Fprintf(&b, "Vaccines: %s\n", vaccines)
	fmt.Fprintf(&b, "Symptoms: %s\n", report.SymptomText)
	b.WriteString("Outcomes:\n")
	fmt.Fprintf(&b, "- Died: %s\n", yesNo(report.Died))
	fmt.Fprintf(&b, "- Life Threatening: %s\n", yesNo(report.LifeThreatening))
	fmt.Fprintf(&b, "- Hospitalized: %s\n", yesNo(report.Hospitalized))
	fmt.Fprintf(&b, "- Disabled: %s\n", yesNo(report.Disabled))
	fmt.Fprintf(&b, "- ER Visit: %s\n", yesNo(report.ERVisit))
	fmt.Fprintf(&b, "Days to onset: %s\n", onset)
	return b.String()
}

// mergeExtracted overlays the model's output on the report's own fields.
// Model vaccines and symptoms win when present; outcomes, onset and patient
// info always come from the report, which is authoritative for them.
func mergeExtracted(llmExtracted *entities.ExtractedInfo, report *entities.Report) *entities.ExtractedInfo {
	extracted := &entities.ExtractedInfo{
		Vaccines: llmExtracted.Vaccines,
		Symptoms: llmExtracted.Symptoms,
		Outcomes: entities.ExtractedOutcomes{
			Died:            report.Died,
			LifeThreatening: report.LifeThreatening,
			Hospitalized:    report.Hospitalized,
			Disabled:        report.Disabled,
			EmergencyRoom:   report.ERVisit,
		},
		OnsetDays: report.NumDays,
		PatientInfo: entities.ExtractedPatientInfo{
			Age: report.AgeYrs,
			Sex: report.Sex,
		},
	}

	if len(extracted.Vaccines) == 0 {
		for _, v := range report.Vaccines {
			extracted.Vaccines = append(extracted.Vaccines, entities.ExtractedVaccine{
				Type:         v.VaxType,
				Manufacturer: v.Manufacturer,
				Dose:         v.VaxDoseSeries,
			})
		}
	}
	if extracted.Vaccines == nil {
		extracted.Vaccines = []entities.ExtractedVaccine{}
	}
	if extracted.Symptoms == nil {
		extracted.Symptoms = []string{}
	}

	return extracted
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func emitStep(emit StepEmitter, step entities.AnalysisStep) {
	if emit != nil {
		emit(step)
	}
}
