package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/openvaers/analyzer-backend/internal/adapters/database"
	"github.com/openvaers/analyzer-backend/internal/adapters/search"
	"github.com/openvaers/analyzer-backend/internal/application/services"
	"github.com/openvaers/analyzer-backend/internal/domain/entities"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/postgres"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/typesense"
	"github.com/openvaers/analyzer-backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	var indexer repositories.SymptomIndexRepository
	if tsClient, err := typesense.NewClient(&cfg.Typesense); err == nil {
		adapter := search.NewTypesenseAdapter(tsClient)
		if err := tsClient.InitSchema(context.Background()); err != nil {
			log.Printf("Failed to init Typesense schema: %v", err)
		} else {
			indexer = adapter
		}
	}

	reportRepo := database.NewReportAdapter(pgClient)
	reportService := services.NewReportService(reportRepo, indexer, nil)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				report_symptoms,
				report_vaccines,
				reports,
				fda_reports
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed VAERS reports
	reports := []entities.Report{
		{
			ID:           uuid.New().String(),
			VaersID:      "2547001",
			State:        "CA",
			AgeYrs:       floatPtr(34),
			Sex:          "F",
			SymptomText:  "Patient developed fever of 102F and severe fatigue within 24 hours of receiving the second dose. Symptoms resolved after three days.",
			NumDays:      intPtr(1),
			Status:       entities.ReportStatusValidated,
			Vaccines:     []entities.Vaccine{{VaxType: "COVID19", Manufacturer: "PFIZER\\BIONTECH", VaxName: "COVID19 (COVID19 (PFIZER-BIONTECH))", VaxDoseSeries: "2"}},
			Symptoms:     []entities.Symptom{{SymptomName: "Pyrexia"}, {SymptomName: "Fatigue"}},
			Hospitalized: false,
		},
		{
			ID:          uuid.New().String(),
			VaersID:     "2547002",
			State:       "TX",
			AgeYrs:      floatPtr(67),
			Sex:         "M",
			SymptomText: "Chest pain and shortness of breath beginning two days after vaccination. Admitted for observation, troponin elevated, diagnosed with myocarditis.",
			NumDays:     intPtr(2),
			Status:      entities.ReportStatusValidated,
			Vaccines:    []entities.Vaccine{{VaxType: "COVID19", Manufacturer: "MODERNA", VaxName: "COVID19 (COVID19 (MODERNA))", VaxDoseSeries: "1"}},
			Symptoms: []entities.Symptom{
				{SymptomName: "Chest pain"},
				{SymptomName: "Dyspnoea"},
				{SymptomName: "Myocarditis"},
				{SymptomName: "Troponin increased"},
			},
			Hospitalized: true,
		},
		{
			ID:          uuid.New().String(),
			VaersID:     "2547003",
			State:       "NY",
			AgeYrs:      floatPtr(45),
			Sex:         "F",
			SymptomText: "Injection site redness and swelling, followed by hives across the torso. Treated with antihistamines.",
			NumDays:     intPtr(0),
			Status:      entities.ReportStatusNew,
			Vaccines:    []entities.Vaccine{{VaxType: "FLU4", Manufacturer: "SANOFI PASTEUR", VaxName: "INFLUENZA (SEASONAL) (FLUZONE QUADRIVALENT)"}},
			Symptoms: []entities.Symptom{
				{SymptomName: "Injection site erythema"},
				{SymptomName: "Injection site swelling"},
				{SymptomName: "Urticaria"},
			},
		},
		{
			ID:          uuid.New().String(),
			VaersID:     "2547004",
			State:       "FL",
			AgeYrs:      floatPtr(29),
			Sex:         "F",
			SymptomText: "Severe headache and dizziness starting the evening of vaccination, lasting approximately one week.",
			NumDays:     intPtr(0),
			Status:      entities.ReportStatusPendingValidation,
			Vaccines:    []entities.Vaccine{{VaxType: "COVID19", Manufacturer: "PFIZER\\BIONTECH", VaxName: "COVID19 (COVID19 (PFIZER-BIONTECH))", VaxDoseSeries: "1"}},
			Symptoms: []entities.Symptom{
				{SymptomName: "Headache"},
				{SymptomName: "Dizziness"},
			},
		},
		{
			ID:              uuid.New().String(),
			VaersID:         "2547005",
			State:           "WA",
			AgeYrs:          floatPtr(78),
			Sex:             "M",
			SymptomText:     "Patient collapsed at home four days after vaccination. Transported to ER, found to have suffered anaphylactic reaction.",
			NumDays:         intPtr(4),
			Status:          entities.ReportStatusValidated,
			Vaccines:        []entities.Vaccine{{VaxType: "ZOSTER", Manufacturer: "GLAXOSMITHKLINE BIOLOGICALS", VaxName: "ZOSTER (SHINGRIX)"}},
			Symptoms:        []entities.Symptom{{SymptomName: "Anaphylactic reaction"}, {SymptomName: "Syncope"}},
			LifeThreatening: true,
			ERVisit:         true,
		},
	}

	for i := range reports {
		if err := reportService.Create(ctx, &reports[i]); err != nil {
			log.Printf("Failed to create report %s: %v", reports[i].VaersID, err)
		}
	}

	// 2. Seed FDA label and trial extracts for the tool server
	fdaReports := []entities.FDAReport{
		{
			ID:            uuid.New().String(),
			Filename:      "pfizer-comirnaty-label.pdf",
			VaccineName:   "COVID19 (PFIZER-BIONTECH)",
			StudyType:     "label",
			SourceSection: "6.1 Clinical Trials Experience",
			Symptoms:      []string{"Pyrexia", "Fatigue", "Headache", "Chills", "Myalgia"},
			TrialText:     "In clinical trials, the most commonly reported solicited adverse reactions were injection site pain, fatigue, headache, myalgia, chills, and pyrexia.",
			Success:       true,
		},
		{
			ID:            uuid.New().String(),
			Filename:      "moderna-spikevax-label.pdf",
			VaccineName:   "COVID19 (MODERNA)",
			StudyType:     "label",
			SourceSection: "5.2 Myocarditis and Pericarditis",
			Symptoms:      []string{"Myocarditis", "Pericarditis", "Chest pain", "Dyspnoea"},
			TrialText:     "Postmarketing data demonstrate increased risks of myocarditis and pericarditis, particularly within 7 days following the second dose.",
			Success:       true,
		},
		{
			ID:            uuid.New().String(),
			Filename:      "fluzone-quadrivalent-trial.pdf",
			VaccineName:   "INFLUENZA (FLUZONE QUADRIVALENT)",
			StudyType:     "controlled_trial",
			SourceSection: "Study FQ-04",
			Symptoms:      []string{"Injection site erythema", "Injection site swelling", "Pyrexia"},
			TrialText:     "In the randomized controlled study, injection site reactions occurred in 42% of recipients versus 28% of placebo recipients.",
			Success:       true,
		},
		{
			ID:            uuid.New().String(),
			Filename:      "shingrix-label.pdf",
			VaccineName:   "ZOSTER (SHINGRIX)",
			StudyType:     "label",
			SourceSection: "6.2 Postmarketing Experience",
			Symptoms:      []string{"Anaphylactic reaction", "Urticaria", "Angioedema"},
			TrialText:     "Hypersensitivity reactions including anaphylaxis have been reported during postmarketing use.",
			Success:       true,
		},
	}

	db := pgClient.DB()
	for _, r := range fdaReports {
		_, err := db.ExecContext(
			ctx,
			`INSERT INTO fda_reports (id, filename, vaccine_name, study_type, source_section, symptoms, trial_text, success, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO NOTHING`,
			r.ID,
			r.Filename,
			r.VaccineName,
			r.StudyType,
			r.SourceSection,
			pq.Array(r.Symptoms),
			r.TrialText,
			r.Success,
			time.Now(),
		)
		if err != nil {
			log.Printf("Failed to insert FDA record %s: %v", r.Filename, err)
		}
	}

	log.Println("Seeding completed successfully")
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
