package anthropic

import (
	"fmt"
)

const extractionSystemPrompt = `You are a medical data extraction assistant. Extract structured information from VAERS reports. Always respond with valid JSON only, no additional text or markdown formatting.`

const searchTermsSystemPrompt = `You are a medical search assistant. Generate relevant search terms for finding similar cases. Always respond with valid JSON only, no additional text or markdown formatting.`

const analysisSystemPrompt = `You are a medical analysis assistant specializing in vaccine adverse event reports. Provide objective, evidence-based analysis while being clear about limitations and uncertainties. Always respond with valid JSON only, no additional text or markdown formatting.`

func buildExtractionUserPrompt(reportText string) string {
	return fmt.Sprintf(`Extract the following information from this VAERS report and return as JSON:
- vaccines (array of {type, manufacturer, dose})
- symptoms (array of symptom names)
- outcomes (object with died, lifeThreatening, hospitalized, disabled, emergencyRoom as booleans)
- onsetDays (number of days between vaccination and symptom onset)
- patientInfo (age, sex)

Report text:
%s

Return ONLY valid JSON without any markdown formatting or explanation.`, reportText)
}

func buildSearchTermsUserPrompt(extractedJSON string) string {
	return fmt.Sprintf(`Given this extracted information from a VAERS report, generate 5-10 relevant search terms that would help find similar cases or validate symptoms. Include medical synonyms and related conditions.

%s

Return ONLY a JSON array of strings. No markdown or explanation.`, extractedJSON)
}

func buildAnalysisUserPrompt(evidenceJSON string) string {
	return fmt.Sprintf(`Analyze this VAERS report data and provide:
1. A summary of findings
2. Overall confidence level (high/medium/low) based on FDA validation matches
3. Key recommendations for healthcare providers

Data:
%s

Return ONLY valid JSON with fields: summary (string), overallConfidence (string: "high" | "medium" | "low"), recommendations (array of strings).
Do not include any markdown formatting or explanation.`, evidenceJSON)
}
