package constant

const (
	IntentListReports    = "LIST_REPORTS"
	IntentReportQuestion = "REPORT_QUESTION"
	IntentGeneralHealth  = "GENERAL_HEALTH"
	IntentOther          = "OTHER"

	IntentTaxonomyThreeLabel = "three_label"
	IntentTaxonomyTwoLabel   = "two_label"

	EmergencyResponse      = "This may be a medical emergency. Please seek urgent care immediately."
	NoReportsMessage       = "You don't have any uploaded reports yet."
	ListReportsHeader      = "You have the following reports:"
	UnknownReportName      = "Unknown Report"
	ReasoningFallback      = "No relevant information found in your reports for this question."
	InsufficientGrounding  = "I don't have enough report or memory data to answer safely."
	FaithfulnessDisclaimer = "Disclaimer: Some parts of this response may not be directly supported by your medical report or memory history. Please verify with your doctor."
	AdviceFooter           = "General advice: Please follow your doctor's recommendations."
	ToneAdjustmentPrefix   = "Patient-friendly explanation:"

	NoReportContextPlaceholder = "No report context found."
	NoShortTermPlaceholder     = "No short-term memory."
	NoLongTermPlaceholder      = "No long-term memory."

	// Inline markers keep the turn alive when a capability fails.
	ReasoningErrorMarker     = "[reasoning unavailable: %v]"
	GeneralHealthErrorMarker = "[general health answer unavailable: %v]"
	RetrievalErrorMarker     = "[report search unavailable: %v]"
	FaithfulnessErrorMarker  = "[faithfulness check error: %v]"
	TranslationErrorMarker   = "[translation unavailable: %v]"
	ReportSummaryErrorMarker = "[report summary unavailable: %v]"
	ToneErrorMarker          = "[tone adjustment unavailable: %v]"
	AdviceErrorMarker        = "[recommendations unavailable: %v]"

	ReasoningPrompt = `You are a medical assistant. Always ground answers in the given data.
Do NOT hallucinate or invent test values. If a value is not in the data, say it is not available.
Blend report information with patient history when relevant.

--- Current Query ---
%s

--- Report Context ---
%s

--- Recent Conversation (short-term) ---
%s

--- Summarized Past Memory (long-term) ---
%s

Answer in a safe, patient-friendly way:`

	GeneralHealthPrompt = `You are a trusted medical assistant. Answer the following question
in a safe, general, patient-friendly way.
Do not provide diagnoses or treatment plans.
If it's about prevention or lifestyle, provide clear advice and remind the user to consult a doctor.

Question: %s`

	SummarizerPrompt = `You are a medical assistant summarizer.
Generate a concise, patient-safe summary of the conversation.
Focus only on medical context, tests, and advice.
Do not invent data.

Conversation:
%s

Summary:`

	FaithfulnessPrompt = `You are a strict medical fact-checker.
Determine if the assistant's response is grounded in the provided sources.
If grounded, return: Faithful.
If it contains hallucination (info not in sources), return: Not Faithful.

--- Sources ---
%s

--- Assistant Response ---
%s

Answer with only 'Faithful' or 'Not Faithful'.`

	ReportSummaryPrompt = `You are a medical report summarizer.
Summarize the cleaned report below for the patient: the tests performed,
every value outside its reference range, and the impression if present.
Quote values exactly. Do not invent data or give a diagnosis.

Report:
%s

Summary:`

	TonePrompt = `Rewrite the following message for a patient.
Soften urgent or alarming language, explain technical terms simply and keep a calm, reassuring tone.
Keep every value and test name unchanged. Return only the rewritten message.

Message:
%s`

	TermExplainerPrompt = `You explain medical terms in simple language.
List every medical term, test name or abbreviation in the report below that a patient may not know.
Write one term per line as "term: explanation". Keep each explanation to one sentence.
Do not comment on the patient's values. Return only the lines.

Report:
%s`

	RecommendationPrompt = `You give next-step recommendations based strictly on a medical report.
Do not assume anything that is not in the report. Point out gaps or values that need follow-up testing,
use simple language and always advise confirming with a doctor. Do not diagnose or prescribe.

Report:
%s

Recommendations:`

	TranslationPrompt = `Translate the following patient-facing medical text into %s.
Preserve the meaning, every test name and every value exactly.
Do not add information. Return only the translation.

Text:
%s`

	IntentClassifierPrompt = `Classify the user's query into exactly one of these intents:
 - REPORT_QUESTION (questions about their report, results, blood test, values)
 - GENERAL_HEALTH (general medical or health questions not tied to their personal report)
Return ONLY the intent name.

Query: %s`
)
