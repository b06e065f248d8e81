package pipeline

import (
	"medscribe-be/pkg/rag/faithfulness"
	"medscribe-be/pkg/vector"
)

// State is created per request and discarded once the turn is stored.
// Each field names the stage that writes it.
type State struct {
	// caller
	Query      string
	UserID     string
	CaseIDs    []string
	TopK       int
	History    []string // short-term turns, chronological
	LongMemory []string // long-term summaries

	// intent_classification; a caller may preset it
	Intent string

	// retriever; RetrievalError is surfaced by advice_annotation only
	Docs           []vector.SearchResult
	RetrievalError string

	// reasoning
	Reasoning       string
	ReasoningFailed bool
	// general_health
	GeneralAnswer string
	// tone_adjustment, rewritten by translation
	Simplified string
	Translated bool

	// safety_check, advice_annotation, faithfulness_check
	Response     string
	Faithfulness faithfulness.Status

	// summarization
	SummaryScheduled bool

	// safety_check; every later stage is a no-op once set
	End bool

	// stages that ran, in order
	Trace []string
}

func NewState(query, userID string, caseIDs []string, topK int) *State {
	return &State{
		Query:   query,
		UserID:  userID,
		CaseIDs: caseIDs,
		TopK:    topK,
	}
}

// DocTexts returns the retrieved chunk texts in rank order.
func (s *State) DocTexts() []string {
	out := make([]string, len(s.Docs))
	for i, d := range s.Docs {
		out[i] = d.Text
	}
	return out
}

// PrimaryCaseID is the case a single-case turn is stored under.
func (s *State) PrimaryCaseID() string {
	if len(s.CaseIDs) == 0 {
		return ""
	}
	return s.CaseIDs[0]
}
