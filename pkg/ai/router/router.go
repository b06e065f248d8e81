package router

import (
	"context"
	"log"
	"strings"
	"time"

	"medscribe-be/internal/constant"
	"medscribe-be/pkg/ai/pipeline"
	"medscribe-be/pkg/memory"
	ragpipeline "medscribe-be/pkg/rag/pipeline"
	"medscribe-be/pkg/rag/resolver"
)

// Mode records which path produced a reply.
type Mode string

const (
	ModeEmergency Mode = "EMERGENCY"
	ModeBypass    Mode = "LIST_REPORTS_BYPASS"
	ModeRAG       Mode = "RAG"
	ModeGeneral   Mode = "GENERAL_HEALTH"
)

type ChatInput struct {
	UserID string
	Query  string
	CaseID string
	TopK   int
}

// ExecuteResult is the unified result from any pipeline execution
type ExecuteResult struct {
	Query        string
	Reply        string
	Mode         Mode
	Intent       string
	CaseIDs      []string
	ShortTerm    []string
	LongTerm     []string
	Faithfulness string
	Stages       []string
}

type Config struct {
	HistoryWindow int
	MemoryTopK    int
	DefaultTopK   int
	// CapabilityTimeout bounds each long-term memory search, embedding included.
	CapabilityTimeout time.Duration
}

// Router handles pipeline selection based on the classified intent
type Router struct {
	pipeline *ragpipeline.Pipeline
	bypass   *pipeline.ListReportsBypass
	resolver *resolver.Resolver
	stm      *memory.ConversationMemory
	ltm      *memory.LongTermMemory
	cfg      Config
	logger   *log.Logger
}

func NewRouter(
	p *ragpipeline.Pipeline,
	bypass *pipeline.ListReportsBypass,
	res *resolver.Resolver,
	stm *memory.ConversationMemory,
	ltm *memory.LongTermMemory,
	cfg Config,
	logger *log.Logger,
) *Router {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 3
	}
	if cfg.MemoryTopK <= 0 {
		cfg.MemoryTopK = 3
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	return &Router{
		pipeline: p,
		bypass:   bypass,
		resolver: res,
		stm:      stm,
		ltm:      ltm,
		cfg:      cfg,
		logger:   logger,
	}
}

// Execute runs one chat turn and appends it to short-term memory. Only a
// failing case store on the list-reports path returns an error; every other
// failure is folded into the reply.
func (r *Router) Execute(ctx context.Context, in ChatInput) (*ExecuteResult, error) {
	query := strings.TrimSpace(in.Query)
	topK := in.TopK
	if topK <= 0 {
		topK = r.cfg.DefaultTopK
	}

	state := ragpipeline.NewState(query, in.UserID, nil, topK)
	r.pipeline.RunPreamble(ctx, state)

	var result *ExecuteResult
	switch {
	case state.End:
		r.logger.Printf("[ROUTER] Emergency phrase detected for user %s", in.UserID)
		result = r.resultFrom(state, ModeEmergency)

	case state.Intent == constant.IntentListReports:
		r.logger.Printf("[ROUTER] Executing LIST_REPORTS bypass")
		bypassed, err := r.bypass.Execute(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		result = &ExecuteResult{
			Query:   query,
			Reply:   bypassed.Reply,
			Mode:    ModeBypass,
			Intent:  state.Intent,
			CaseIDs: bypassed.CaseIDs,
		}

	default:
		r.prepare(ctx, state, in.CaseID)
		r.pipeline.RunBranch(ctx, state)

		mode := ModeRAG
		if state.Intent == constant.IntentGeneralHealth {
			mode = ModeGeneral
		}
		r.logger.Printf("[ROUTER] %s turn finished, stages=%v", mode, state.Trace)
		result = r.resultFrom(state, mode)
	}

	r.persist(ctx, in, result)
	return result, nil
}

// prepare resolves target cases and injects both memories into state.
// Memory reads happen before the turn is saved so it never sees itself.
func (r *Router) prepare(ctx context.Context, state *ragpipeline.State, explicitCaseID string) {
	resolved, err := r.resolver.Resolve(ctx, state.UserID, state.Query, explicitCaseID)
	if err != nil {
		r.logger.Printf("[ROUTER] Case resolution failed, continuing without report context: %v", err)
		state.CaseIDs = []string{}
	} else {
		state.CaseIDs = resolved.CaseIDs
		r.logger.Printf("[ROUTER] Resolved %d case(s) via %s", len(resolved.CaseIDs), resolved.Strategy)
	}

	scope := ""
	if len(state.CaseIDs) == 1 {
		scope = state.CaseIDs[0]
	}
	turns, err := r.stm.Load(ctx, state.UserID, scope, r.cfg.HistoryWindow)
	if err != nil {
		r.logger.Printf("[ROUTER] Short-term memory unavailable: %v", err)
	} else {
		state.History = memory.FormatHistory(turns)
	}

	state.LongMemory = r.searchLongTerm(ctx, state)
}

func (r *Router) searchLongTerm(ctx context.Context, state *ragpipeline.State) []string {
	if r.ltm == nil {
		return nil
	}
	var out []string
	for _, caseID := range state.CaseIDs {
		found, err := r.searchCase(ctx, state, caseID)
		if err != nil {
			r.logger.Printf("[ROUTER] Long-term memory search failed for case %s: %v", caseID, err)
			continue
		}
		out = append(out, found...)
		if len(out) >= r.cfg.MemoryTopK {
			return out[:r.cfg.MemoryTopK]
		}
	}
	return out
}

func (r *Router) searchCase(ctx context.Context, state *ragpipeline.State, caseID string) ([]string, error) {
	if r.cfg.CapabilityTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.CapabilityTimeout)
		defer cancel()
	}
	return r.ltm.Search(ctx, state.Query, state.UserID, caseID, r.cfg.MemoryTopK)
}

func (r *Router) resultFrom(state *ragpipeline.State, mode Mode) *ExecuteResult {
	caseIDs := state.CaseIDs
	if caseIDs == nil {
		caseIDs = []string{}
	}
	return &ExecuteResult{
		Query:        state.Query,
		Reply:        state.Response,
		Mode:         mode,
		Intent:       state.Intent,
		CaseIDs:      caseIDs,
		ShortTerm:    state.History,
		LongTerm:     state.LongMemory,
		Faithfulness: string(state.Faithfulness),
		Stages:       state.Trace,
	}
}

func (r *Router) persist(ctx context.Context, in ChatInput, result *ExecuteResult) {
	caseID := in.CaseID
	if caseID == "" && len(result.CaseIDs) == 1 && result.Mode != ModeBypass {
		caseID = result.CaseIDs[0]
	}
	_, err := r.stm.Save(ctx, memory.SaveTurnInput{
		UserId:  in.UserID,
		CaseId:  caseID,
		CaseIds: result.CaseIDs,
		Query:   result.Query,
		Answer:  result.Reply,
		Intent:  result.Intent,
	})
	if err != nil {
		r.logger.Printf("[ROUTER] Failed to store conversation turn: %v", err)
	}
}
