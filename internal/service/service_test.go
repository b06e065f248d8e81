package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"medscribe-be/internal/config"
	"medscribe-be/internal/constant"
	"medscribe-be/internal/dto"
	"medscribe-be/internal/entity"
	"medscribe-be/internal/pkg/logger"
	"medscribe-be/internal/repository/unitofwork"
	"medscribe-be/pkg/ai/pipeline"
	"medscribe-be/pkg/ai/router"
	"medscribe-be/pkg/artifact"
	"medscribe-be/pkg/embedding/embeddingtest"
	"medscribe-be/pkg/ingest"
	"medscribe-be/pkg/insight"
	"medscribe-be/pkg/llm/llmtest"
	"medscribe-be/pkg/memory"
	pkgNats "medscribe-be/pkg/nats"
	ragpipeline "medscribe-be/pkg/rag/pipeline"
	"medscribe-be/pkg/rag/intent"
	"medscribe-be/pkg/rag/resolver"
	"medscribe-be/pkg/vector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const labReport = `City Care Hospital
Dr. Anita Rao
LIPID PROFILE
Total Cholesterol 210 mg/dL (0 - 200)
LDL 145 mg/dL (0 - 130)
HDL 45 mg/dL (40 - 60)
IMPRESSION
Borderline high cholesterol.`

type recordedTask struct {
	Type string
	Key  string
}

type recordingQueue struct {
	mu    sync.Mutex
	tasks []recordedTask
	fail  bool
}

func (q *recordingQueue) Enqueue(ctx context.Context, taskType, key string, payload interface{}) error {
	if q.fail {
		return errors.New("queue closed")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, recordedTask{Type: taskType, Key: key})
	return nil
}

func (q *recordingQueue) Tasks() []recordedTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]recordedTask(nil), q.tasks...)
}

type testDeps struct {
	factory  *unitofwork.MemoryRepositoryFactory
	store    *artifact.LocalStore
	index    *vector.MemoryIndex
	queue    *recordingQueue
	cases    ICaseService
	ingest   IIngestService
	indexer  IIndexService
	insights IInsightService
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	store, err := artifact.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	factory := unitofwork.NewMemoryRepositoryFactory()
	index := vector.NewMemoryIndex(embeddingtest.New(256), "medscribe_cases")
	queue := &recordingQueue{}
	publisher := NewPublisherService(queue)
	events := pkgNats.NopPublisher{}
	nop := logger.NewNopLogger()

	cases := NewCaseService(factory, store)
	return &testDeps{
		factory:  factory,
		store:    store,
		index:    index,
		queue:    queue,
		cases:    cases,
		ingest:   NewIngestService(factory, store, ingest.NewMultiExtractor(nil), publisher, events, nop),
		indexer:  NewIndexService(factory, index, store, cases, publisher, events, 1500, nop),
		insights: NewInsightService(factory, store, events, nop),
	}
}

func (d *testDeps) upload(t *testing.T, userId, text string) string {
	t.Helper()
	res, err := d.ingest.Process(context.Background(), userId, "report.txt", "text/plain; charset=utf-8", []byte(text))
	require.NoError(t, err)
	return res.CaseId
}

func (d *testDeps) addCase(t *testing.T, c *entity.Case) {
	t.Helper()
	require.NoError(t, d.factory.NewUnitOfWork(context.Background()).CaseRepository().Create(context.Background(), c))
}

func TestCaseServiceOwnership(t *testing.T) {
	d := newTestDeps(t)
	caseId := d.upload(t, "u1", labReport)
	ctx := context.Background()

	tests := []struct {
		name    string
		userId  string
		caseId  string
		wantErr error
	}{
		{name: "owner", userId: "u1", caseId: caseId},
		{name: "other user", userId: "u2", caseId: caseId, wantErr: ErrCaseForbidden},
		{name: "missing", userId: "u1", caseId: "nope", wantErr: ErrCaseNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.cases.Meta(ctx, tt.userId, tt.caseId)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIngestProcessWritesArtifacts(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	res, err := d.ingest.Process(ctx, "u1", "lipids.txt", "text/plain", []byte(labReport))
	require.NoError(t, err)
	assert.Equal(t, "Lipid Profile", res.ReportType)
	assert.Equal(t, 1, res.Panels)

	for _, key := range []string{artifact.RawKey(res.CaseId), artifact.CleanedKey(res.CaseId), artifact.PanelsKey(res.CaseId)} {
		ok, err := d.store.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}

	meta, err := d.cases.Meta(ctx, "u1", res.CaseId)
	require.NoError(t, err)
	assert.Equal(t, "cases/"+res.CaseId+"/raw.txt", meta.RawPath)
	assert.Equal(t, "City Care Hospital", meta.Metadata["hospital"])

	panels, err := d.cases.Panels(ctx, "u1", res.CaseId)
	require.NoError(t, err)
	require.Len(t, panels.Panels, 1)
	assert.Equal(t, ingest.PanelLipid, panels.Panels[0].Name)

	assert.Equal(t, []recordedTask{
		{Type: TaskIndexCase, Key: "index:" + res.CaseId},
		{Type: TaskComputeInsights, Key: "insights:" + res.CaseId},
	}, d.queue.Tasks())

	_, err = d.cases.Insights(ctx, "u1", res.CaseId)
	assert.ErrorIs(t, err, ErrArtifactMissing)
}

func TestIngestProcessRejects(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		data        string
		wantErr     error
	}{
		{name: "empty", contentType: "text/plain", data: "", wantErr: ErrEmptyUpload},
		{name: "whitespace", contentType: "text/plain", data: "   \n ", wantErr: ErrEmptyUpload},
		{name: "word document", contentType: "application/msword", data: "x", wantErr: ErrUnsupportedMedia},
		{name: "pdf without ocr", contentType: "application/pdf", data: "%PDF-1.4", wantErr: ErrUnsupportedMedia},
		{name: "homework", contentType: "text/plain", data: "Week 3 assignment, viva on Friday. Total 100 marks.", wantErr: ErrNotMedicalReport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps(t)
			_, err := d.ingest.Process(context.Background(), "u1", "f", tt.contentType, []byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, d.queue.Tasks())
		})
	}
}

func TestIngestSurvivesQueueFailure(t *testing.T) {
	d := newTestDeps(t)
	d.queue.fail = true

	caseId := d.upload(t, "u1", labReport)
	assert.NotEmpty(t, caseId)
}

func TestIndexCaseIsIdempotent(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	caseId := d.upload(t, "u1", labReport)

	first, err := d.indexer.IndexCase(ctx, caseId, false)
	require.NoError(t, err)
	require.Positive(t, first)

	second, err := d.indexer.IndexCase(ctx, caseId, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	count, err := d.index.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(first), count)

	hits, err := d.index.Search(ctx, vector.SearchQuery{Text: "what was my LDL", UserID: "u1", TopK: 10})
	require.NoError(t, err)
	var texts []string
	for _, h := range hits {
		texts = append(texts, h.Text)
	}
	assert.Contains(t, texts, "LDL: 145 mg/dL (ref: 0 - 130)")
}

func TestIndexCaseMissing(t *testing.T) {
	d := newTestDeps(t)
	_, err := d.indexer.IndexCase(context.Background(), "ghost", false)
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestRebuildUserReplacesChunks(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	c1 := d.upload(t, "u1", labReport)
	c2 := d.upload(t, "u1", labReport)
	other := d.upload(t, "u2", labReport)
	for _, id := range []string{c1, c2, other} {
		_, err := d.indexer.IndexCase(ctx, id, false)
		require.NoError(t, err)
	}
	before, err := d.index.CountByUser(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, d.indexer.RebuildUser(ctx, "u1"))

	after, err := d.index.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	status, err := d.indexer.Status(ctx, "u1", "u1")
	require.NoError(t, err)
	require.Len(t, status.Cases, 2)
	for _, c := range status.Cases {
		assert.True(t, c.Indexed)
	}

	otherCount, err := d.index.CountByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Positive(t, otherCount)
}

// slowIndex widens the window between DeleteByCase and Upsert.
type slowIndex struct {
	vector.Index
	delay time.Duration
}

func (s slowIndex) Upsert(ctx context.Context, userID, caseID string, chunks []string, metadata map[string]interface{}) ([]string, error) {
	time.Sleep(s.delay)
	return s.Index.Upsert(ctx, userID, caseID, chunks, metadata)
}

func TestConcurrentBuildsOfOneCaseDoNotDuplicate(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	caseId := d.upload(t, "u1", labReport)

	indexer := NewIndexService(d.factory, slowIndex{Index: d.index, delay: 50 * time.Millisecond}, d.store, d.cases,
		NewPublisherService(d.queue), pkgNats.NopPublisher{}, 1500, logger.NewNopLogger())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := indexer.IndexCase(ctx, caseId, false)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, indexer.RebuildUser(ctx, "u1"))
	}()
	wg.Wait()

	meta, err := d.cases.Meta(ctx, "u1", caseId)
	require.NoError(t, err)
	require.Positive(t, meta.ChunkCount)

	count, err := d.index.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(meta.ChunkCount), count)
}

func TestVectorCleanup(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	caseId := d.upload(t, "u1", labReport)
	chunks, err := d.indexer.IndexCase(ctx, caseId, false)
	require.NoError(t, err)

	_, err = d.indexer.Cleanup(ctx, "u2", caseId)
	assert.ErrorIs(t, err, ErrCaseForbidden)

	res, err := d.indexer.Cleanup(ctx, "u1", caseId)
	require.NoError(t, err)
	assert.Equal(t, int64(chunks), res.Deleted)

	meta, err := d.cases.Meta(ctx, "u1", caseId)
	require.NoError(t, err)
	assert.Nil(t, meta.IndexedAt)
}

func TestRequestRebuild(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	d.upload(t, "u1", labReport)

	_, err := d.indexer.RequestRebuild(ctx, "u2", "u1")
	assert.ErrorIs(t, err, ErrUserMismatch)

	_, err = d.indexer.Status(ctx, "u2", "u1")
	assert.ErrorIs(t, err, ErrUserMismatch)

	res, err := d.indexer.RequestRebuild(ctx, "u1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cases)
	assert.Contains(t, d.queue.Tasks(), recordedTask{Type: TaskRebuildUserIndex, Key: "rebuild:u1"})
}

func float(v float64) *float64 { return &v }

func lipidPanel(ldl float64) []entity.Panel {
	return []entity.Panel{{
		Name:  ingest.PanelLipid,
		Items: []entity.LabItem{{Name: "LDL Cholesterol", Result: float(ldl), Unit: "mg/dL"}},
	}}
}

func TestInsightsCompareWithPreviousCase(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	d.addCase(t, &entity.Case{Id: "c-old", UserId: "u1", UploadedAt: t0, Panels: lipidPanel(160)})
	d.addCase(t, &entity.Case{Id: "c-new", UserId: "u1", UploadedAt: t0.Add(48 * time.Hour), Panels: lipidPanel(140)})
	d.addCase(t, &entity.Case{Id: "c-foreign", UserId: "u2", UploadedAt: t0.Add(24 * time.Hour), Panels: lipidPanel(90)})

	require.NoError(t, d.insights.Compute(ctx, "c-new"))

	report, err := d.cases.Insights(ctx, "u1", "c-new")
	require.NoError(t, err)
	assert.Equal(t, "c-old", report.PreviousCaseID)
	assert.Equal(t, 140.0, report.Values[insight.AnalyteLDL])
	assert.Equal(t, insight.TrendDown, report.Trend[insight.AnalyteLDL])

	first, err := d.store.Get(ctx, artifact.InsightsKey("c-new"))
	require.NoError(t, err)
	require.NoError(t, d.insights.Compute(ctx, "c-new"))
	second, err := d.store.Get(ctx, artifact.InsightsKey("c-new"))
	require.NoError(t, err)
	assert.Equal(t, first, second, "recomputing is a no-op")

	require.NoError(t, d.insights.Compute(ctx, "c-old"))
	oldReport, err := d.cases.Insights(ctx, "u1", "c-old")
	require.NoError(t, err)
	assert.Empty(t, oldReport.PreviousCaseID)
}

func TestConversationService(t *testing.T) {
	factory := unitofwork.NewMemoryRepositoryFactory()
	stm := memory.NewConversationMemory(factory.NewUnitOfWork(context.Background()).ConversationRepository())
	svc := NewConversationService(stm)
	ctx := context.Background()

	for i, caseId := range []string{"c1", "c2", "c1"} {
		_, err := stm.Save(ctx, memory.SaveTurnInput{UserId: "u1", CaseId: caseId, Query: fmt.Sprintf("q%d", i), Answer: "a"})
		require.NoError(t, err)
	}

	all, err := svc.History(ctx, "u1", "", 0)
	require.NoError(t, err)
	assert.True(t, all.Success)
	require.Len(t, all.History, 3)
	assert.Equal(t, "q2", all.History[0].Query)

	cleared, err := svc.Clear(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared.Deleted)

	left, err := svc.History(ctx, "u1", "", 0)
	require.NoError(t, err)
	require.Len(t, left.History, 1)
	assert.Equal(t, "c2", left.History[0].CaseId)
}

func newTestRouter(t *testing.T, d *testDeps, fake *llmtest.FakeProvider) *router.Router {
	t.Helper()
	uow := d.factory.NewUnitOfWork(context.Background())
	nop := logger.NewNopLogger()
	quiet := log.New(io.Discard, "", 0)

	classifier, err := intent.NewClassifier(config.DefaultListReportPatterns, fake, constant.IntentTaxonomyThreeLabel, nop)
	require.NoError(t, err)
	p := ragpipeline.New(ragpipeline.Config{
		EmergencyKeywords:   config.DefaultEmergencyKeywords,
		ToneStepEnabled:     true,
		FaithfulnessEnabled: true,
		HistoryWindow:       3,
	}, ragpipeline.Deps{Classifier: classifier, Index: d.index, LLM: fake, Logger: nop})

	return router.NewRouter(
		p,
		pipeline.NewListReportsBypass(uow.CaseRepository(), quiet),
		resolver.NewResolver(uow.CaseRepository(), config.DefaultRecencyTerms, config.DefaultAggregateTerms),
		memory.NewConversationMemory(uow.ConversationRepository()),
		nil,
		router.Config{},
		quiet,
	)
}

func TestChatServiceChecksOwnershipBeforeRouting(t *testing.T) {
	d := newTestDeps(t)
	fake := llmtest.New()
	caseId := d.upload(t, "u1", labReport)
	chat := NewChatService(d.cases, newTestRouter(t, d, fake), d.index, 5, logger.NewNopLogger())
	ctx := context.Background()

	_, err := chat.Chat(ctx, "u2", &dto.ChatRequest{Query: "What was my LDL?", CaseId: caseId})
	assert.ErrorIs(t, err, ErrCaseForbidden)
	_, err = chat.Chat(ctx, "u1", &dto.ChatRequest{Query: "What was my LDL?", CaseId: "missing"})
	assert.ErrorIs(t, err, ErrCaseNotFound)
	assert.Zero(t, fake.Calls())

	res, err := chat.Chat(ctx, "u1", &dto.ChatRequest{Query: "list my reports"})
	require.NoError(t, err)
	assert.Equal(t, string(router.ModeBypass), res.Meta.Mode)
	assert.Equal(t, []string{caseId}, res.Meta.CaseIds)
	assert.Equal(t, "u1", res.Meta.UserId)
	assert.NotNil(t, res.MemoryUsed.ShortTerm)
	assert.Zero(t, fake.Calls())
}

func TestChatServiceRawQueryIsUserScoped(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	mine := d.upload(t, "u1", labReport)
	theirs := d.upload(t, "u2", labReport)
	for _, id := range []string{mine, theirs} {
		_, err := d.indexer.IndexCase(ctx, id, false)
		require.NoError(t, err)
	}
	chat := NewChatService(d.cases, nil, d.index, 5, logger.NewNopLogger())

	res, err := chat.Query(ctx, "u1", &dto.QueryRequest{Query: "LDL cholesterol", TopK: 20})
	require.NoError(t, err)
	require.NotEmpty(t, res.Results)
	for _, r := range res.Results {
		assert.Equal(t, mine, r.CaseId)
	}

	_, err = chat.Query(ctx, "u1", &dto.QueryRequest{Query: "LDL", CaseId: theirs})
	assert.ErrorIs(t, err, ErrCaseForbidden)
}

func TestPublisherServiceSchedulesSummary(t *testing.T) {
	queue := &recordingQueue{}
	p := NewPublisherService(queue)

	require.NoError(t, p.ScheduleSummary(context.Background(), ragpipeline.SummaryJob{UserID: "u1", CaseID: "c1", Text: "t"}))
	assert.Equal(t, []recordedTask{{Type: TaskSaveSummary}}, queue.Tasks())
}

func TestReportNameFallsBackToFileName(t *testing.T) {
	assert.Equal(t, "Lipid Profile", reportName("x.pdf", "Lipid Profile"))
	assert.Equal(t, "x.pdf", reportName(" x.pdf ", ingest.UnknownReport))
	assert.Equal(t, ingest.UnknownReport, reportName("", ""))
	assert.True(t, strings.HasPrefix(reportName("scan.png", ""), "scan"))
}

func TestChatEndToEndWithFollowUp(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	caseId := d.upload(t, "u1", labReport)
	_, err := d.indexer.IndexCase(ctx, caseId, false)
	require.NoError(t, err)

	fake := llmtest.New(
		llmtest.Rule{Match: "Classify", Answer: "REPORT_QUESTION"},
		llmtest.Rule{Match: "fact-checker", Answer: "Faithful"},
		llmtest.Rule{Match: "--- Current Query ---", Answer: "Your LDL was 145 mg/dL, above the 0-130 range."},
	)
	chat := NewChatService(d.cases, newTestRouter(t, d, fake), d.index, 5, logger.NewNopLogger())

	first, err := chat.Chat(ctx, "u1", &dto.ChatRequest{Query: "what was my LDL", TopK: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{caseId}, first.Meta.CaseIds)
	assert.Equal(t, string(router.ModeRAG), first.Meta.Mode)
	assert.Contains(t, first.Answer, "145 mg/dL")
	assert.Empty(t, first.MemoryUsed.ShortTerm)
	// the lab chunk reached the reasoning prompt
	assert.Positive(t, fake.CallsMatching("--- Current Query ---\nwhat was my LDL"))
	assert.Positive(t, fake.CallsMatching("LDL: 145 mg/dL (ref: 0 - 130)"))

	second, err := chat.Chat(ctx, "u1", &dto.ChatRequest{Query: "what did I just ask"})
	require.NoError(t, err)
	require.Len(t, second.MemoryUsed.ShortTerm, 1)
	assert.Contains(t, second.MemoryUsed.ShortTerm[0], "User: what was my LDL")
	assert.Contains(t, second.MemoryUsed.ShortTerm[0], "Assistant: "+first.Answer)
}

func TestReportSummaryFlow(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	caseId := d.upload(t, "u1", labReport)

	fake := llmtest.New(
		llmtest.Rule{Match: "medical report summarizer", Answer: " LDL 145 mg/dL is above range. "},
		llmtest.Rule{Match: "Rewrite the following", Answer: "Your LDL is a little high."},
		llmtest.Rule{Match: "into Sinhala", Answer: "translated"},
	)
	svc := NewReportSummaryService(d.cases, fake, "Sinhala", 0, logger.NewNopLogger())

	res, err := svc.Summarize(ctx, "u1", caseId, &dto.ReportSummaryRequest{})
	require.NoError(t, err)
	assert.Equal(t, "LDL 145 mg/dL is above range.", res.Summary)
	assert.Equal(t, "Your LDL is a little high.", res.TonedSummary)
	assert.Equal(t, "translated", res.Translation)
	assert.Equal(t, "Sinhala", res.Language)
	// the toned text is what gets translated
	assert.Equal(t, 1, fake.CallsMatching("into Sinhala.\nPreserve"))
	assert.Equal(t, 1, fake.CallsMatching("Text:\nYour LDL is a little high."))
	for _, step := range []string{StepSummarization, StepToneChecking, StepTranslation} {
		assert.Equal(t, "completed", res.Steps[step].Status, step)
	}

	noTone := false
	res, err = svc.Summarize(ctx, "u1", caseId, &dto.ReportSummaryRequest{ToneCheck: &noTone, Language: "Tamil"})
	require.NoError(t, err)
	assert.Empty(t, res.TonedSummary)
	assert.Equal(t, "skipped", res.Steps[StepToneChecking].Status)
	assert.Equal(t, "Tamil", res.Language)
	assert.Equal(t, 1, fake.CallsMatching("Text:\nLDL 145 mg/dL is above range."))

	_, err = svc.Summarize(ctx, "u2", caseId, &dto.ReportSummaryRequest{})
	assert.ErrorIs(t, err, ErrCaseForbidden)
}

func TestReportSummaryDegradesInline(t *testing.T) {
	d := newTestDeps(t)
	caseId := d.upload(t, "u1", labReport)
	fake := llmtest.New(llmtest.Rule{Match: "medical report summarizer", Err: errors.New("quota")})
	svc := NewReportSummaryService(d.cases, fake, "Sinhala", 0, logger.NewNopLogger())

	res, err := svc.Summarize(context.Background(), "u1", caseId, &dto.ReportSummaryRequest{})
	require.NoError(t, err)
	assert.Equal(t, "[report summary unavailable: quota]", res.Summary)
	assert.Equal(t, "failed", res.Steps[StepSummarization].Status)
	assert.Equal(t, "skipped", res.Steps[StepToneChecking].Status)
	assert.Equal(t, "skipped", res.Steps[StepTranslation].Status)
	assert.Equal(t, 1, fake.Calls())
}

func TestReportSummaryExplainsTermsAndAdvises(t *testing.T) {
	d := newTestDeps(t)
	caseId := d.upload(t, "u1", labReport)
	fake := llmtest.New(
		llmtest.Rule{Match: "medical report summarizer", Answer: "LDL is above range."},
		llmtest.Rule{Match: "explain medical terms", Answer: "- LDL: cholesterol that can build up in arteries.\n**HDL**: the protective kind of cholesterol.\nno colon here"},
		llmtest.Rule{Match: "next-step recommendations", Err: errors.New("quota")},
	)
	svc := NewReportSummaryService(d.cases, fake, "", 0, logger.NewNopLogger())
	noTone := false

	res, err := svc.Summarize(context.Background(), "u1", caseId, &dto.ReportSummaryRequest{
		ToneCheck:       &noTone,
		ExplainTerms:    true,
		Recommendations: true,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"LDL": "cholesterol that can build up in arteries.",
		"HDL": "the protective kind of cholesterol.",
	}, res.Terms)
	assert.Equal(t, "completed", res.Steps[StepExplanation].Status)
	assert.Equal(t, "[recommendations unavailable: quota]", res.Recommendations)
	assert.Equal(t, "failed", res.Steps[StepAdvice].Status)
	assert.Equal(t, "LDL is above range.", res.Summary)
}

func TestParseTermLinesRejectsProse(t *testing.T) {
	assert.Empty(t, ParseTermLines("I cannot help with that.\n"))
	assert.Equal(t, map[string]string{"HbA1c": "average blood sugar over three months."},
		ParseTermLines("* HbA1c: average blood sugar over three months."))
}
