package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"medscribe-be/internal/config"
	"medscribe-be/internal/constant"
	"medscribe-be/internal/dto"
	"medscribe-be/internal/pkg/logger"
	"medscribe-be/internal/pkg/serverutils"
	"medscribe-be/internal/repository/unitofwork"
	"medscribe-be/internal/service"
	"medscribe-be/pkg/ai/pipeline"
	"medscribe-be/pkg/ai/router"
	"medscribe-be/pkg/artifact"
	"medscribe-be/pkg/embedding/embeddingtest"
	"medscribe-be/pkg/ingest"
	"medscribe-be/pkg/llm/llmtest"
	"medscribe-be/pkg/memory"
	pkgNats "medscribe-be/pkg/nats"
	ragpipeline "medscribe-be/pkg/rag/pipeline"
	"medscribe-be/pkg/rag/intent"
	"medscribe-be/pkg/rag/resolver"
	"medscribe-be/pkg/vector"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const labReport = `City Care Hospital
LIPID PROFILE
LDL 145 mg/dL (0 - 130)
HDL 45 mg/dL (40 - 60)
IMPRESSION
Borderline high LDL.`

type discardQueue struct{}

func (discardQueue) Enqueue(ctx context.Context, taskType, key string, payload interface{}) error {
	return nil
}

func newTestApp(t *testing.T, degraded ...string) *fiber.App {
	t.Helper()
	store, err := artifact.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	factory := unitofwork.NewMemoryRepositoryFactory()
	uow := factory.NewUnitOfWork(context.Background())
	index := vector.NewMemoryIndex(embeddingtest.New(256), "medscribe_cases")
	publisher := service.NewPublisherService(discardQueue{})
	events := pkgNats.NopPublisher{}
	nop := logger.NewNopLogger()
	quiet := log.New(io.Discard, "", 0)
	fake := llmtest.New(
		llmtest.Rule{Match: "medical report summarizer", Answer: "LDL 145 mg/dL is above range."},
		llmtest.Rule{Match: "Rewrite the following", Answer: "Your LDL is a little high."},
	)

	classifier, err := intent.NewClassifier(config.DefaultListReportPatterns, fake, constant.IntentTaxonomyThreeLabel, nop)
	require.NoError(t, err)
	p := ragpipeline.New(ragpipeline.Config{EmergencyKeywords: config.DefaultEmergencyKeywords}, ragpipeline.Deps{
		Classifier: classifier,
		Index:      index,
		LLM:        fake,
		Logger:     nop,
	})
	stm := memory.NewConversationMemory(uow.ConversationRepository())
	r := router.NewRouter(
		p,
		pipeline.NewListReportsBypass(uow.CaseRepository(), quiet),
		resolver.NewResolver(uow.CaseRepository(), config.DefaultRecencyTerms, config.DefaultAggregateTerms),
		stm,
		nil,
		router.Config{},
		quiet,
	)

	caseService := service.NewCaseService(factory, store)
	indexService := service.NewIndexService(factory, index, store, caseService, publisher, events, 0, nop)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	auth := serverutils.UserHeaderMiddleware

	NewHealthController(func() []string { return degraded }).RegisterRoutes(app)
	NewChatController(service.NewChatService(caseService, r, index, 5, nop)).RegisterRoutes(app, auth)
	NewConversationController(service.NewConversationService(stm)).RegisterRoutes(app, auth)
	NewCaseController(caseService, service.NewReportSummaryService(caseService, fake, "", 0, nop)).RegisterRoutes(app, auth)
	NewIngestController(service.NewIngestService(factory, store, ingest.NewMultiExtractor(nil), publisher, events, nop)).RegisterRoutes(app, auth)
	NewVectorController(indexService).RegisterRoutes(app, auth)
	NewUserController(indexService).RegisterRoutes(app, auth)
	return app
}

func jsonRequest(method, path, userId string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userId != "" {
		req.Header.Set(serverutils.UserIdHeader, userId)
	}
	return req
}

func uploadRequest(t *testing.T, userId, name, contentType, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/ingest/process", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(serverutils.UserIdHeader, userId)
	return req
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func upload(t *testing.T, app *fiber.App, userId string) string {
	t.Helper()
	resp, err := app.Test(uploadRequest(t, userId, "lipids.txt", "text/plain", labReport))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.IngestResponse `json:"data"`
	}
	decode(t, resp, &body)
	require.NotEmpty(t, body.Data.CaseId)
	return body.Data.CaseId
}

func TestMissingUserHeaderIsBadRequest(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/rag/chat"},
		{"POST", "/chat/query"},
		{"GET", "/conversations"},
		{"DELETE", "/conversations"},
		{"GET", "/cases"},
		{"POST", "/vector/cleanup/c1"},
		{"POST", "/users/u1/index/rebuild"},
		{"POST", "/ingest/process"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(tt.method, tt.path, "", map[string]string{"query": "hi"}))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestChatEndpoint(t *testing.T) {
	app := newTestApp(t)
	caseId := upload(t, app, "u1")

	resp, err := app.Test(jsonRequest("POST", "/rag/chat", "u1", dto.ChatRequest{Query: "show my reports"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.ChatResponse
	decode(t, resp, &body)
	assert.Equal(t, "show my reports", body.Query)
	assert.Contains(t, body.Answer, constant.ListReportsHeader)
	assert.Equal(t, []string{caseId}, body.Meta.CaseIds)
	assert.Equal(t, "u1", body.Meta.UserId)

	resp, err = app.Test(jsonRequest("POST", "/rag/chat", "u1", map[string]string{}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "query is required")

	resp, err = app.Test(jsonRequest("POST", "/rag/chat", "u1", dto.ChatRequest{Query: "  \n\t "}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "blank query is rejected")

	resp, err = app.Test(jsonRequest("POST", "/chat/query", "u1", dto.QueryRequest{Query: "   "}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/rag/chat", "u2", dto.ChatRequest{Query: "what was my LDL", CaseId: caseId}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/rag/chat", "u1", dto.ChatRequest{Query: "what was my LDL", CaseId: "missing"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestConversationEndpoints(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(jsonRequest("POST", "/rag/chat", "u1", dto.ChatRequest{Query: "list my reports"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest("GET", "/conversations", "u1", nil))
	require.NoError(t, err)
	var history dto.ConversationHistoryResponse
	decode(t, resp, &history)
	assert.True(t, history.Success)
	require.Len(t, history.History, 1)
	assert.Equal(t, constant.NoReportsMessage, history.History[0].Answer)

	resp, err = app.Test(jsonRequest("GET", "/conversations", "u2", nil))
	require.NoError(t, err)
	decode(t, resp, &history)
	assert.Empty(t, history.History)

	resp, err = app.Test(jsonRequest("DELETE", "/conversations", "u1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest("GET", "/conversations", "u1", nil))
	require.NoError(t, err)
	decode(t, resp, &history)
	assert.Empty(t, history.History)
}

func TestCaseEndpointsOwnership(t *testing.T) {
	app := newTestApp(t)
	caseId := upload(t, app, "u1")

	tests := []struct {
		name       string
		path       string
		userId     string
		wantStatus int
	}{
		{name: "meta", path: "/cases/" + caseId + "/meta", userId: "u1", wantStatus: fiber.StatusOK},
		{name: "raw", path: "/cases/" + caseId + "/raw", userId: "u1", wantStatus: fiber.StatusOK},
		{name: "data", path: "/cases/" + caseId + "/data", userId: "u1", wantStatus: fiber.StatusOK},
		{name: "cleaned", path: "/cases/" + caseId + "/cleaned", userId: "u1", wantStatus: fiber.StatusOK},
		{name: "insights not computed", path: "/cases/" + caseId + "/insights", userId: "u1", wantStatus: fiber.StatusNotFound},
		{name: "foreign meta", path: "/cases/" + caseId + "/meta", userId: "u2", wantStatus: fiber.StatusForbidden},
		{name: "foreign raw", path: "/cases/" + caseId + "/raw", userId: "u2", wantStatus: fiber.StatusForbidden},
		{name: "missing", path: "/cases/nope/meta", userId: "u1", wantStatus: fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest("GET", tt.path, tt.userId, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	resp, err := app.Test(jsonRequest("GET", "/cases", "u2", nil))
	require.NoError(t, err)
	var list struct {
		Data []dto.CaseSummaryResponse `json:"data"`
	}
	decode(t, resp, &list)
	assert.Empty(t, list.Data)
}

func TestCaseSummaryEndpoint(t *testing.T) {
	app := newTestApp(t)
	caseId := upload(t, app, "u1")

	resp, err := app.Test(jsonRequest("POST", "/cases/"+caseId+"/summary", "u1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		Data dto.ReportSummaryResponse `json:"data"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "LDL 145 mg/dL is above range.", body.Data.Summary)
	assert.Equal(t, "Your LDL is a little high.", body.Data.TonedSummary)
	assert.Empty(t, body.Data.Translation)
	assert.Equal(t, "skipped", body.Data.Steps["translation"].Status)

	resp, err = app.Test(jsonRequest("POST", "/cases/"+caseId+"/summary", "u2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCaseOwnershipAcrossUsers(t *testing.T) {
	app := newTestApp(t)
	first := upload(t, app, "u1")
	second := upload(t, app, "u2")

	for _, tt := range []struct {
		owner, other, caseId string
	}{
		{owner: "u1", other: "u2", caseId: first},
		{owner: "u2", other: "u1", caseId: second},
	} {
		resp, err := app.Test(jsonRequest("GET", "/cases/"+tt.caseId+"/meta", tt.owner, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var body struct {
			Data dto.CaseMetaResponse `json:"data"`
		}
		decode(t, resp, &body)
		assert.Equal(t, tt.owner, body.Data.UserId)

		resp, err = app.Test(jsonRequest("GET", "/cases/"+tt.caseId+"/meta", tt.other, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

		resp, err = app.Test(jsonRequest("POST", "/rag/chat", tt.other, map[string]string{"query": "what was my LDL", "case_id": tt.caseId}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	}
}

func TestIngestEndpointRejects(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name        string
		contentType string
		content     string
	}{
		{name: "unsupported type", contentType: "application/zip", content: "PK"},
		{name: "empty", contentType: "text/plain", content: ""},
		{name: "not a report", contentType: "text/plain", content: "Shopping list: milk, eggs, bread."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(uploadRequest(t, "u1", "f.bin", tt.contentType, tt.content))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestUserIndexEndpoints(t *testing.T) {
	app := newTestApp(t)
	upload(t, app, "u1")

	resp, err := app.Test(jsonRequest("POST", "/users/u1/index/rebuild", "u2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	var errBody serverutils.Response
	decode(t, resp, &errBody)
	assert.Equal(t, "Forbidden: not your user id", errBody.Message)

	resp, err = app.Test(jsonRequest("POST", "/users/u1/index/rebuild", "u1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	resp, err = app.Test(jsonRequest("GET", "/users/u1/index/status", "u1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestVectorCleanupEndpoint(t *testing.T) {
	app := newTestApp(t)
	caseId := upload(t, app, "u1")

	resp, err := app.Test(jsonRequest("POST", "/vector/cleanup/"+caseId, "u2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/vector/cleanup/"+caseId, "u1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		Data dto.VectorCleanupResponse `json:"data"`
	}
	decode(t, resp, &body)
	assert.True(t, strings.HasPrefix(body.Data.Message, "Deleted 0 chunks"))
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		degraded   []string
		wantStatus string
	}{
		{name: "healthy", wantStatus: "ok"},
		{name: "degraded", degraded: []string{"nats", "redis"}, wantStatus: "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, tt.degraded...)
			resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			var body dto.HealthResponse
			decode(t, resp, &body)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Len(t, body.Degraded, len(tt.degraded))
		})
	}
}
