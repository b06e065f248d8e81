package bootstrap

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"medscribe-be/internal/config"
	"medscribe-be/internal/controller"
	"medscribe-be/internal/pkg/logger"
	"medscribe-be/internal/repository/unitofwork"
	"medscribe-be/internal/service"
	"medscribe-be/pkg/ai/pipeline"
	"medscribe-be/pkg/ai/router"
	"medscribe-be/pkg/artifact"
	"medscribe-be/pkg/embedding"
	"medscribe-be/pkg/ingest"
	"medscribe-be/pkg/llm"
	"medscribe-be/pkg/llm/factory"
	"medscribe-be/pkg/memory"
	pkgNats "medscribe-be/pkg/nats"
	ragpipeline "medscribe-be/pkg/rag/pipeline"
	"medscribe-be/pkg/rag/intent"
	"medscribe-be/pkg/rag/resolver"
	"medscribe-be/pkg/vector"
	"medscribe-be/pkg/worker"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const embeddingCacheTTL = 30 * time.Minute

type Container struct {
	// Controllers
	HealthController       controller.IHealthController
	ChatController         controller.IChatController
	ConversationController controller.IConversationController
	CaseController         controller.ICaseController
	IngestController       controller.IIngestController
	VectorController       controller.IVectorController
	UserController         controller.IUserController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	Queue           *worker.Queue
	Logger          logger.ILogger

	mu       sync.Mutex
	degraded []string
	closers  []func()
}

// NewContainer wires every component. A nil db runs on the in-memory
// repositories and vector index. Optional backends that fail to start are
// replaced by local fallbacks and reported through Degraded.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}
	ctx := context.Background()

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	workerLogger := logger.NewIsolatedLogger(cfg.App.WorkerLogFilePath)
	c.Logger = sysLogger

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[WARN] No database configured, using in-memory repositories")
		c.markDegraded("database")
		uowFactory = unitofwork.NewMemoryRepositoryFactory()
	}
	uow := uowFactory.NewUnitOfWork(ctx)

	// 2. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiApiKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}
	embeddingProvider = embedding.NewCachedProvider(embeddingProvider, embeddingCacheTTL)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.HuggingFaceApiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	llmProvider = llm.WithCallTimeout(llmProvider, cfg.Ai.CapabilityTimeout)
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3. Vector Index
	var index vector.Index
	if db != nil {
		pgIndex, err := vector.NewPgIndex(db, embeddingProvider, cfg.Rag.CollectionName, cfg.Rag.EmbeddingDimension)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize vector index: %v", err)
		}
		index = pgIndex
	} else {
		index = vector.NewMemoryIndex(embeddingProvider, cfg.Rag.CollectionName)
	}
	if err := index.EnsureCollection(ctx, index.Collection()); err != nil {
		log.Printf("[WARN] Failed to ensure collection %s: %v", index.Collection(), err)
		c.markDegraded("vector")
	}

	// 4. Infrastructure
	var eventPublisher pkgNats.EventPublisher = pkgNats.NopPublisher{}
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		c.markDegraded("nats")
	} else {
		eventPublisher = natsPub
	}
	c.closers = append(c.closers, eventPublisher.Close)

	ledger := c.newLedger(ctx, cfg)

	store := c.newStore(ctx, cfg)

	var ocr ingest.Extractor
	if cfg.DocumentAI.Enabled() {
		docAI, err := ingest.NewDocumentAIExtractor(ctx, ingest.DocumentAIConfig{
			ProjectID:       cfg.DocumentAI.ProjectID,
			Location:        cfg.DocumentAI.Location,
			ProcessorID:     cfg.DocumentAI.ProcessorID,
			CredentialsFile: cfg.Storage.CredentialsFile,
			Timeout:         cfg.Ai.CapabilityTimeout,
		})
		if err != nil {
			log.Printf("[WARN] Failed to initialize Document AI: %v", err)
			c.markDegraded("documentai")
		} else {
			ocr = docAI
			c.closers = append(c.closers, func() { _ = docAI.Close() })
		}
	}
	extractor := ingest.NewMultiExtractor(ocr)

	// 5. Task Queue
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)
	queue := worker.NewQueue(pubSub, pubSub, ledger, worker.Config{
		Topic:       cfg.Worker.TopicName,
		MaxAttempts: 3,
		RetryDelay:  2 * time.Second,
	}, workerLogger)
	c.Queue = queue
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	publisherService := service.NewPublisherService(queue)

	// 6. Memory
	stm := memory.NewConversationMemory(uow.ConversationRepository())
	ltm := memory.NewLongTermMemory(uow.MemorySummaryRepository(), embeddingProvider, memory.LongTermConfig{
		MaxSummaries: cfg.Rag.MaxSummaries,
		TopK:         cfg.Rag.MemoryTopK,
		ScanLimit:    cfg.Rag.CleanupScanLimit,
	})
	summarizer := ragpipeline.NewSummarizer(llmProvider, ltm, cfg.Rag.MaxSummaries)

	// 7. Conversational Pipeline
	classifier, err := intent.NewClassifier(cfg.Rag.ListReportPatterns, llmProvider, cfg.Rag.IntentTaxonomy, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize intent classifier: %v", err)
	}
	ragPipeline := ragpipeline.New(ragpipeline.Config{
		EmergencyKeywords:   cfg.Rag.EmergencyKeywords,
		ToneStepEnabled:     cfg.Rag.ToneStepEnabled,
		TranslationLanguage: cfg.Rag.TranslationLanguage,
		FaithfulnessEnabled: cfg.Rag.FaithfulnessEnabled,
		HistoryWindow:       cfg.Rag.HistoryWindow,
		CapabilityTimeout:   cfg.Ai.CapabilityTimeout,
	}, ragpipeline.Deps{
		Classifier: classifier,
		Index:      index,
		LLM:        llmProvider,
		Scheduler:  publisherService,
		Logger:     sysLogger,
	})

	stdLogger := log.New(os.Stdout, "[ROUTER] ", log.LstdFlags)
	chatRouter := router.NewRouter(
		ragPipeline,
		pipeline.NewListReportsBypass(uow.CaseRepository(), stdLogger),
		resolver.NewResolver(uow.CaseRepository(), cfg.Rag.RecencyTerms, cfg.Rag.AggregateTerms),
		stm,
		ltm,
		router.Config{
			HistoryWindow: cfg.Rag.HistoryWindow,
			MemoryTopK:    cfg.Rag.MemoryTopK,
			DefaultTopK:   cfg.Rag.DefaultTopK,

			CapabilityTimeout: cfg.Ai.CapabilityTimeout,
		},
		stdLogger,
	)

	// 8. Services
	caseService := service.NewCaseService(uowFactory, store)
	ingestService := service.NewIngestService(uowFactory, store, extractor, publisherService, eventPublisher, sysLogger)
	indexService := service.NewIndexService(uowFactory, index, store, caseService, publisherService, eventPublisher, cfg.Rag.TruncateChunkChars, sysLogger)
	insightService := service.NewInsightService(uowFactory, store, eventPublisher, sysLogger)
	chatService := service.NewChatService(caseService, chatRouter, index, cfg.Rag.DefaultTopK, sysLogger)
	conversationService := service.NewConversationService(stm)
	reportSummaryService := service.NewReportSummaryService(caseService, llmProvider, cfg.Rag.TranslationLanguage, cfg.Ai.CapabilityTimeout, sysLogger)
	c.ConsumerService = service.NewConsumerService(queue, indexService, insightService, summarizer, workerLogger)

	// 9. Controllers
	c.HealthController = controller.NewHealthController(c.Degraded)
	c.ChatController = controller.NewChatController(chatService)
	c.ConversationController = controller.NewConversationController(conversationService)
	c.CaseController = controller.NewCaseController(caseService, reportSummaryService)
	c.IngestController = controller.NewIngestController(ingestService)
	c.VectorController = controller.NewVectorController(indexService)
	c.UserController = controller.NewUserController(indexService)

	return c
}

func (c *Container) newLedger(ctx context.Context, cfg *config.Config) worker.Ledger {
	if cfg.Worker.LedgerDriver != "redis" {
		return worker.NewMemoryLedger(cfg.Worker.LedgerTTL)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Invalid Redis URL, falling back to address: %v", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis, using in-memory task ledger: %v", err)
		c.markDegraded("redis")
		_ = rdb.Close()
		return worker.NewMemoryLedger(cfg.Worker.LedgerTTL)
	}

	log.Printf("[INFO] Using Redis task ledger")
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return worker.NewRedisLedger(rdb, "medscribe:task:", cfg.Worker.LedgerTTL)
}

func (c *Container) newStore(ctx context.Context, cfg *config.Config) artifact.Store {
	if cfg.Storage.Driver == "gcs" {
		gcs, err := artifact.NewGCSStore(ctx, cfg.Storage.GCSBucket, cfg.Storage.CredentialsFile)
		if err == nil {
			log.Printf("[INFO] Using GCS artifact store (%s)", cfg.Storage.GCSBucket)
			c.closers = append(c.closers, func() { _ = gcs.Close() })
			return gcs
		}
		log.Printf("[WARN] Failed to initialize GCS store, using local disk: %v", err)
		c.markDegraded("gcs")
	}

	local, err := artifact.NewLocalStore(cfg.Storage.LocalRoot)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize local artifact store: %v", err)
	}
	return local
}

func (c *Container) markDegraded(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.degraded = append(c.degraded, name)
	sort.Strings(c.degraded)
}

// Degraded lists the optional backends running on a fallback.
func (c *Container) Degraded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.degraded))
	copy(out, c.degraded)
	return out
}

// Close releases infrastructure clients in reverse start order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
