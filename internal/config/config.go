package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Auth       AuthConfig
	Ai         AIConfig
	Rag        RagConfig
	Worker     WorkerConfig
	DocumentAI DocumentAIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WorkerLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	BodyLimitMB        int
}

type DatabaseConfig struct {
	Connection string
}

type StorageConfig struct {
	Driver          string // "local" or "gcs"
	LocalRoot       string
	GCSBucket       string
	CredentialsFile string
}

type AuthConfig struct {
	Mode      string // "header" or "jwt"
	JwtSecret string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "gemini"
	OllamaBaseURL     string
	OllamaModel       string
	GeminiApiKey      string
	LLMProvider       string // "ollama" or "huggingface"
	LLMModel          string
	HuggingFaceApiKey string
	CapabilityTimeout time.Duration
}

// RagConfig holds every tuning knob of the conversational pipeline.
type RagConfig struct {
	CollectionName      string
	EmbeddingDimension  int
	MaxSummaries        int
	HistoryWindow       int
	DefaultTopK         int
	MemoryTopK          int
	CleanupScanLimit    int
	EmergencyKeywords   []string
	ListReportPatterns  []string
	RecencyTerms        []string
	AggregateTerms      []string
	IntentTaxonomy      string // "three_label" or "two_label"
	ToneStepEnabled     bool
	TranslationLanguage string // empty disables the translation stage
	FaithfulnessEnabled bool
	TruncateChunkChars  int
}

type WorkerConfig struct {
	TopicName    string
	LedgerDriver string // "redis" or "memory"
	LedgerTTL    time.Duration
}

type DocumentAIConfig struct {
	ProjectID   string
	Location    string
	ProcessorID string
}

func (d DocumentAIConfig) Enabled() bool {
	return d.ProjectID != "" && d.ProcessorID != ""
}

var (
	DefaultEmergencyKeywords = []string{"chest pain", "can't breathe", "cannot breathe", "difficulty breathing"}
	DefaultListReportPatterns = []string{
		`\blist\b`, `\bshow\b`, `what reports`, `my reports`, `past reports`,
		`uploaded reports`, `all cases`, `my cases`, `show files`,
	}
	DefaultRecencyTerms   = []string{"last", "latest", "recent", "newest"}
	DefaultAggregateTerms = []string{"all", "history", "compare", "trend", "previous", "past"}
)

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WorkerLogFilePath:  getEnv("WORKER_LOG_FILE_PATH", "logs/worker.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			BodyLimitMB:        getEnvAsInt("MAX_UPLOAD_MB", 25),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Storage: StorageConfig{
			Driver:          getEnv("STORAGE_DRIVER", "local"),
			LocalRoot:       getEnv("STORAGE_LOCAL_ROOT", "storage"),
			GCSBucket:       getEnv("GCS_BUCKET_NAME", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		},
		Auth: AuthConfig{
			Mode:      getEnv("AUTH_MODE", "header"),
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			GeminiApiKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			HuggingFaceApiKey: getEnv("HUGGINGFACE_API_KEY", ""),
			CapabilityTimeout: getEnvAsDuration("CAPABILITY_TIMEOUT", 60*time.Second),
		},
		Rag: RagConfig{
			CollectionName:      getEnv("VECTOR_COLLECTION", "medscribe_cases"),
			EmbeddingDimension:  getEnvAsInt("EMBEDDING_DIMENSION", 768),
			MaxSummaries:        getEnvAsInt("LTM_MAX_SUMMARIES", 20),
			HistoryWindow:       getEnvAsInt("STM_HISTORY_WINDOW", 3),
			DefaultTopK:         getEnvAsInt("RAG_DEFAULT_TOP_K", 5),
			MemoryTopK:          getEnvAsInt("LTM_TOP_K", 3),
			CleanupScanLimit:    getEnvAsInt("LTM_CLEANUP_SCAN_LIMIT", 1000),
			EmergencyKeywords:   getEnvAsList("EMERGENCY_KEYWORDS", DefaultEmergencyKeywords),
			ListReportPatterns:  getEnvAsList("LIST_REPORT_PATTERNS", DefaultListReportPatterns),
			RecencyTerms:        getEnvAsList("RESOLVER_RECENCY_TERMS", DefaultRecencyTerms),
			AggregateTerms:      getEnvAsList("RESOLVER_AGGREGATE_TERMS", DefaultAggregateTerms),
			IntentTaxonomy:      getEnv("INTENT_TAXONOMY", "three_label"),
			ToneStepEnabled:     getEnvAsBool("RAG_TONE_STEP_ENABLED", true),
			TranslationLanguage: getEnv("RAG_TRANSLATION_LANGUAGE", ""),
			FaithfulnessEnabled: getEnvAsBool("RAG_FAITHFULNESS_ENABLED", true),
			TruncateChunkChars:  getEnvAsInt("INDEX_CHUNK_CHARS", 1500),
		},
		Worker: WorkerConfig{
			TopicName:    getEnv("WORKER_TOPIC_NAME", "MEDSCRIBE_TASKS"),
			LedgerDriver: getEnv("WORKER_LEDGER_DRIVER", "redis"),
			LedgerTTL:    getEnvAsDuration("WORKER_LEDGER_TTL", 24*time.Hour),
		},
		DocumentAI: DocumentAIConfig{
			ProjectID:   getEnv("DOCUMENTAI_PROJECT_ID", ""),
			Location:    getEnv("DOCUMENTAI_LOCATION", "us"),
			ProcessorID: getEnv("DOCUMENTAI_PROCESSOR_ID", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value. Blank entries are dropped.
func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strings.TrimSpace(strValue) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
