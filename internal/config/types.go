package config

// ProviderType identifies a completion or embedding provider.
type ProviderType string

const (
	ProviderGroq       ProviderType = "groq"
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderGoogle     ProviderType = "google"
	ProviderOllama     ProviderType = "ollama"
)

// ClassifierStrategy selects how query intent is decided.
type ClassifierStrategy string

const (
	// ClassifierKeyword scores the query against curated keyword lists and
	// only asks the model when nothing matches.
	ClassifierKeyword ClassifierStrategy = "keyword"
	// ClassifierLLM always asks the model.
	ClassifierLLM ClassifierStrategy = "llm"
)

// Config is the top-level runbookqa configuration, corresponding to .runbookqa.yml.
type Config struct {
	Provider          ProviderType    `yaml:"provider" koanf:"provider"`
	Model             string          `yaml:"model" koanf:"model"`
	ClassifierModel   string          `yaml:"classifier_model" koanf:"classifier_model"`
	EmbeddingProvider ProviderType    `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string          `yaml:"embedding_model" koanf:"embedding_model"`
	Domain            string          `yaml:"domain" koanf:"domain"`
	DataDir           string          `yaml:"data_dir" koanf:"data_dir"`
	RunbooksDir       string          `yaml:"runbooks_dir" koanf:"runbooks_dir"`
	Retrieval         RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	Chat              ChatConfig      `yaml:"chat" koanf:"chat"`
	Ingest            IngestConfig    `yaml:"ingest" koanf:"ingest"`
	Server            ServerConfig    `yaml:"server" koanf:"server"`
	RateLimitRPM      int             `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	LogLevel          string          `yaml:"log_level" koanf:"log_level"`
}

// RetrievalConfig controls vector lookups.
type RetrievalConfig struct {
	TopK           int     `yaml:"top_k" koanf:"top_k"`
	MinSimilarity  float64 `yaml:"min_similarity" koanf:"min_similarity"`
	QueryPrefix    string  `yaml:"query_prefix" koanf:"query_prefix"`
	DocumentPrefix string  `yaml:"document_prefix" koanf:"document_prefix"`
}

// ChatConfig controls turn processing.
type ChatConfig struct {
	Classifier     ClassifierStrategy `yaml:"classifier" koanf:"classifier"`
	CondenseWindow int                `yaml:"condense_window" koanf:"condense_window"`
	HistoryWindow  int                `yaml:"history_window" koanf:"history_window"`
	// EnrichBelow is the client history length under which persisted turns
	// are merged in.
	EnrichBelow int `yaml:"enrich_below" koanf:"enrich_below"`
	EnrichLimit int `yaml:"enrich_limit" koanf:"enrich_limit"`
}

// IngestConfig controls document chunking.
type IngestConfig struct {
	ChunkSize    int      `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	Include      []string `yaml:"include" koanf:"include"`
	Exclude      []string `yaml:"exclude" koanf:"exclude"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port                  int  `yaml:"port" koanf:"port"`
	AllowAllOrigins       bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	RequestTimeoutSeconds int  `yaml:"request_timeout_seconds" koanf:"request_timeout_seconds"`
}
