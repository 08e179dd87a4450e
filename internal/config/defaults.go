package config

// providerModels maps each provider to its default chat and classifier models.
var providerModels = map[ProviderType]struct {
	Model      string
	Classifier string
}{
	ProviderGroq:       {Model: "llama-3.3-70b-versatile", Classifier: "llama-3.1-8b-instant"},
	ProviderOpenAI:     {Model: "gpt-4o", Classifier: "gpt-4o-mini"},
	ProviderOpenRouter: {Model: "meta-llama/llama-3.3-70b-instruct", Classifier: "meta-llama/llama-3.1-8b-instruct"},
	ProviderAnthropic:  {Model: "claude-sonnet-4-5-20250929", Classifier: "claude-haiku-4-5-20251001"},
	ProviderGoogle:     {Model: "gemini-2.5-flash", Classifier: "gemini-2.5-flash-lite"},
	ProviderOllama:     {Model: "llama3", Classifier: "llama3"},
}

// DefaultDomain names the knowledge base in prompts and refusal messages.
const DefaultDomain = "SAP Treasury and Risk Management (TRM)"

// DefaultIncludes are the document globs picked up by ingest.
var DefaultIncludes = []string{"**/*.txt", "**/*.md"}

// DefaultExcludes are glob patterns skipped by ingest.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"**/README.md",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGroq,
		Model:             "llama-3.3-70b-versatile",
		ClassifierModel:   "llama-3.1-8b-instant",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		Domain:            DefaultDomain,
		DataDir:           "data",
		RunbooksDir:       "runbooks",
		Retrieval: RetrievalConfig{
			TopK:          10,
			MinSimilarity: 0.55,
		},
		Chat: ChatConfig{
			Classifier:     ClassifierKeyword,
			CondenseWindow: 10,
			HistoryWindow:  15,
			EnrichBelow:    5,
			EnrichLimit:    20,
		},
		Ingest: IngestConfig{
			ChunkSize:    500,
			ChunkOverlap: 50,
			Include:      append([]string(nil), DefaultIncludes...),
			Exclude:      append([]string(nil), DefaultExcludes...),
		},
		Server: ServerConfig{
			Port:                  8000,
			AllowAllOrigins:       true,
			RequestTimeoutSeconds: 60,
		},
		LogLevel: "info",
	}
}

// ModelsFor returns the default chat and classifier models for a provider.
// Unknown providers fall back to the Groq models.
func ModelsFor(p ProviderType) (model, classifier string) {
	if m, ok := providerModels[p]; ok {
		return m.Model, m.Classifier
	}
	m := providerModels[ProviderGroq]
	return m.Model, m.Classifier
}
