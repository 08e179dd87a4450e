package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to runbookqa! Let's configure your knowledge base.")
	fmt.Println()

	cfg := DefaultConfig()

	providerPrompt := promptui.Select{
		Label: "Select completion provider",
		Items: []string{"groq", "openai", "openrouter", "anthropic", "google", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Model, cfg.ClassifierModel = ModelsFor(cfg.Provider)
	cfg.EmbeddingProvider = embeddingProviderFor(cfg.Provider)
	if cfg.EmbeddingProvider == ProviderOllama {
		cfg.EmbeddingModel = "nomic-embed-text"
	}

	modelPrompt := promptui.Prompt{
		Label:   "Answer model",
		Default: cfg.Model,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	domainPrompt := promptui.Prompt{
		Label:   "Knowledge base domain",
		Default: cfg.Domain,
	}
	if cfg.Domain, err = domainPrompt.Run(); err != nil {
		return nil, fmt.Errorf("domain: %w", err)
	}

	runbooksPrompt := promptui.Prompt{
		Label:   "Runbooks directory",
		Default: cfg.RunbooksDir,
	}
	if cfg.RunbooksDir, err = runbooksPrompt.Run(); err != nil {
		return nil, fmt.Errorf("runbooks dir: %w", err)
	}

	classifierPrompt := promptui.Select{
		Label: "Intent classifier",
		Items: []string{
			"keyword: curated keyword lists, model only as fallback",
			"llm:     ask the classifier model on every turn",
		},
	}
	idx, _, err := classifierPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("classifier selection: %w", err)
	}
	cfg.Chat.Classifier = []ClassifierStrategy{ClassifierKeyword, ClassifierLLM}[idx]

	includePrompt := promptui.Prompt{
		Label:   "Document include patterns (comma-separated globs)",
		Default: strings.Join(DefaultIncludes, ","),
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	if include := splitAndTrim(includeStr); len(include) > 0 {
		cfg.Ingest.Include = include
	}

	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment (or .env) before running runbookqa.\n", envVar)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// completion provider. Only Ollama runs its own embeddings.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderOllama {
		return ProviderOllama
	}
	return ProviderOpenAI
}

func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
