package config

import "os"

// DefaultGistURL is the gist that publishes the TU Wien lecture summaries.
const DefaultGistURL = "https://api.github.com/gists/7d60a4793305ee49b7ea6e05f07ff7f9"

// DefaultSectionLink points each section heading at its Opencast recording.
const DefaultSectionLink = "https://tuwel.tuwien.ac.at/mod/opencast/view.php?id={lecture}&e={section}"

// DefaultCourses maps TUWEL course ids to display names.
var DefaultCourses = map[string]string{
	"2657588": "Grundzüge digitaler Systeme",
	"2658050": "Einführung in die Programmierung 1",
	"2673357": "Algebra und Diskrete Mathematik",
	"2761974": "Denkweisen der Informatik",
	"2765061": "Mathematisches Arbeiten",
}

// defaultEmbeddingModels is the model used per search provider when none is configured.
var defaultEmbeddingModels = map[SearchProvider]string{
	SearchOpenAI: "text-embedding-3-small",
	SearchOllama: "nomic-embed-text",
	SearchGoogle: "gemini-embedding-001",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	courses := make(map[string]string, len(DefaultCourses))
	for id, name := range DefaultCourses {
		courses[id] = name
	}
	return &Config{
		Source: SourceConfig{
			Kind:           SourceGist,
			URL:            DefaultGistURL,
			GistFile:       "summary_db.json",
			Encoding:       EncodingLZURI,
			TokenEnv:       "GITHUB_TOKEN",
			TimeoutSeconds: 30,
		},
		CachePath:   ".lecturedoc/cache.db",
		Courses:     courses,
		SectionLink: DefaultSectionLink,
		OutputDir:   "site",
		Server: ServerConfig{
			Port: 8080,
		},
		Search: SearchConfig{
			Provider: SearchNone,
			IndexDir: ".lecturedoc/search",
		},
	}
}

// defaultAPIKeyEnvs names the environment variable holding each provider's key.
var defaultAPIKeyEnvs = map[SearchProvider]string{
	SearchOpenAI: "OPENAI_API_KEY",
	SearchGoogle: "GOOGLE_API_KEY",
}

// APIKey reads the embedding provider key from the environment.
func (s SearchConfig) APIKey() string {
	name := s.APIKeyEnv
	if name == "" {
		name = defaultAPIKeyEnvs[s.Provider]
	}
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// Enabled reports whether a search provider is configured.
func (s SearchConfig) Enabled() bool {
	return s.Provider != "" && s.Provider != SearchNone
}

// EmbeddingModel returns the configured model, or the provider default.
func (s SearchConfig) EmbeddingModel() string {
	if s.Model != "" {
		return s.Model
	}
	return defaultEmbeddingModels[s.Provider]
}
