package config

// SourceKind selects where the lecture catalog is fetched from.
type SourceKind string

const (
	SourceGist SourceKind = "gist"
	SourceURL  SourceKind = "url"
	SourceFile SourceKind = "file"
)

// Encoding describes how the catalog document is packed at the source.
type Encoding string

const (
	EncodingLZURI Encoding = "lz-uri"
	EncodingPlain Encoding = "plain"
)

// SearchProvider identifies the embedding backend used for semantic search.
type SearchProvider string

const (
	SearchNone   SearchProvider = "none"
	SearchOpenAI SearchProvider = "openai"
	SearchOllama SearchProvider = "ollama"
	SearchGoogle SearchProvider = "google"
)

// Config is the top-level lecturedoc configuration, corresponding to .lecturedoc.yml.
type Config struct {
	Source      SourceConfig      `yaml:"source" koanf:"source"`
	CachePath   string            `yaml:"cache_path" koanf:"cache_path"`
	Courses     map[string]string `yaml:"courses" koanf:"courses"`
	SectionLink string            `yaml:"section_link" koanf:"section_link"`
	Include     []string          `yaml:"include" koanf:"include"`
	Exclude     []string          `yaml:"exclude" koanf:"exclude"`
	OutputDir   string            `yaml:"output_dir" koanf:"output_dir"`
	Server      ServerConfig      `yaml:"server" koanf:"server"`
	Search      SearchConfig      `yaml:"search" koanf:"search"`
}

// SourceConfig locates the published catalog.
type SourceConfig struct {
	Kind           SourceKind `yaml:"kind" koanf:"kind"`
	URL            string     `yaml:"url" koanf:"url"`
	GistFile       string     `yaml:"gist_file" koanf:"gist_file"`
	Encoding       Encoding   `yaml:"encoding" koanf:"encoding"`
	TokenEnv       string     `yaml:"token_env" koanf:"token_env"`
	TimeoutSeconds int        `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// ServerConfig holds settings for the local viewer.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	PollSeconds     int  `yaml:"poll_seconds" koanf:"poll_seconds"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// SearchConfig holds semantic search settings.
type SearchConfig struct {
	Provider  SearchProvider `yaml:"provider" koanf:"provider"`
	Model     string         `yaml:"model" koanf:"model"`
	OllamaURL string         `yaml:"ollama_url" koanf:"ollama_url"`
	APIKeyEnv string         `yaml:"api_key_env" koanf:"api_key_env"`
	IndexDir  string         `yaml:"index_dir" koanf:"index_dir"`
}
