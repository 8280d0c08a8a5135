package config

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to lecturedoc! Let's configure where your lecture notes come from.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Source kind.
	kindPrompt := promptui.Select{
		Label: "Where is the lecture catalog published",
		Items: []string{
			"gist - a GitHub gist file (GitHub API)",
			"url  - a raw JSON or LZ-String blob over HTTP",
			"file - a local file",
		},
	}
	kindIdx, _, err := kindPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("source selection: %w", err)
	}
	kinds := []SourceKind{SourceGist, SourceURL, SourceFile}
	cfg.Source.Kind = kinds[kindIdx]

	// 2. Location.
	defaultURL := ""
	if cfg.Source.Kind == SourceGist {
		defaultURL = DefaultGistURL
	}
	urlPrompt := promptui.Prompt{
		Label:   "Source URL or path",
		Default: defaultURL,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("a location is required")
			}
			return nil
		},
	}
	location, err := urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("source location: %w", err)
	}
	cfg.Source.URL = strings.TrimSpace(location)

	// 3. Gist file.
	if cfg.Source.Kind == SourceGist {
		filePrompt := promptui.Prompt{
			Label:   "File inside the gist",
			Default: cfg.Source.GistFile,
		}
		gistFile, err := filePrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("gist file: %w", err)
		}
		cfg.Source.GistFile = strings.TrimSpace(gistFile)
	}

	// 4. Encoding.
	encPrompt := promptui.Select{
		Label: "How is the document encoded",
		Items: []string{string(EncodingLZURI), string(EncodingPlain)},
	}
	_, encStr, err := encPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("encoding selection: %w", err)
	}
	cfg.Source.Encoding = Encoding(encStr)

	// 5. Cache location.
	cachePrompt := promptui.Prompt{
		Label:   "Local cache database",
		Default: cfg.CachePath,
	}
	cachePath, err := cachePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("cache path: %w", err)
	}
	cfg.CachePath = strings.TrimSpace(cachePath)

	// 6. Lecture filter.
	includePrompt := promptui.Prompt{
		Label:   "Lecture ids to include (comma-separated globs, blank for all)",
		Default: "",
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	cfg.Include = splitAndTrim(includeStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	if cfg.Source.Kind == SourceGist {
		fmt.Printf("Set %s to raise the GitHub API rate limit (optional).\n", cfg.Source.TokenEnv)
	}
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
