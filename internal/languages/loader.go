package languages

import (
	"encoding/json"
	"fmt"
	"os"

	"gitlab.com/judgecore-2025.net/internal/static/errs"
)

// Language describes one supported toolchain. CompileCmd may contain the
// placeholders {src} and {bin}, replaced per compilation.
type Language struct {
	Name              string   `json:"name"`
	SourceFile        string   `json:"sourceFile"`
	CompileCmd        []string `json:"compileCmd"`
	CompileTimeoutSec int      `json:"compileTimeoutSec"`
}

// Registry holds the supported languages keyed by name
type Registry struct {
	byName map[string]Language
}

// Load reads a registry from a JSON file. An empty path returns the built-in
// defaults.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read languages file: %w", err)
	}
	var list []Language
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse languages file: %w", err)
	}
	r := &Registry{byName: make(map[string]Language, len(list))}
	for _, l := range list {
		r.byName[l.Name] = l
	}
	return r, nil
}

// Defaults returns the registry shipped with the engine
func Defaults() *Registry {
	return &Registry{byName: map[string]Language{
		"c": {
			Name:       "c",
			SourceFile: "main.c",
			CompileCmd: []string{"gcc", "-O2", "-std=c11", "-static", "-o", "{bin}", "{src}"},
		},
		"cpp": {
			Name:       "cpp",
			SourceFile: "main.cpp",
			CompileCmd: []string{"g++", "-O2", "-std=c++17", "-static", "-o", "{bin}", "{src}"},
		},
	}}
}

// Get returns the language with the given name
func (r *Registry) Get(name string) (Language, error) {
	l, ok := r.byName[name]
	if !ok {
		return Language{}, fmt.Errorf("%w: %s", errs.ErrUnsupportedLanguage, name)
	}
	return l, nil
}
