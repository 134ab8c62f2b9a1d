package parser

import (
	"sync"
)

// Registry maps file paths to extractors. Lookups pick the first registered
// extractor that accepts the path.
type Registry struct {
	mu         sync.RWMutex
	extractors []Extractor
}

func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// DefaultRegistry registers every built-in extractor allowed by
// opts.Languages.
func DefaultRegistry(opts Options) *Registry {
	all := []Extractor{
		NewJavaScriptExtractor(opts),
		NewTypeScriptExtractor(opts),
		NewCppExtractor(opts),
		NewPythonExtractor(opts),
		NewHTMLExtractor(opts),
	}
	r := NewRegistry()
	for _, e := range all {
		if len(opts.Languages) == 0 || containsLanguage(opts.Languages, e.Language()) {
			r.Register(e)
		}
	}
	return r
}

func containsLanguage(list []Language, lang Language) bool {
	for _, l := range list {
		if l == lang {
			return true
		}
	}
	return false
}

func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors = append(r.extractors, e)
}

// Lookup returns the extractor for path.
func (r *Registry) Lookup(path string) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.extractors {
		if e.CanParse(path) {
			return e, true
		}
	}
	return nil, false
}

func (r *Registry) CanParse(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

// SupportedExtensions lists every registered extension once, in
// registration order.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var exts []string
	for _, e := range r.extractors {
		for _, ext := range e.Extensions() {
			if !seen[ext] {
				seen[ext] = true
				exts = append(exts, ext)
			}
		}
	}
	return exts
}

func (r *Registry) Languages() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]Language, 0, len(r.extractors))
	for _, e := range r.extractors {
		langs = append(langs, e.Language())
	}
	return langs
}

// Extractors returns a snapshot of the registered extractors.
func (r *Registry) Extractors() []Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Extractor(nil), r.extractors...)
}
