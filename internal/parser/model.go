package parser

type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangCPP        Language = "cpp"
	LangPython     Language = "python"
	LangHTML       Language = "html"
)

type EntityKind string

const (
	KindModule     EntityKind = "module"
	KindClass      EntityKind = "class"
	KindInterface  EntityKind = "interface"
	KindFunction   EntityKind = "function"
	KindMethod     EntityKind = "method"
	KindType       EntityKind = "type"
	KindEnum       EntityKind = "enum"
	KindDOMElement EntityKind = "dom_element"
)

type RelationKind string

const (
	RelContains     RelationKind = "contains"
	RelMemberOf     RelationKind = "member_of"
	RelImports      RelationKind = "imports"
	RelExports      RelationKind = "exports"
	RelReExports    RelationKind = "re_exports"
	RelCalls        RelationKind = "calls"
	RelMethodCall   RelationKind = "method_call"
	RelDOMReference RelationKind = "dom_reference"
)

// Metadata is the open, kind-specific attribute map of an entity or
// relationship.
type Metadata map[string]any

// Entity is one extracted declaration.
type Entity struct {
	Name      string     `json:"qualified_name" yaml:"qualified_name"`
	Kind      EntityKind `json:"kind" yaml:"kind"`
	File      string     `json:"file" yaml:"file"`
	StartLine int        `json:"start_line" yaml:"start_line"`
	EndLine   int        `json:"end_line" yaml:"end_line"`
	Intent    string     `json:"intent,omitempty" yaml:"intent,omitempty"`
	Code      string     `json:"code,omitempty" yaml:"code,omitempty"`
	Metadata  Metadata   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Relationship is a directed, typed, unresolved edge. To may be a bare
// symbol rather than a qualified name.
type Relationship struct {
	From     string       `json:"from" yaml:"from"`
	To       string       `json:"to" yaml:"to"`
	Kind     RelationKind `json:"kind" yaml:"kind"`
	Metadata Metadata     `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ImportSpecifier is one imported binding of an import statement.
type ImportSpecifier struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"` // default, namespace or named
	Original string `json:"original,omitempty" yaml:"original,omitempty"`
}

const (
	SpecDefault   = "default"
	SpecNamespace = "namespace"
	SpecNamed     = "named"
)

// ParseResult is everything extracted from one file. Each call to ParseFile
// returns a fresh value owned by the caller.
type ParseResult struct {
	File          string         `json:"file" yaml:"file"`
	Language      Language       `json:"language" yaml:"language"`
	Entities      []Entity       `json:"entities" yaml:"entities"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
	Errors        []string       `json:"errors" yaml:"errors"`
}

func newParseResult(path string, lang Language) *ParseResult {
	return &ParseResult{
		File:          path,
		Language:      lang,
		Entities:      []Entity{},
		Relationships: []Relationship{},
		Errors:        []string{},
	}
}

// Module returns the module entity, or nil when extraction failed.
func (r *ParseResult) Module() *Entity {
	if len(r.Entities) == 0 || r.Entities[0].Kind != KindModule {
		return nil
	}
	return &r.Entities[0]
}

// Entity returns the first entity with the given qualified name.
func (r *ParseResult) Entity(name string) *Entity {
	for i := range r.Entities {
		if r.Entities[i].Name == name {
			return &r.Entities[i]
		}
	}
	return nil
}

func (r *ParseResult) EntitiesOfKind(kind EntityKind) []Entity {
	var out []Entity
	for _, e := range r.Entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *ParseResult) RelationshipsOfKind(kind RelationKind) []Relationship {
	var out []Relationship
	for _, rel := range r.Relationships {
		if rel.Kind == kind {
			out = append(out, rel)
		}
	}
	return out
}

// HasRelationship reports whether (from, to, kind) was emitted.
func (r *ParseResult) HasRelationship(from, to string, kind RelationKind) bool {
	for _, rel := range r.Relationships {
		if rel.From == from && rel.To == to && rel.Kind == kind {
			return true
		}
	}
	return false
}

// Failed reports whether the file could not be read or parsed.
func (r *ParseResult) Failed() bool {
	return len(r.Entities) == 0 && len(r.Errors) > 0
}

func (r *ParseResult) addEntity(e Entity) {
	r.Entities = append(r.Entities, e)
}

func (r *ParseResult) relate(from, to string, kind RelationKind, meta Metadata) {
	r.Relationships = append(r.Relationships, Relationship{From: from, To: to, Kind: kind, Metadata: meta})
}
