package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/heefoo/loomgraph/internal/syntax"
	"github.com/sirupsen/logrus"
	sitter "github.com/smacker/go-tree-sitter"
)

// Extractor turns one source file into a ParseResult.
type Extractor interface {
	Language() Language
	Extensions() []string
	CanParse(path string) bool
	// ParseFile extracts path. A nil source means the file is read from
	// disk. ParseFile never fails: problems are reported in Errors.
	ParseFile(path string, source []byte) *ParseResult
}

type MethodCallMode string

const (
	// MethodCallsAuto tracks method calls for JavaScript and TypeScript only.
	MethodCallsAuto MethodCallMode = "auto"
	MethodCallsAll  MethodCallMode = "all"
	MethodCallsNone MethodCallMode = "none"
)

const DefaultMaxDepth = 2048

// Options configure every extractor. The zero value is usable.
type Options struct {
	MethodCalls MethodCallMode
	// MaxDepth bounds how deep walks descend below the root.
	MaxDepth int
	OmitCode bool
	// Languages restricts DefaultRegistry. Empty means all.
	Languages []Language
	Logger    logrus.FieldLogger
}

func DefaultOptions() Options {
	return Options{MethodCalls: MethodCallsAuto, MaxDepth: DefaultMaxDepth}
}

func (o Options) withDefaults() Options {
	if o.MethodCalls == "" {
		o.MethodCalls = MethodCallsAuto
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

func (o Options) trackMethods(lang Language) bool {
	switch o.MethodCalls {
	case MethodCallsAll:
		return true
	case MethodCallsNone:
		return false
	}
	return lang == LangJavaScript || lang == LangTypeScript
}

// treeExtractor is the shared ParseFile pipeline: read, parse, walk.
type treeExtractor struct {
	lang       Language
	extensions []string
	entryFiles []string
	opts       Options
	grammar    func(path string) *sitter.Language
	extract    func(x *extraction)
}

func (e *treeExtractor) Language() Language { return e.lang }

func (e *treeExtractor) Extensions() []string {
	return append([]string(nil), e.extensions...)
}

func (e *treeExtractor) CanParse(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, x := range e.extensions {
		if ext == x {
			return true
		}
	}
	return false
}

func (e *treeExtractor) ParseFile(path string, source []byte) (result *ParseResult) {
	result = newParseResult(path, e.lang)

	if source == nil {
		src, err := ReadSource(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to read %s: %v", path, err))
			return result
		}
		source = src
	}
	source = stripBOM(source)

	tree, err := syntax.Parse(context.Background(), e.grammar(path), source)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Parse error in %s: %v", path, err))
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			e.opts.Logger.WithField("file", path).Errorf("extraction panicked: %v", r)
			result = newParseResult(path, e.lang)
			result.Errors = append(result.Errors, fmt.Sprintf("Parse error in %s: %v", path, r))
		}
	}()

	x := &extraction{
		tree:   tree,
		path:   path,
		module: ModuleName(path, e.entryFiles),
		lang:   e.lang,
		opts:   e.opts,
		result: result,
		log:    e.opts.Logger.WithFields(logrus.Fields{"file": path, "language": e.lang}),
	}
	e.extract(x)
	return result
}

// extraction is the state of one ParseFile call.
type extraction struct {
	tree   *syntax.Tree
	path   string
	module string
	lang   Language
	opts   Options
	result *ParseResult
	log    logrus.FieldLogger
}

func (x *extraction) text(n syntax.NodeID) string { return x.tree.Text(n) }

func (x *extraction) code(n syntax.NodeID) string {
	if x.opts.OmitCode {
		return ""
	}
	return x.tree.Text(n)
}

// entity builds an entity spanning node n.
func (x *extraction) entity(n syntax.NodeID, name string, kind EntityKind, intent string, meta Metadata) Entity {
	return Entity{
		Name:      name,
		Kind:      kind,
		File:      x.path,
		StartLine: x.tree.StartLine(n),
		EndLine:   x.tree.EndLine(n),
		Intent:    intent,
		Code:      x.code(n),
		Metadata:  meta,
	}
}

func (x *extraction) emit(e Entity) {
	x.result.addEntity(e)
}

// emitModule records the module entity. It must be the first entity.
func (x *extraction) emitModule(intent string) {
	root := x.tree.Root()
	x.emit(Entity{
		Name:      x.module,
		Kind:      KindModule,
		File:      x.path,
		StartLine: 1,
		EndLine:   x.tree.EndLine(root),
		Intent:    intent,
		Metadata: Metadata{
			"file_path": x.path,
			"language":  string(x.lang),
		},
	})
}

// container is the qualified name that contains declarations made in scope.
func (x *extraction) container(scope Scope) string {
	if scope.Owner() != "" {
		return scope.Owner()
	}
	return x.module
}

func (x *extraction) resolver(style callStyle) *callResolver {
	return &callResolver{style: style, methods: x.opts.trackMethods(x.lang), x: x}
}

// frame is one pending node of a declaration walk.
type frame struct {
	node  syntax.NodeID
	scope Scope
	depth int
}

// worklist is the explicit stack behind every declaration walk. Frames
// beyond the depth bound are dropped.
type worklist struct {
	frames   []frame
	maxDepth int
	x        *extraction
}

func (x *extraction) worklist() *worklist {
	return &worklist{maxDepth: x.opts.MaxDepth, x: x}
}

func (w *worklist) push(n syntax.NodeID, scope Scope, depth int) {
	if depth > w.maxDepth {
		w.x.log.WithField("line", w.x.tree.StartLine(n)).Debug("declaration walk reached depth limit")
		return
	}
	w.frames = append(w.frames, frame{node: n, scope: scope, depth: depth})
}

// pushChildren schedules the children of n so they pop in source order.
func (w *worklist) pushChildren(n syntax.NodeID, scope Scope, depth int) {
	children := w.x.tree.Children(n)
	for i := len(children) - 1; i >= 0; i-- {
		w.push(children[i], scope, depth+1)
	}
}

func (w *worklist) pop() (frame, bool) {
	if len(w.frames) == 0 {
		return frame{}, false
	}
	f := w.frames[len(w.frames)-1]
	w.frames = w.frames[:len(w.frames)-1]
	return f, true
}
