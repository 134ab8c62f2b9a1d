package parser

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samples holds one representative file per language.
var samples = map[string]string{
	"app.js": `import { a } from './a';
/** Entry. */
export class App extends Base {
  start() { this.run(); document.getElementById('root'); }
  stop = () => { clearInterval(this.timer); };
}
const make = (x, ...rest) => new App(x);
`,
	"api.ts": `interface Shape { area(): number; }
export abstract class Square implements Shape {
  constructor(private side: number) { super(); }
  area(): number { return this.side * this.side; }
}
`,
	"src/shapes.cpp": shapesSource,
	"zoo/animals.py": animalsSource,
	"web/page.html":  pageSource,
}

func TestResultInvariants(t *testing.T) {
	reg := DefaultRegistry(DefaultOptions())
	for path, src := range samples {
		t.Run(path, func(t *testing.T) {
			result := reg.ParseFile(path, []byte(src))
			require.Empty(t, result.Errors)

			// The module entity comes first and starts at line 1.
			require.NotEmpty(t, result.Entities)
			assert.Equal(t, KindModule, result.Entities[0].Kind)
			assert.Equal(t, 1, result.Entities[0].StartLine)
			assert.Len(t, result.EntitiesOfKind(KindModule), 1)

			memberOf := map[string]int{}
			for _, rel := range result.RelationshipsOfKind(RelMemberOf) {
				memberOf[rel.From]++
			}
			methods := map[string]int{}
			for _, e := range result.Entities {
				assert.Equal(t, path, e.File)
				assert.LessOrEqual(t, e.StartLine, e.EndLine, e.Name)
				assert.GreaterOrEqual(t, e.StartLine, 1, e.Name)
				if e.Kind == KindMethod {
					methods[e.Name]++
				}
			}
			// One member_of edge per emitted method entity.
			assert.Equal(t, methods, nonEmpty(memberOf))

			// Every declaration other than a method has exactly one
			// contains edge, from the module when it is top level.
			module := result.Module().Name
			containedBy := map[string][]string{}
			for _, rel := range result.RelationshipsOfKind(RelContains) {
				containedBy[rel.To] = append(containedBy[rel.To], rel.From)
			}
			topLevel := 0
			for _, e := range result.Entities {
				if e.Kind == KindModule || e.Kind == KindMethod {
					continue
				}
				require.Len(t, containedBy[e.Name], 1, e.Name)
				if e.Kind == KindDOMElement || !strings.Contains(strings.TrimPrefix(e.Name, module+"."), ".") {
					assert.Equal(t, module, containedBy[e.Name][0], e.Name)
					topLevel++
				}
			}
			assert.Positive(t, topLevel)

			for _, rel := range result.Relationships {
				assert.NotEmpty(t, rel.From)
				assert.NotEmpty(t, rel.To)
			}
		})
	}
}

func nonEmpty(m map[string]int) map[string]int {
	if len(m) == 0 {
		return map[string]int{}
	}
	return m
}

func TestParseIsDeterministic(t *testing.T) {
	reg := DefaultRegistry(DefaultOptions())
	for path, src := range samples {
		first, err := json.Marshal(reg.ParseFile(path, []byte(src)))
		require.NoError(t, err)
		second, err := json.Marshal(reg.ParseFile(path, []byte(src)))
		require.NoError(t, err)
		assert.JSONEq(t, string(first), string(second), path)
	}
}

func TestEmptyFiles(t *testing.T) {
	reg := DefaultRegistry(DefaultOptions())
	for _, path := range []string{"e.js", "e.ts", "e.cpp", "e.py", "e.html"} {
		result := reg.ParseFile(path, []byte(""))
		require.Len(t, result.Entities, 1, path)
		assert.Equal(t, "e", result.Entities[0].Name)
		assert.Empty(t, result.Relationships, path)
		assert.Empty(t, result.Errors, path)
	}
}

func TestSignatureCountsMatchParameters(t *testing.T) {
	reg := DefaultRegistry(DefaultOptions())
	want := map[string]int{
		"app.App.start":        0,
		"app.App.stop":         0,
		"app.make":             2,
		"api.Square.area":      0,
		"shapes.geo::helper":   2,
		"animals.main":         4,
		"animals.Animal.speak": 1,
	}
	found := 0
	for path, src := range samples {
		for _, e := range reg.ParseFile(path, []byte(src)).Entities {
			n, ok := want[e.Name]
			if !ok {
				continue
			}
			found++
			sig, _ := e.Metadata["signature"].(string)
			assert.Equal(t, n, ParameterCount(sig), e.Name)
		}
	}
	assert.Equal(t, len(want), found)
}

func TestJSONFieldNames(t *testing.T) {
	result := parseJS(t, "app.js", "function f() {}\n")
	data, err := json.Marshal(result.Entities[1])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "app.f", decoded["qualified_name"])
	assert.Equal(t, "function", decoded["kind"])
	assert.Contains(t, decoded, "start_line")
	assert.Contains(t, decoded, "end_line")
}
