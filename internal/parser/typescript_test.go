package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTS(t *testing.T, path, src string) *ParseResult {
	t.Helper()
	result := NewTypeScriptExtractor(DefaultOptions()).ParseFile(path, []byte(src))
	require.Empty(t, result.Errors)
	require.NotNil(t, result.Module())
	return result
}

func TestTypeScriptInterface(t *testing.T) {
	src := `/** A stored user. */
export interface User {
  id: number;
  name: string;
  greet(): string;
}
`
	result := parseTS(t, "models.ts", src)

	user := result.Entity("models.User")
	require.NotNil(t, user)
	assert.Equal(t, KindInterface, user.Kind)
	assert.Equal(t, "A stored user.", user.Intent)
	assert.Equal(t, []string{"id", "name"}, user.Metadata["properties"])
	assert.Equal(t, []string{"greet"}, user.Metadata["methods"])
	assert.Equal(t, true, user.Metadata["exported"])

	assert.True(t, result.HasRelationship("models", "models.User", RelContains))
	assert.True(t, result.HasRelationship("models", "models.User", RelExports))
}

func TestTypeScriptTypeAliasAndEnum(t *testing.T) {
	src := `type ID = string | number;
enum Color { Red, Green = 2 }
`
	result := parseTS(t, "types.ts", src)

	id := result.Entity("types.ID")
	require.NotNil(t, id)
	assert.Equal(t, KindType, id.Kind)
	assert.Equal(t, "string | number", id.Metadata["definition"])

	color := result.Entity("types.Color")
	require.NotNil(t, color)
	assert.Equal(t, KindEnum, color.Kind)
	assert.Equal(t, []string{"Red", "Green"}, color.Metadata["members"])
}

func TestTypeScriptClass(t *testing.T) {
	src := `export class Service extends Base implements Runnable {
  private count: number = 0;

  public async run(input: string, ...rest: string[]): Promise<void> {
    this.logger.debug(input);
  }
}
`
	result := parseTS(t, "service.ts", src)

	service := result.Entity("service.Service")
	require.NotNil(t, service)
	assert.Equal(t, []string{"Base"}, service.Metadata["bases"])
	assert.Equal(t, []string{"Runnable"}, service.Metadata["implements"])
	assert.Equal(t, []string{"run"}, service.Metadata["methods"])
	assert.Equal(t, []string{"count"}, service.Metadata["fields"])

	run := result.Entity("service.Service.run")
	require.NotNil(t, run)
	assert.Equal(t, "(input: string, ...)", run.Metadata["signature"])
	assert.Equal(t, "public", run.Metadata["visibility"])
	assert.Equal(t, true, run.Metadata["is_async"])
	assert.Equal(t, "Promise<void>", run.Metadata["return_type"])

	assert.True(t, result.HasRelationship("service.Service.run", "service.Service", RelMemberOf))
	assert.True(t, result.HasRelationship("service.Service.run", "debug", RelMethodCall))
}

func TestTypeScriptNamespace(t *testing.T) {
	src := `namespace Models {
  export interface Account {
    id: string;
  }
}
`
	result := parseTS(t, "api.ts", src)

	account := result.Entity("api.Models.Account")
	require.NotNil(t, account)
	assert.Equal(t, KindInterface, account.Kind)
}

func TestTypeScriptTSXGrammar(t *testing.T) {
	src := `export function App() {
  return <div id="root">hello</div>;
}
`
	result := parseTS(t, "App.tsx", src)
	require.NotNil(t, result.Entity("App.App"))
	assert.Equal(t, LangTypeScript, result.Language)
}
