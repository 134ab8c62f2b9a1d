package parser

import (
	"strings"
	"testing"

	"github.com/heefoo/loomgraph/internal/syntax"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const heroBody = `{
    GENERATED_BODY()
public:
    UFUNCTION(BlueprintCallable)
    void Jump();
}`

const heroSource = "UCLASS(Blueprintable)\nclass MYGAME_API AHero : public ACharacter\n" + heroBody + ";\n"

// misparsedHero builds the variant of the misparse where the type name ends
// up as the function declarator and the base clause in a trailing error.
func misparsedHero() (*syntax.Tree, syntax.NodeID) {
	b := syntax.NewBuilder("translation_unit", heroSource)
	root := b.Root()
	b.AddText(root, syntax.KindError, "UCLASS(Blueprintable)")

	fn := b.AddText(root, "function_definition", "class MYGAME_API AHero : public ACharacter\n"+heroBody)
	spec := b.AddFieldText(fn, "type", "class_specifier", "class MYGAME_API")
	b.AddFieldText(spec, "name", "type_identifier", "MYGAME_API")
	b.AddFieldText(fn, "declarator", "identifier", "AHero")
	b.AddText(fn, syntax.KindError, ": public ACharacter")

	body := b.AddFieldText(fn, "body", "compound_statement", heroBody)
	b.AddText(body, "expression_statement", "GENERATED_BODY()")
	b.AddText(body, "access_specifier", "public")
	b.AddText(body, "expression_statement", "UFUNCTION(BlueprintCallable)")
	decl := b.AddText(body, "field_declaration", "void Jump();")
	b.AddFieldText(decl, "type", "primitive_type", "void")
	fd := b.AddFieldText(decl, "declarator", "function_declarator", "Jump()")
	b.AddFieldText(fd, "declarator", "field_identifier", "Jump")
	b.AddFieldText(fd, "parameters", "parameter_list", "()")

	return b.Tree(), fn
}

func TestRecoverMisparsedType(t *testing.T) {
	tree, fn := misparsedHero()

	rt, ok := recoverMisparsedType(tree, fn)
	require.True(t, ok)
	assert.Equal(t, "AHero", tree.Text(rt.name))
	assert.False(t, rt.isStruct)
	assert.Equal(t, []string{"ACharacter"}, rt.bases)
	assert.Equal(t, "compound_statement", tree.Kind(rt.body))
}

func TestRecoverMisparsedTypeDeclines(t *testing.T) {
	src := "int main() { return 0; }"
	b := syntax.NewBuilder("translation_unit", src)
	fn := b.AddText(b.Root(), "function_definition", src)
	b.AddFieldText(fn, "type", "primitive_type", "int")
	b.AddFieldText(fn, "declarator", "function_declarator", "main()")
	tree := b.Tree()

	_, ok := recoverMisparsedType(tree, fn)
	assert.False(t, ok)

	_, ok = recoverMisparsedType(tree, tree.Root())
	assert.False(t, ok)
}

func TestRecoveredClassExtraction(t *testing.T) {
	tree, _ := misparsedHero()
	result := newParseResult("Source/Hero.h", LangCPP)
	opts := DefaultOptions().withDefaults()
	x := &extraction{
		tree:   tree,
		path:   "Source/Hero.h",
		module: "Hero",
		lang:   LangCPP,
		opts:   opts,
		result: result,
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	newCppExtraction(x).run()

	hero := result.Entity("Hero.AHero")
	require.NotNil(t, hero)
	assert.Equal(t, KindClass, hero.Kind)
	assert.Equal(t, true, hero.Metadata["recovered"])
	assert.Equal(t, true, hero.Metadata["is_uclass"])
	assert.Equal(t, []string{"ACharacter"}, hero.Metadata["bases"])
	assert.Equal(t, []string{"Jump"}, hero.Metadata["methods"])
	assert.Equal(t, []string{"UCLASS(Blueprintable)"}, hero.Metadata["ue_specifiers"])
	assert.True(t, result.HasRelationship("Hero", "Hero.AHero", RelContains))

	jump := result.Entity("Hero.AHero.Jump")
	require.NotNil(t, jump)
	assert.Equal(t, "public", jump.Metadata["visibility"])
	assert.Equal(t, true, jump.Metadata["is_ufunction"])
	assert.Equal(t, []string{"UFUNCTION(BlueprintCallable)"}, jump.Metadata["ue_specifiers"])
	assert.Equal(t, "void", jump.Metadata["return_type"])
	assert.Equal(t, "()", jump.Metadata["signature"])
	assert.True(t, result.HasRelationship("Hero.AHero.Jump", "Hero.AHero", RelMemberOf))

	// The misparse never produces a function entity.
	assert.Empty(t, result.EntitiesOfKind(KindFunction))
}

const characterHeader = `// Character header with reflection macros

#pragma once

#include "CoreMinimal.h"
#include "GameFramework/Character.h"
#include "UnrealCharacter.generated.h"

UENUM(BlueprintType)
enum class ECharacterState : uint8
{
    Idle,
    Walking,
    Running,
    Jumping
};

USTRUCT(BlueprintType)
struct FCharacterStats
{
    GENERATED_BODY()

    UPROPERTY(EditAnywhere, BlueprintReadWrite)
    float Health;

    UPROPERTY(EditAnywhere, BlueprintReadWrite)
    float MaxHealth;

    UPROPERTY(EditAnywhere, BlueprintReadWrite)
    float MovementSpeed;
};

/**
 * A character with health and movement state.
 */
UCLASS(Blueprintable, BlueprintType)
class MYGAME_API AUnrealCharacter : public ACharacter
{
    GENERATED_BODY()

public:
    AUnrealCharacter();

    virtual void BeginPlay() override;
    virtual void Tick(float DeltaTime) override;

    UFUNCTION(BlueprintCallable, Category = "Character")
    void TakeDamage(float DamageAmount);

    UFUNCTION(BlueprintCallable, Category = "Character")
    void Heal(float HealAmount);

    UFUNCTION(BlueprintPure, Category = "Character")
    float GetHealthPercentage() const;

    UFUNCTION(BlueprintCallable, Category = "Movement")
    void SetMovementState(ECharacterState NewState);

protected:
    UPROPERTY(EditAnywhere, BlueprintReadWrite, Category = "Stats")
    FCharacterStats Stats;

    UPROPERTY(VisibleAnywhere, BlueprintReadOnly, Category = "State")
    ECharacterState CurrentState;

private:
    void UpdateMovementSpeed();
};
`

func TestParseExportedClass(t *testing.T) {
	result := parseCpp(t, "Source/Hero.h", heroSource)

	hero := result.Entity("Hero.AHero")
	require.NotNil(t, hero)
	assert.Equal(t, KindClass, hero.Kind)
	assert.Equal(t, true, hero.Metadata["recovered"])
	assert.Equal(t, []string{"ACharacter"}, hero.Metadata["bases"])
	assert.Equal(t, []string{"Jump"}, hero.Metadata["methods"])
	assert.Contains(t, hero.Metadata["ue_specifiers"], "UCLASS(Blueprintable)")
	assert.Nil(t, result.Entity("Hero.ACharacter"))

	jump := result.Entity("Hero.AHero.Jump")
	require.NotNil(t, jump)
	assert.Equal(t, "public", jump.Metadata["visibility"])
	assert.Equal(t, true, jump.Metadata["is_ufunction"])
	assert.Equal(t, "void", jump.Metadata["return_type"])
	assert.Nil(t, result.Entity("Hero.AHero.GENERATED_BODY"))
	assert.Empty(t, result.EntitiesOfKind(KindFunction))
}

func TestParseExportedClassWithSeveralBases(t *testing.T) {
	src := "UCLASS()\nclass MYGAME_API AHero : public ACharacter, public IFoo\n{\n    GENERATED_BODY()\npublic:\n    void Run();\n};\n"
	result := parseCpp(t, "Source/Hero.h", src)

	hero := result.Entity("Hero.AHero")
	require.NotNil(t, hero)
	assert.Equal(t, KindClass, hero.Kind)
	assert.Equal(t, []string{"ACharacter", "IFoo"}, hero.Metadata["bases"])
	assert.Equal(t, []string{"Run"}, hero.Metadata["methods"])

	run := result.Entity("Hero.AHero.Run")
	require.NotNil(t, run)
	assert.Equal(t, "public", run.Metadata["visibility"])
	assert.Equal(t, "void", run.Metadata["return_type"])
	assert.True(t, result.HasRelationship("Hero.AHero.Run", "Hero.AHero", RelMemberOf))
	assert.Empty(t, result.EntitiesOfKind(KindFunction))
}

func TestParseExportedStruct(t *testing.T) {
	src := "USTRUCT()\nstruct MYGAME_API FStats : public FTableRowBase\n{\n    GENERATED_BODY()\n    UPROPERTY()\n    float Health;\n};\n"
	result := parseCpp(t, "Source/Stats.h", src)

	stats := result.Entity("Stats.FStats")
	require.NotNil(t, stats)
	assert.Equal(t, true, stats.Metadata["is_struct"])
	assert.Equal(t, true, stats.Metadata["is_ustruct"])
	assert.Equal(t, []string{"FTableRowBase"}, stats.Metadata["bases"])
	assert.Equal(t, []string{"Health"}, stats.Metadata["fields"])
	assert.Equal(t, []string{"Health"}, stats.Metadata["ue_properties"])
	assert.Empty(t, stats.Metadata["methods"])
	assert.Empty(t, result.EntitiesOfKind(KindMethod))
}

func TestParseBodyWithMacroErrors(t *testing.T) {
	src := "UCLASS()\nclass AHero : public ACharacter\n{\n    GENERATED_BODY()\npublic:\n    UFUNCTION(BlueprintCallable)\n    void Jump();\n    int Score;\n};\n"
	result := parseCpp(t, "Source/Hero.h", src)

	hero := result.Entity("Hero.AHero")
	require.NotNil(t, hero)
	assert.Equal(t, []string{"Jump"}, hero.Metadata["methods"])
	assert.Equal(t, []string{"Score"}, hero.Metadata["fields"])

	jump := result.Entity("Hero.AHero.Jump")
	require.NotNil(t, jump)
	assert.Equal(t, "public", jump.Metadata["visibility"])
	assert.Equal(t, true, jump.Metadata["is_ufunction"])
}

func TestParseCharacterHeader(t *testing.T) {
	result := parseCpp(t, "Source/unreal_character.h", characterHeader)

	state := result.Entity("unreal_character.ECharacterState")
	require.NotNil(t, state)
	assert.Equal(t, KindEnum, state.Kind)

	stats := result.Entity("unreal_character.FCharacterStats")
	require.NotNil(t, stats)
	assert.Equal(t, true, stats.Metadata["is_ustruct"])
	assert.Equal(t, []string{"Health", "MaxHealth", "MovementSpeed"}, stats.Metadata["fields"])
	assert.Equal(t, []string{"Health", "MaxHealth", "MovementSpeed"}, stats.Metadata["ue_properties"])
	assert.Empty(t, stats.Metadata["methods"])

	character := result.Entity("unreal_character.AUnrealCharacter")
	require.NotNil(t, character)
	assert.Equal(t, KindClass, character.Kind)
	assert.Equal(t, true, character.Metadata["is_uclass"])
	assert.Equal(t, []string{"ACharacter"}, character.Metadata["bases"])
	assert.Equal(t, []string{
		"AUnrealCharacter", "BeginPlay", "Tick", "TakeDamage", "Heal",
		"GetHealthPercentage", "SetMovementState", "UpdateMovementSpeed",
	}, character.Metadata["methods"])
	assert.Equal(t, []string{"Stats", "CurrentState"}, character.Metadata["fields"])
	assert.Equal(t, []string{"Stats", "CurrentState"}, character.Metadata["ue_properties"])

	damage := result.Entity("unreal_character.AUnrealCharacter.TakeDamage")
	require.NotNil(t, damage)
	assert.Equal(t, true, damage.Metadata["is_ufunction"])
	assert.Equal(t, "public", damage.Metadata["visibility"])
	assert.Equal(t, "(float DamageAmount)", damage.Metadata["signature"])

	tick := result.Entity("unreal_character.AUnrealCharacter.Tick")
	require.NotNil(t, tick)
	assert.Equal(t, false, tick.Metadata["is_ufunction"])
	assert.Equal(t, true, tick.Metadata["is_override"])

	percent := result.Entity("unreal_character.AUnrealCharacter.GetHealthPercentage")
	require.NotNil(t, percent)
	assert.Equal(t, true, percent.Metadata["is_const"])
	assert.Equal(t, "float", percent.Metadata["return_type"])

	update := result.Entity("unreal_character.AUnrealCharacter.UpdateMovementSpeed")
	require.NotNil(t, update)
	assert.Equal(t, "private", update.Metadata["visibility"])
	assert.Equal(t, "void", update.Metadata["return_type"])

	for _, m := range result.EntitiesOfKind(KindMethod) {
		assert.False(t, isUnrealMacro(m.Name[strings.LastIndex(m.Name, ".")+1:]), m.Name)
	}
	assert.Empty(t, result.EntitiesOfKind(KindFunction))
}
