package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const animalsSource = `"""Animal helpers."""
import os
import numpy as np
from .models import User, Group as G
from typing import *


class Animal(Base, metaclass=Meta):
    """An animal.

    Makes sounds.
    """

    def speak(self):
        """Make a sound."""
        self.voice.play()
        print("hi")

    @staticmethod
    def create():
        return Animal()

    class Meta:
        pass


def main(name: str, *args, retries=3, **kwargs) -> int:
    # not a docstring
    Animal.create()
    return 0
`

func parsePython(t *testing.T, path, src string) *ParseResult {
	t.Helper()
	result := NewPythonExtractor(DefaultOptions()).ParseFile(path, []byte(src))
	require.Empty(t, result.Errors)
	require.NotNil(t, result.Module())
	return result
}

func TestPythonModuleDocstring(t *testing.T) {
	result := parsePython(t, "zoo/animals.py", animalsSource)
	assert.Equal(t, "animals", result.Module().Name)
	assert.Equal(t, "Animal helpers.", result.Module().Intent)
}

func TestPythonImports(t *testing.T) {
	result := parsePython(t, "zoo/animals.py", animalsSource)

	imports := result.RelationshipsOfKind(RelImports)
	require.Len(t, imports, 4)

	assert.Equal(t, "os", imports[0].To)
	assert.Equal(t, "import", imports[0].Metadata["style"])

	assert.Equal(t, "numpy", imports[1].To)
	assert.Equal(t, "np", imports[1].Metadata["alias"])

	assert.Equal(t, ".models", imports[2].To)
	assert.Equal(t, "from", imports[2].Metadata["style"])
	assert.Equal(t, []ImportSpecifier{
		{Name: "User", Type: SpecNamed},
		{Name: "G", Type: SpecNamed, Original: "Group"},
	}, imports[2].Metadata["specifiers"])

	assert.Equal(t, "typing", imports[3].To)
	assert.Equal(t, []ImportSpecifier{{Name: "*", Type: SpecNamespace}}, imports[3].Metadata["specifiers"])
}

func TestPythonClass(t *testing.T) {
	result := parsePython(t, "zoo/animals.py", animalsSource)

	animal := result.Entity("animals.Animal")
	require.NotNil(t, animal)
	assert.Equal(t, KindClass, animal.Kind)
	assert.Equal(t, "An animal. Makes sounds.", animal.Intent)
	assert.Equal(t, []string{"Base"}, animal.Metadata["bases"])
	assert.Equal(t, []string{"speak", "create"}, animal.Metadata["methods"])
	assert.True(t, result.HasRelationship("animals", "animals.Animal", RelContains))

	speak := result.Entity("animals.Animal.speak")
	require.NotNil(t, speak)
	assert.Equal(t, KindMethod, speak.Kind)
	assert.Equal(t, "Make a sound.", speak.Intent)
	assert.Equal(t, "(self)", speak.Metadata["signature"])
	assert.True(t, result.HasRelationship("animals.Animal.speak", "animals.Animal", RelMemberOf))
	assert.True(t, result.HasRelationship("animals.Animal.speak", "play", RelCalls))
	assert.True(t, result.HasRelationship("animals.Animal.speak", "print", RelCalls))
	assert.Empty(t, result.RelationshipsOfKind(RelMethodCall))

	create := result.Entity("animals.Animal.create")
	require.NotNil(t, create)
	assert.Equal(t, true, create.Metadata["is_static"])
	assert.Equal(t, []string{"staticmethod"}, create.Metadata["decorators"])
	assert.True(t, result.HasRelationship("animals.Animal.create", "Animal", RelCalls))

	meta := result.Entity("animals.Animal.Meta")
	require.NotNil(t, meta)
	assert.True(t, result.HasRelationship("animals.Animal", "animals.Animal.Meta", RelContains))
}

func TestPythonFunction(t *testing.T) {
	result := parsePython(t, "zoo/animals.py", animalsSource)

	main := result.Entity("animals.main")
	require.NotNil(t, main)
	assert.Equal(t, KindFunction, main.Kind)
	assert.Equal(t, "", main.Intent)
	assert.Equal(t, "(name: str, ..., retries=3, ...)", main.Metadata["signature"])
	assert.Equal(t, "int", main.Metadata["return_type"])
	assert.Equal(t, 4, ParameterCount(main.Metadata["signature"].(string)))
	assert.True(t, result.HasRelationship("animals.main", "create", RelCalls))
}

func TestPythonPackageInit(t *testing.T) {
	result := parsePython(t, "zoo/birds/__init__.py", "def fly():\n    pass\n")
	assert.Equal(t, "birds", result.Module().Name)
	assert.NotNil(t, result.Entity("birds.fly"))
}

func TestPythonDecoratedClass(t *testing.T) {
	src := "@dataclass\nclass Point:\n    x: int = 0\n"
	result := parsePython(t, "geo.py", src)

	point := result.Entity("geo.Point")
	require.NotNil(t, point)
	assert.Equal(t, []string{"dataclass"}, point.Metadata["decorators"])
	assert.Equal(t, []string{}, point.Metadata["methods"])
}
