package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseCpp(t *testing.T, path, src string) *ParseResult {
	t.Helper()
	result := NewCppExtractor(DefaultOptions()).ParseFile(path, []byte(src))
	require.Empty(t, result.Errors)
	require.NotNil(t, result.Module())
	return result
}

const shapesSource = `#include <vector>
#include "shape.h"

namespace geo {

/** A circle. */
class Circle : public Shape {
public:
    Circle(double r);
    double area() const override;
    virtual void draw() = 0;
    static int count();
private:
    double radius;
};

double Circle::area() const {
    return compute(radius);
}

int helper(int a, int b) {
    return a + b;
}

}
`

func TestCppIncludes(t *testing.T) {
	result := parseCpp(t, "src/shapes.cpp", shapesSource)

	includes := result.RelationshipsOfKind(RelImports)
	require.Len(t, includes, 2)
	assert.Equal(t, "vector", includes[0].To)
	assert.Equal(t, true, includes[0].Metadata["is_system"])
	assert.Equal(t, "shape.h", includes[1].To)
	assert.Equal(t, false, includes[1].Metadata["is_system"])
}

func TestCppDocCommentMarkers(t *testing.T) {
	src := "// Not documentation.\nint plain() { return 0; }\n\n/*! Qt style. */\nint qt() { return 1; }\n\n/// Triple slash.\nint triple() { return 2; }\n"
	result := parseCpp(t, "src/doc.cpp", src)

	plain := result.Entity("doc.plain")
	require.NotNil(t, plain)
	assert.Empty(t, plain.Intent)

	qt := result.Entity("doc.qt")
	require.NotNil(t, qt)
	assert.Equal(t, "Qt style.", qt.Intent)

	triple := result.Entity("doc.triple")
	require.NotNil(t, triple)
	assert.Empty(t, triple.Intent)
}

func TestCppClass(t *testing.T) {
	result := parseCpp(t, "src/shapes.cpp", shapesSource)

	circle := result.Entity("shapes.geo::Circle")
	require.NotNil(t, circle)
	assert.Equal(t, KindClass, circle.Kind)
	assert.Equal(t, "A circle.", circle.Intent)
	assert.Equal(t, []string{"Shape"}, circle.Metadata["bases"])
	assert.Equal(t, []string{"Circle", "area", "draw", "count"}, circle.Metadata["methods"])
	assert.Equal(t, []string{"radius"}, circle.Metadata["fields"])
	assert.Equal(t, "geo", circle.Metadata["namespace"])
	assert.Equal(t, false, circle.Metadata["is_struct"])
	assert.Equal(t, false, circle.Metadata["is_uclass"])
	assert.True(t, result.HasRelationship("shapes", "shapes.geo::Circle", RelContains))
}

func TestCppMethods(t *testing.T) {
	result := parseCpp(t, "src/shapes.cpp", shapesSource)

	var area, draw, count *Entity
	for i, e := range result.Entities {
		switch e.Name {
		case "shapes.geo::Circle.area":
			if area == nil {
				area = &result.Entities[i]
			}
		case "shapes.geo::Circle.draw":
			draw = &result.Entities[i]
		case "shapes.geo::Circle.count":
			count = &result.Entities[i]
		}
	}
	require.NotNil(t, area)
	require.NotNil(t, draw)
	require.NotNil(t, count)

	assert.Equal(t, KindMethod, area.Kind)
	assert.Equal(t, "()", area.Metadata["signature"])
	assert.Equal(t, "double", area.Metadata["return_type"])
	assert.Equal(t, "public", area.Metadata["visibility"])
	assert.Equal(t, true, area.Metadata["is_const"])
	assert.Equal(t, true, area.Metadata["is_override"])
	assert.Equal(t, true, area.Metadata["is_declaration"])

	assert.Equal(t, true, draw.Metadata["is_virtual"])
	assert.Equal(t, true, draw.Metadata["is_pure_virtual"])

	assert.Equal(t, true, count.Metadata["is_static"])
	assert.Equal(t, "int", count.Metadata["return_type"])

	assert.True(t, result.HasRelationship("shapes.geo::Circle.draw", "shapes.geo::Circle", RelMemberOf))
}

func TestCppOutOfClassDefinition(t *testing.T) {
	result := parseCpp(t, "src/shapes.cpp", shapesSource)

	var def *Entity
	for i, e := range result.Entities {
		if e.Name == "shapes.geo::Circle.area" && e.Metadata["is_out_of_class_definition"] == true {
			def = &result.Entities[i]
		}
	}
	require.NotNil(t, def)
	assert.Equal(t, 17, def.StartLine)
	assert.Equal(t, true, def.Metadata["is_const"])
	assert.True(t, result.HasRelationship("shapes.geo::Circle.area", "compute", RelCalls))
	assert.False(t, result.HasRelationship("shapes", "shapes.geo::Circle.area", RelContains))
}

func TestCppFreeFunction(t *testing.T) {
	result := parseCpp(t, "src/shapes.cpp", shapesSource)

	helper := result.Entity("shapes.geo::helper")
	require.NotNil(t, helper)
	assert.Equal(t, KindFunction, helper.Kind)
	assert.Equal(t, "(int a, int b)", helper.Metadata["signature"])
	assert.Equal(t, "int", helper.Metadata["return_type"])
	assert.Equal(t, "geo", helper.Metadata["namespace"])
	assert.True(t, result.HasRelationship("shapes", "shapes.geo::helper", RelContains))
}

func TestCppStructAndEnum(t *testing.T) {
	src := `struct Point {
    int x;
    int y;
    void move(int dx, int dy);
};

enum class Color { Red, Green };
`
	result := parseCpp(t, "point.h", src)

	point := result.Entity("point.Point")
	require.NotNil(t, point)
	assert.Equal(t, true, point.Metadata["is_struct"])
	assert.Equal(t, []string{"x", "y"}, point.Metadata["fields"])

	move := result.Entity("point.Point.move")
	require.NotNil(t, move)
	assert.Equal(t, "public", move.Metadata["visibility"])
	assert.Equal(t, "(int dx, int dy)", move.Metadata["signature"])

	color := result.Entity("point.Color")
	require.NotNil(t, color)
	assert.Equal(t, KindEnum, color.Kind)
	assert.Equal(t, []string{"Red", "Green"}, color.Metadata["members"])
	assert.Equal(t, true, color.Metadata["is_scoped"])
}

func TestCppAnonymousNamespace(t *testing.T) {
	result := parseCpp(t, "util.cpp", "namespace {\nint hidden() { return 1; }\n}\n")
	assert.NotNil(t, result.Entity("util.<anonymous>::hidden"))
}

func TestCppForwardDeclarationSkipped(t *testing.T) {
	result := parseCpp(t, "fwd.h", "class Widget;\n")
	assert.Nil(t, result.Entity("fwd.Widget"))
	assert.Len(t, result.Entities, 1)
}

func TestCppCalls(t *testing.T) {
	src := `void tick() {
    obj->update();
    ns::run();
    make<int>();
    Widget* w = new Widget();
}
`
	opts := DefaultOptions()
	opts.MethodCalls = MethodCallsAll
	result := NewCppExtractor(opts).ParseFile("loop.cpp", []byte(src))
	require.Empty(t, result.Errors)

	assert.True(t, result.HasRelationship("loop.tick", "update", RelCalls))
	assert.True(t, result.HasRelationship("loop.tick", "ns.run", RelCalls))
	assert.True(t, result.HasRelationship("loop.tick", "make", RelCalls))
	assert.True(t, result.HasRelationship("loop.tick", "Widget", RelCalls))
	assert.True(t, result.HasRelationship("loop.tick", "constructor", RelCalls))
	assert.True(t, result.HasRelationship("loop.tick", "update", RelMethodCall))
}

func TestCppMethodCallsOffByDefault(t *testing.T) {
	result := parseCpp(t, "loop.cpp", "void tick() { obj->update(); }\n")
	assert.True(t, result.HasRelationship("loop.tick", "update", RelCalls))
	assert.Empty(t, result.RelationshipsOfKind(RelMethodCall))
}
