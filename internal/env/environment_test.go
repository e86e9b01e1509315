package env

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/funvibe/funblocks/internal/catalog"
	"github.com/funvibe/funblocks/internal/typesystem"
)

func loadPrelude(t *testing.T) *Environment {
	t.Helper()
	c, err := catalog.LoadYAML(filepath.Join("..", "catalog", "testdata", "prelude.yaml"))
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	e, err := New(c)
	if err != nil {
		t.Fatalf("building environment: %v", err)
	}
	return e
}

func TestLookup(t *testing.T) {
	e := loadPrelude(t)

	tests := []struct {
		name string
		want string
	}{
		{"map", "(a -> b) -> [a] -> [b]"},
		{"(*)", "Num a => a -> a -> a"},
		{"zip", "[a] -> [b] -> [(a, b)]"},
		{"fmap", "Functor c => (a -> b) -> c a -> c b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := e.Lookup(tt.name)
			if !ok {
				t.Fatalf("%s not found", tt.name)
			}
			if got := typesystem.Pretty(s.Type); got != tt.want {
				t.Errorf("Lookup(%s) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}

	if _, ok := e.Lookup("nope"); ok {
		t.Errorf("unknown name should not be found")
	}
}

func TestUseFunFreshness(t *testing.T) {
	e := loadPrelude(t)

	first, err := e.UseFun("id")
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.UseFun("id")
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for _, v := range first.FreeTypeVariables() {
		seen[v.Name] = true
	}
	for _, v := range second.FreeTypeVariables() {
		if seen[v.Name] {
			t.Errorf("two uses of id share variable %s", v.Name)
		}
	}
}

func TestUseFunUnbound(t *testing.T) {
	e := loadPrelude(t)
	_, err := e.UseFun("frobnicate")

	var ue *typesystem.UnboundIdentifierError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnboundIdentifierError, got %v", err)
	}
	if ue.Name != "frobnicate" {
		t.Errorf("Name = %q", ue.Name)
	}
}

func TestAddTypeClassIsIdempotentPerName(t *testing.T) {
	e := NewEmpty()
	e.AddTypeClass(typesystem.NewTypeClassNamed("Num", "Int"))
	e.AddTypeClass(typesystem.NewTypeClassNamed("Num", "String"))

	tc, ok := e.TypeClass("Num")
	if !ok {
		t.Fatal("Num not registered")
	}
	if got := tc.Instances(); len(got) != 1 || got[0] != "Int" {
		t.Errorf("instances = %v, want [Int]", got)
	}
	if n := len(e.TypeClasses()); n != 1 {
		t.Errorf("registered %d classes, want 1", n)
	}
}

func TestCategories(t *testing.T) {
	e := loadPrelude(t)
	cats := e.Categories()
	if len(cats) == 0 || cats[0] != "Basics" {
		t.Fatalf("categories = %v", cats)
	}
	list := e.EntriesInCategory("List")
	if len(list) == 0 || list[0].Name != "map" {
		t.Errorf("List category = %v", list)
	}
	if got := e.EntriesInCategory("Nope"); got != nil {
		t.Errorf("unknown category = %v", got)
	}
	if NewEmpty().Categories() != nil {
		t.Errorf("empty environment has no categories")
	}
}

func TestNewFailsOnBadSignature(t *testing.T) {
	tests := []struct {
		name    string
		classes []catalog.ClassDef
		entries []catalog.Entry
	}{
		{
			name:    "syntax",
			entries: []catalog.Entry{{Name: "f", Category: "A", Signature: "a -> "}},
		},
		{
			name:    "unknown class",
			entries: []catalog.Entry{{Name: "f", Category: "A", Signature: "Show a => a -> String"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := catalog.New(tt.classes, tt.entries)
			if err != nil {
				t.Fatal(err)
			}
			e, err := New(c)
			if e != nil {
				t.Errorf("no partial environment expected")
			}
			var le *catalog.LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected LoadError, got %v", err)
			}
		})
	}
}

func TestParseTypeUsesRegisteredClasses(t *testing.T) {
	e := loadPrelude(t)
	typ, err := e.ParseType("Num a => [a]")
	if err != nil {
		t.Fatal(err)
	}
	if got := typesystem.Pretty(typ); got != "Num a => [a]" {
		t.Errorf("got %q", got)
	}
}
