package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryExtractGo(t *testing.T) {
	r := DefaultRegistry(0)
	src := []byte(`package demo

import "fmt"

type Greeter struct {
	Name string
}

func (g *Greeter) Greet() string {
	return fmt.Sprintf("hello %s", g.Name)
}

func main() {
	g := &Greeter{Name: "world"}
	fmt.Println(g.Greet())
}
`)
	facts, findings, err := r.Extract("demo.go", src)
	require.NoError(t, err)
	assert.Empty(t, findings)
	require.NotEmpty(t, facts)

	var sawStruct, sawMethod, sawFunc, sawImport, sawCall bool
	for _, f := range facts {
		assert.NotZero(t, f.Line)
		assert.Equal(t, "demo.go", f.File)
		switch {
		case f.Kind == FactClass && f.Identifier == "Greeter":
			sawStruct = true
		case f.Kind == FactFunctionDef && f.Identifier == "Greet":
			sawMethod = true
		case f.Kind == FactFunctionDef && f.Identifier == "main":
			sawFunc = true
		case f.Kind == FactImport && f.Identifier == "fmt":
			sawImport = true
		case f.Kind == FactCall && f.Identifier == "Sprintf":
			sawCall = true
		}
	}
	assert.True(t, sawStruct)
	assert.True(t, sawMethod)
	assert.True(t, sawFunc)
	assert.True(t, sawImport)
	assert.True(t, sawCall)
}

func TestRegistryUnrecognizedExtensionYieldsNoFacts(t *testing.T) {
	r := DefaultRegistry(0)
	facts, findings, err := r.Extract("data.bin", []byte{0xff, 0xfe, 0x00})
	require.NoError(t, err)
	assert.Nil(t, facts)
	assert.Nil(t, findings)
}

func TestRegistryOversizedFileSkipped(t *testing.T) {
	r := DefaultRegistry(4)
	facts, findings, err := r.Extract("demo.go", []byte("package demo\n"))
	require.NoError(t, err)
	assert.Nil(t, facts)
	assert.Nil(t, findings)
}

func TestRegistryMalformedUnicodeReplaced(t *testing.T) {
	r := DefaultRegistry(0)
	bad := append([]byte("package demo\nfunc f"), 0xff, 0xfe)
	bad = append(bad, []byte("oo() {}\n")...)
	facts, _, err := r.Extract("demo.go", bad)
	require.NoError(t, err)
	assert.NotEmpty(t, facts)
}

func TestRegistryPythonClassAndMethod(t *testing.T) {
	r := DefaultRegistry(0)
	src := []byte("class Greeter:\n    def greet(self):\n        return 1\n")
	facts, _, err := r.Extract("demo.py", src)
	require.NoError(t, err)
	var sawClass, sawMethod bool
	for _, f := range facts {
		if f.Kind == FactClass && f.Identifier == "Greeter" {
			sawClass = true
		}
		if f.Kind == FactFunctionDef && f.Identifier == "greet" {
			sawMethod = true
		}
	}
	assert.True(t, sawClass)
	assert.True(t, sawMethod)
}

func TestHeuristicExtractorJava(t *testing.T) {
	r := DefaultRegistry(0)
	src := []byte("package demo;\n\npublic class Greeter {\n    public String greet() {\n        return \"hi\";\n    }\n}\n")
	facts, _, err := r.Extract("Greeter.java", src)
	require.NoError(t, err)
	var sawClass bool
	for _, f := range facts {
		if f.Kind == FactClass && f.Identifier == "Greeter" {
			sawClass = true
		}
	}
	assert.True(t, sawClass)
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("foo_bar"))
	assert.True(t, ValidIdentifier("_foo"))
	assert.False(t, ValidIdentifier("1foo"))
	assert.False(t, ValidIdentifier(""))
	assert.False(t, ValidIdentifier("foo bar"))
}
