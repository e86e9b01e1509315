package config

// DefaultConfigFile is looked up from the working directory upwards.
const DefaultConfigFile = "funblocks.yaml"

// Built-in type constructor names
const (
	ListTypeName     = "List"
	FunctionTypeName = "->"
	UnitTypeName     = "Unit"
	TuplePrefix      = "("
)

// Built-in expression names
const (
	HoleName = "undefined"
)

// Binding names produced by expression extraction
const (
	BlockBindingPrefix = "b"
	ParamBindingInfix  = "_p"
)

// TupleTypeName returns the constructor name of an n-tuple: "(,)" for pairs.
func TupleTypeName(n int) string {
	name := TuplePrefix
	for i := 1; i < n; i++ {
		name += ","
	}
	return name + ")"
}
