package config

const SourceFileExt = ".solid"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".solid", ".scad"}

// DefaultConfigFile is looked up in the working directory when -config is
// not given.
const DefaultConfigFile = "solidscript.yaml"

// MaxRecursionDepth bounds parser nesting.
const MaxRecursionDepth = 1000

// Built-in function names
const (
	CubeFuncName         = "cube"
	CylinderFuncName     = "cylinder"
	UnionFuncName        = "union"
	IntersectionFuncName = "intersection"
	AntiFuncName         = "anti"
	TranslateFuncName    = "translate"
)

// Geometry defaults
const (
	// Epsilon is the smallest dimension handed to the kernel.
	Epsilon          = 1e-3
	DefaultDimension = 1.0
	DefaultFacets    = 10
	MinFacets        = 3
	MaxFacets        = 1 << 16
)

// Execution defaults
const (
	DefaultWorkers = 8
	DefaultFormat  = "stl"
)
