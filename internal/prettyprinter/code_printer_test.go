package prettyprinter_test

import (
	"testing"

	"github.com/funvibe/solidscript/internal/ast"
	"github.com/funvibe/solidscript/internal/parser"
	"github.com/funvibe/solidscript/internal/prettyprinter"
)

func parse(t *testing.T, src string) []*ast.Node {
	t.Helper()
	nodes, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return nodes
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"call", "cube( 1,2 , z = 3 ) ;", "cube(1, 2, z=3);\n"},
		{"lets_flatten", "a = 1; cube(a); b = 2; cube(b);", "a = 1;\ncube(a);\nb = 2;\ncube(b);\n"},
		{"return", "a=1;a", "a = 1;\na\n"},
		{"precedence", "1 + 2 * 3", "1 + 2 * 3\n"},
		{"needed_parens", "(1 + 2) * 3", "(1 + 2) * 3\n"},
		{"right_parens", "10 - (4 - 3)", "10 - (4 - 3)\n"},
		{"redundant_parens", "(10 - 4) - 3", "10 - 4 - 3\n"},
		{"negative", "x - -2", "x - -2\n"},
		{"chain", "translate(x=1) anti() cube(2);", "translate(x=1) anti() cube(2);\n"},
		{"block", "union() { cube(); cube(2) }", "union() {\n    cube();\n    cube(2)\n}\n"},
		{"empty_block", "union() {}", "union();\n"},
		{"nested", "union() { a = 1; union() { cube(a); cube(); } }",
			"union() {\n    a = 1;\n    union() {\n        cube(a);\n        cube();\n    }\n}\n"},
		{"scenario", `x = 2;
translate(z=-5, y=-5) union() {
  cube(x, 30, 20);
  translate(z=5, y=5) anti() cube(10, 10, 10);
}`, `x = 2;
translate(z=-5, y=-5) union() {
    cube(x, 30, 20);
    translate(z=5, y=5) anti() cube(10, 10, 10);
}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := prettyprinter.Format(parse(t, tt.input))
			if got != tt.want {
				t.Errorf("Format(%q)\ngot:\n%s\nwant:\n%s", tt.input, got, tt.want)
			}
			if again := prettyprinter.Format(parse(t, got)); again != got {
				t.Errorf("formatting is not idempotent:\n%s", again)
			}
		})
	}
}

func TestTree(t *testing.T) {
	got := prettyprinter.Tree(parse(t, "a = 1; translate(x=a) cube(2);"))
	if want := "(let a 1 (translate x=a {(cube 2)}))"; got != want {
		t.Errorf("Tree = %s, want %s", got, want)
	}
}

func TestFormatMissingOperand(t *testing.T) {
	n := ast.NewNode(ast.Span{}, &ast.Return{})
	if got := prettyprinter.Format([]*ast.Node{n}); got != "<???>\n" {
		t.Errorf("got %q", got)
	}
}
