// Package export writes meshes in common interchange formats.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/funvibe/solidscript/internal/kernel"
)

// Formats lists the supported output formats.
var Formats = []string{"stl", "obj"}

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	return "." + format
}

// Write encodes mesh in the named format.
func Write(w io.Writer, format, name string, mesh *kernel.Mesh) error {
	switch format {
	case "stl":
		return WriteSTL(w, name, mesh)
	case "obj":
		return WriteOBJ(w, name, mesh)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func num(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func triple(v [3]float32) string {
	return num(v[0]) + " " + num(v[1]) + " " + num(v[2])
}

// WriteSTL writes an ASCII STL solid. Facet normals are taken from the
// first vertex of each triangle.
func WriteSTL(w io.Writer, name string, mesh *kernel.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for t := 0; t < mesh.TriangleCount(); t++ {
		tri := mesh.Indices[3*t : 3*t+3]
		fmt.Fprintf(bw, "  facet normal %s\n", triple(mesh.Normal(tri[0])))
		bw.WriteString("    outer loop\n")
		for _, ix := range tri {
			fmt.Fprintf(bw, "      vertex %s\n", triple(mesh.Vertex(ix)))
		}
		bw.WriteString("    endloop\n")
		bw.WriteString("  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}

// WriteOBJ writes a Wavefront OBJ object with per-vertex normals.
func WriteOBJ(w io.Writer, name string, mesh *kernel.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "o %s\n", name)
	n := mesh.VertexCount()
	for i := 0; i < n; i++ {
		fmt.Fprintf(bw, "v %s\n", triple(mesh.Vertex(uint32(i))))
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(bw, "vn %s\n", triple(mesh.Normal(uint32(i))))
	}
	for t := 0; t < mesh.TriangleCount(); t++ {
		a, b, c := mesh.Indices[3*t]+1, mesh.Indices[3*t+1]+1, mesh.Indices[3*t+2]+1
		fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
	}
	return bw.Flush()
}
