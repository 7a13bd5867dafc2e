package kernel

import "math"

// Matrix is a 4×4 affine matrix stored column-major: element (row r,
// column c) lives at index c*4+r. The translation is in elements 12..14.
type Matrix [16]float64

func Identity() Matrix {
	return Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func Translation(x, y, z float64) Matrix {
	m := Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

func Scaling(x, y, z float64) Matrix {
	m := Identity()
	m[0], m[5], m[10] = x, y, z
	return m
}

// RotationZ rotates by angle radians around the Z axis.
func RotationZ(angle float64) Matrix {
	s, c := math.Sincos(angle)
	m := Identity()
	m[0], m[1] = c, s
	m[4], m[5] = -s, c
	return m
}

func (m Matrix) At(row, col int) float64 { return m[col*4+row] }

// Mul returns m*o, i.e. the transform that applies o first and m second.
func (m Matrix) Mul(o Matrix) Matrix {
	var out Matrix
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[k*4+r] * o[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// Apply transforms point p.
func (m Matrix) Apply(p [3]float64) [3]float64 {
	return [3]float64{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// ApplyVector transforms direction v, ignoring translation.
func (m Matrix) ApplyVector(v [3]float64) [3]float64 {
	return [3]float64{
		m[0]*v[0] + m[4]*v[1] + m[8]*v[2],
		m[1]*v[0] + m[5]*v[1] + m[9]*v[2],
		m[2]*v[0] + m[6]*v[1] + m[10]*v[2],
	}
}

// Determinant of the linear 3×3 part.
func (m Matrix) Determinant() float64 {
	return m[0]*(m[5]*m[10]-m[9]*m[6]) -
		m[4]*(m[1]*m[10]-m[9]*m[2]) +
		m[8]*(m[1]*m[6]-m[5]*m[2])
}

// Inverse returns the inverse of an affine matrix. ok is false when the
// linear part is singular.
func (m Matrix) Inverse() (Matrix, bool) {
	det := m.Determinant()
	if math.Abs(det) < 1e-12 {
		return Matrix{}, false
	}
	inv := 1 / det

	var out Matrix
	out[0] = (m[5]*m[10] - m[9]*m[6]) * inv
	out[1] = (m[9]*m[2] - m[1]*m[10]) * inv
	out[2] = (m[1]*m[6] - m[5]*m[2]) * inv
	out[4] = (m[8]*m[6] - m[4]*m[10]) * inv
	out[5] = (m[0]*m[10] - m[8]*m[2]) * inv
	out[6] = (m[4]*m[2] - m[0]*m[6]) * inv
	out[8] = (m[4]*m[9] - m[8]*m[5]) * inv
	out[9] = (m[8]*m[1] - m[0]*m[9]) * inv
	out[10] = (m[0]*m[5] - m[4]*m[1]) * inv
	out[15] = 1

	t := out.ApplyVector([3]float64{m[12], m[13], m[14]})
	out[12], out[13], out[14] = -t[0], -t[1], -t[2]
	return out, true
}

// ApproxEqual compares two matrices element-wise within eps.
func (m Matrix) ApproxEqual(o Matrix, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}
