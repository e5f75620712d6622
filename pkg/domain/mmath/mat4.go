// 指示: miu200521358
package mmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// mat4ValueCount は4x4行列の成分数。
	mat4ValueCount = 16
	// scaleEpsilon はスケール0判定の閾値。
	scaleEpsilon = 1e-12
)

// Mat4 はボーン空間の4x4変換行列を表す。成分は列優先で保持する。
type Mat4 struct {
	mgl64.Mat4
}

// NewMat4 は単位行列を生成する。
func NewMat4() Mat4 {
	return Mat4{Mat4: mgl64.Ident4()}
}

// NewMat4FromValues は列優先16成分から行列を生成する。
func NewMat4FromValues(values []float64) (Mat4, error) {
	if len(values) != mat4ValueCount {
		return Mat4{}, fmt.Errorf("行列の成分数が不正です: %d", len(values))
	}
	m := mgl64.Mat4{}
	copy(m[:], values)
	return Mat4{Mat4: m}, nil
}

// NewMat4FromTranslation は平行移動行列を生成する。
func NewMat4FromTranslation(v Vec3) Mat4 {
	return Mat4{Mat4: mgl64.Translate3D(v.X, v.Y, v.Z)}
}

// NewMat4FromTRS は移動・回転・スケールから行列を生成する。
func NewMat4FromTRS(location Vec3, rotation Quaternion, scale Vec3) Mat4 {
	t := mgl64.Translate3D(location.X, location.Y, location.Z)
	r := rotation.Normalized().mgl().Mat4()
	s := mgl64.Scale3D(scale.X, scale.Y, scale.Z)
	return Mat4{Mat4: t.Mul4(r).Mul4(s)}
}

// Muled は積 m*other を返す。
func (m Mat4) Muled(other Mat4) Mat4 {
	return Mat4{Mat4: m.Mul4(other.Mat4)}
}

// Inverted は逆行列を返す。
func (m Mat4) Inverted() Mat4 {
	return Mat4{Mat4: m.Inv()}
}

// Translation は平行移動成分を返す。
func (m Mat4) Translation() Vec3 {
	return NewVec3(m.Mat4[12], m.Mat4[13], m.Mat4[14])
}

// Scale はスケール成分を返す。
func (m Mat4) Scale() Vec3 {
	_, _, scale := m.Decompose()
	return scale
}

// Rotation は回転成分を返す。
func (m Mat4) Rotation() Quaternion {
	_, rotation, _ := m.Decompose()
	return rotation
}

// Decompose は移動・回転・スケールへ分解する。
func (m Mat4) Decompose() (Vec3, Quaternion, Vec3) {
	location := m.Translation()

	col0 := m.Col(0).Vec3()
	col1 := m.Col(1).Vec3()
	col2 := m.Col(2).Vec3()
	sx := col0.Len()
	sy := col1.Len()
	sz := col2.Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	scale := NewVec3(sx, sy, sz)
	if math.Abs(sx) < scaleEpsilon || math.Abs(sy) < scaleEpsilon || math.Abs(sz) < scaleEpsilon {
		return location, NewQuaternion(), scale
	}

	rotationMatrix := mgl64.Mat4FromCols(
		col0.Mul(1/sx).Vec4(0),
		col1.Mul(1/sy).Vec4(0),
		col2.Mul(1/sz).Vec4(0),
		mgl64.Vec4{0, 0, 0, 1},
	)
	rotation := quaternionFromMgl(mgl64.Mat4ToQuat(rotationMatrix)).Normalized()
	return location, rotation, scale
}

// WithTranslation は平行移動成分のみ差し替えた行列を返す。
func (m Mat4) WithTranslation(location Vec3) Mat4 {
	result := m
	result.Mat4[12] = location.X
	result.Mat4[13] = location.Y
	result.Mat4[14] = location.Z
	return result
}

// WithRotation は移動とスケールを保持したまま回転成分を差し替えた行列を返す。
func (m Mat4) WithRotation(rotation Quaternion) Mat4 {
	location, _, scale := m.Decompose()
	return NewMat4FromTRS(location, rotation, scale)
}

// NearEquals は各成分が許容誤差内か判定する。
func (m Mat4) NearEquals(other Mat4, epsilon float64) bool {
	return m.ApproxEqualThreshold(other.Mat4, epsilon)
}

// Values は列優先16成分を返す。
func (m Mat4) Values() []float64 {
	values := make([]float64, mat4ValueCount)
	copy(values, m.Mat4[:])
	return values
}
