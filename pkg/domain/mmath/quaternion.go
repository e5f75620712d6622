// 指示: miu200521358
package mmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"
)

// Quaternion は回転クォータニオンを表す。Real がW成分。
type Quaternion struct {
	quat.Number
}

// NewQuaternion は単位クォータニオンを生成する。
func NewQuaternion() Quaternion {
	return Quaternion{Number: quat.Number{Real: 1}}
}

// NewQuaternionByValues はW,X,Y,Z指定でクォータニオンを生成する。
func NewQuaternionByValues(w, x, y, z float64) Quaternion {
	return Quaternion{Number: quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}}
}

// NewQuaternionFromDegrees はXYZオイラー角(度)からクォータニオンを生成する。
func NewQuaternionFromDegrees(x, y, z float64) Quaternion {
	q := mgl64.AnglesToQuat(mgl64.DegToRad(x), mgl64.DegToRad(y), mgl64.DegToRad(z), mgl64.XYZ)
	return quaternionFromMgl(q)
}

// NewQuaternionFromAxisAngle は回転軸と角度(ラジアン)からクォータニオンを生成する。
func NewQuaternionFromAxisAngle(axis Vec3, radians float64) Quaternion {
	normalized := axis.Normalized()
	q := mgl64.QuatRotate(radians, mgl64.Vec3{normalized.X, normalized.Y, normalized.Z})
	return quaternionFromMgl(q)
}

// W はW成分を返す。
func (q Quaternion) W() float64 { return q.Real }

// X はX成分を返す。
func (q Quaternion) X() float64 { return q.Imag }

// Y はY成分を返す。
func (q Quaternion) Y() float64 { return q.Jmag }

// Z はZ成分を返す。
func (q Quaternion) Z() float64 { return q.Kmag }

// Muled は積 q*other を返す。
func (q Quaternion) Muled(other Quaternion) Quaternion {
	return Quaternion{Number: quat.Mul(q.Number, other.Number)}
}

// Length はノルムを返す。
func (q Quaternion) Length() float64 {
	return quat.Abs(q.Number)
}

// Normalized は正規化したクォータニオンを返す。ノルム0の場合は単位クォータニオンを返す。
func (q Quaternion) Normalized() Quaternion {
	length := q.Length()
	if length == 0 {
		return NewQuaternion()
	}
	return Quaternion{Number: quat.Scale(1/length, q.Number)}
}

// Negated は符号反転したクォータニオンを返す。同じ回転を表す。
func (q Quaternion) Negated() Quaternion {
	return Quaternion{Number: quat.Scale(-1, q.Number)}
}

// Dot は4成分の内積を返す。
func (q Quaternion) Dot(other Quaternion) float64 {
	return q.Real*other.Real + q.Imag*other.Imag + q.Jmag*other.Jmag + q.Kmag*other.Kmag
}

// MulVec3 はベクトルを回転させる。
func (q Quaternion) MulVec3(v Vec3) Vec3 {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rotated := quat.Mul(quat.Mul(q.Number, p), quat.Conj(q.Number))
	return NewVec3(rotated.Imag, rotated.Jmag, rotated.Kmag)
}

// NearEquals は同じ回転を表すか許容誤差内で判定する。
func (q Quaternion) NearEquals(other Quaternion, epsilon float64) bool {
	return math.Abs(math.Abs(q.Normalized().Dot(other.Normalized()))-1) <= epsilon
}

// Vector はW,X,Y,Zの順で成分を返す。
func (q Quaternion) Vector() []float64 {
	return []float64{q.Real, q.Imag, q.Jmag, q.Kmag}
}

// mgl はmathgl形式へ変換する。
func (q Quaternion) mgl() mgl64.Quat {
	return mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}
}

// quaternionFromMgl はmathgl形式から変換する。
func quaternionFromMgl(q mgl64.Quat) Quaternion {
	return NewQuaternionByValues(q.W, q.V[0], q.V[1], q.V[2])
}
