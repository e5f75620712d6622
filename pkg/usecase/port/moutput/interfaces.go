// 指示: miu200521358
package moutput

import (
	"github.com/miu200521358/mu_fk2ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/motion"
)

// IFileReader はリグ文書の読み込み契約を表す。
type IFileReader interface {
	// CanLoad は読み込み可否を判定する。
	CanLoad(path string) bool
	// InferName はパスから表示名を推定する。
	InferName(path string) string
	// Load はリグ文書を読み込む。
	Load(path string) (*model.Scene, error)
}

// IFileWriter はリグ文書の書き込み契約を表す。
type IFileWriter interface {
	// Save はリグ文書を保存する。
	Save(path string, scene *model.Scene, opts SaveOptions) error
}

// SaveOptions は保存時のオプションを表す。
type SaveOptions struct {
	// Overwrite が false の場合、既存ファイルへの上書きを拒否する。
	Overwrite bool
}

// IPoseEvaluator はコンストレイント適用後のポーズ評価契約を表す。
type IPoseEvaluator interface {
	// Evaluate は指定フレームのアーマチュア空間ボーン行列を評価する。
	Evaluate(armature *model.Armature, frame motion.Frame) (*Pose, error)
}

// Pose は1フレーム分のアーマチュア空間ボーン行列を表す。
type Pose struct {
	Frame    motion.Frame
	matrices map[string]mmath.Mat4
}

// NewPose は空のポーズを生成する。
func NewPose(frame motion.Frame) *Pose {
	return &Pose{Frame: frame, matrices: map[string]mmath.Mat4{}}
}

// Set はボーン行列を設定する。
func (p *Pose) Set(boneName string, matrix mmath.Mat4) {
	p.matrices[boneName] = matrix
}

// Matrix はボーン行列を返す。評価対象外のボーンは false を返す。
func (p *Pose) Matrix(boneName string) (mmath.Mat4, bool) {
	if p == nil {
		return mmath.Mat4{}, false
	}
	matrix, exists := p.matrices[boneName]
	return matrix, exists
}

// Len は評価済みボーン数を返す。
func (p *Pose) Len() int {
	if p == nil {
		return 0
	}
	return len(p.matrices)
}
