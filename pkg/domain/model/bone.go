// 指示: miu200521358
package model

import (
	"fmt"
	"slices"

	"github.com/miu200521358/mu_fk2ik/pkg/domain/mmath"
	"github.com/tiendc/go-deepcopy"
)

const (
	// BoneGroupIK はIK化で生成したボーンの所属グループ名。
	BoneGroupIK = "IK"
	// IkBoneSuffix は複製ボーン名の接尾辞。
	IkBoneSuffix = ".IK"
)

// Bone はアーマチュア内のボーンを表す。
type Bone struct {
	Name       string
	Length     float64
	Matrix     mmath.Mat4
	ParentName string
	Groups     []string
}

// NewBone はレスト行列指定でボーンを生成する。
func NewBone(name string, length float64, matrix mmath.Mat4) *Bone {
	return &Bone{Name: name, Length: length, Matrix: matrix}
}

// IkBoneName は複製ボーン名を返す。
func IkBoneName(sourceName string) string {
	return sourceName + IkBoneSuffix
}

// HasParent は親ボーンを持つか判定する。
func (b *Bone) HasParent() bool {
	return b != nil && b.ParentName != ""
}

// Head はレスト状態の根元位置を返す。
func (b *Bone) Head() mmath.Vec3 {
	return b.Matrix.Translation()
}

// InGroup はグループ所属を判定する。
func (b *Bone) InGroup(group string) bool {
	return b != nil && slices.Contains(b.Groups, group)
}

// AddGroup はグループへ所属させる。既に所属している場合は何もしない。
func (b *Bone) AddGroup(group string) {
	if b == nil || b.InGroup(group) {
		return
	}
	b.Groups = append(b.Groups, group)
}

// Copy はボーンの複製を返す。
func (b *Bone) Copy() (*Bone, error) {
	copied := &Bone{}
	if err := deepcopy.Copy(copied, *b); err != nil {
		return nil, fmt.Errorf("ボーンの複製に失敗しました: %s: %w", b.Name, err)
	}
	return copied, nil
}
