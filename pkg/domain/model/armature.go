// 指示: miu200521358
package model

import (
	"fmt"

	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/motion"
)

// Mode はアーマチュアの編集モードを表す。
type Mode string

const (
	// ModeObject はオブジェクトモード。
	ModeObject Mode = "OBJECT"
	// ModeEdit はボーン構造を編集するモード。
	ModeEdit Mode = "EDIT"
	// ModePose はポーズとコンストレイントを編集するモード。
	ModePose Mode = "POSE"
)

// IsValid は既知のモードか判定する。
func (m Mode) IsValid() bool {
	switch m {
	case ModeObject, ModeEdit, ModePose:
		return true
	default:
		return false
	}
}

// Armature はボーン階層・コンストレイント・モーションを持つスケルトンを表す。
type Armature struct {
	name        string
	Bones       *BoneCollection
	Constraints *ConstraintCollection
	Motion      *motion.Motion
	mode        Mode
	baking      bool
}

// NewArmature はオブジェクトモードの空アーマチュアを生成する。
func NewArmature(name string) *Armature {
	return &Armature{
		name:        name,
		Bones:       NewBoneCollection(),
		Constraints: NewConstraintCollection(),
		Motion:      motion.NewMotion(),
		mode:        ModeObject,
	}
}

// Name はアーマチュア名を返す。
func (a *Armature) Name() string {
	if a == nil {
		return ""
	}
	return a.name
}

// Mode は現在のモードを返す。
func (a *Armature) Mode() Mode {
	return a.mode
}

// SetMode はモードを切り替える。ベイク中は切り替えできない。
func (a *Armature) SetMode(mode Mode) error {
	if !mode.IsValid() {
		return fmt.Errorf("不明なモードです: %s", mode)
	}
	if a.baking {
		return merrors.NewBakeInFlight(a.name)
	}
	a.mode = mode
	return nil
}

// RequireMode は現在のモードが指定モードか検証する。
func (a *Armature) RequireMode(mode Mode) error {
	if a.mode != mode {
		return merrors.NewModeMismatch(a.name, string(mode), string(a.mode))
	}
	return nil
}

// IsBaking はベイク中か判定する。
func (a *Armature) IsBaking() bool {
	return a.baking
}

// BeginBake はベイク中ロックを取得する。
func (a *Armature) BeginBake() error {
	if a.baking {
		return merrors.NewBakeInFlight(a.name)
	}
	a.baking = true
	return nil
}

// EndBake はベイク中ロックを解放する。
func (a *Armature) EndBake() {
	a.baking = false
}

// requireStructural は構造編集の前提(編集モード・ベイク外)を検証する。
func (a *Armature) requireStructural() error {
	if a.baking {
		return merrors.NewBakeInFlight(a.name)
	}
	return a.RequireMode(ModeEdit)
}

// CreateBone は like の長さとレスト行列を引き継いだ親なしボーンを追加する。
func (a *Armature) CreateBone(name string, like *Bone) (*Bone, error) {
	if err := a.requireStructural(); err != nil {
		return nil, err
	}
	bone, err := a.Bones.Create(name, like)
	if err != nil {
		return nil, merrors.WithArmature(err, a.name)
	}
	return bone, nil
}

// SetBoneParent はボーンの親を設定する。parentName が空の場合は親を解除する。
func (a *Armature) SetBoneParent(name string, parentName string) error {
	if err := a.requireStructural(); err != nil {
		return err
	}
	return merrors.WithArmature(a.Bones.SetParent(name, parentName), a.name)
}

// RemoveBone はボーンを削除する。所有するコンストレイントも合わせて削除する。
func (a *Armature) RemoveBone(name string) error {
	if err := a.requireStructural(); err != nil {
		return err
	}
	if !a.Bones.Contains(name) {
		return merrors.NewNotFound(a.name, name)
	}
	owners := make([]string, 0)
	for _, constraint := range a.Constraints.TargetingBone(name) {
		if constraint.Owner != name {
			owners = append(owners, constraint.Owner)
		}
	}
	if len(owners) > 0 {
		return merrors.NewDanglingConstraint(a.name, name, owners...)
	}
	if err := a.Bones.Remove(name); err != nil {
		return merrors.WithArmature(err, a.name)
	}
	a.Constraints.RemoveForOwner(name)
	return nil
}

// AddConstraint は所有ボーンへコンストレイントを追加する。ポーズモードでのみ有効。
func (a *Armature) AddConstraint(kind ConstraintKind, owner string, target string) (*Constraint, error) {
	if a.baking {
		return nil, merrors.NewBakeInFlight(a.name)
	}
	if err := a.RequireMode(ModePose); err != nil {
		return nil, err
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("不明なコンストレイント種別です: %s", kind)
	}
	if !a.Bones.Contains(owner) {
		return nil, merrors.NewNotFound(a.name, owner)
	}
	if !a.Bones.Contains(target) {
		return nil, merrors.NewNotFound(a.name, target)
	}
	constraint := NewConstraint(kind, owner, target)
	a.Constraints.Append(constraint)
	return constraint, nil
}

// RemoveConstraintsForOwner は所有ボーンのコンストレイントを削除し、削除数を返す。
// ベイク確定処理から呼ばれるためベイク中でも有効とする。
func (a *Armature) RemoveConstraintsForOwner(owner string) (int, error) {
	if err := a.RequireMode(ModePose); err != nil {
		return 0, err
	}
	return a.Constraints.RemoveForOwner(owner), nil
}

// RemoveConstraintsTargeting は指定ボーンをターゲットとするコンストレイントを削除し、削除数を返す。
func (a *Armature) RemoveConstraintsTargeting(target string) (int, error) {
	if err := a.RequireMode(ModePose); err != nil {
		return 0, err
	}
	return a.Constraints.RemoveTargeting(target), nil
}

// Copy はアーマチュアの複製を返す。ベイク中ロックは複製しない。
func (a *Armature) Copy() (*Armature, error) {
	bones, err := a.Bones.Copy()
	if err != nil {
		return nil, err
	}
	constraints, err := a.Constraints.Copy()
	if err != nil {
		return nil, err
	}
	copiedMotion, err := a.Motion.Copy()
	if err != nil {
		return nil, err
	}
	return &Armature{
		name:        a.name,
		Bones:       bones,
		Constraints: constraints,
		Motion:      copiedMotion,
		mode:        a.mode,
	}, nil
}
