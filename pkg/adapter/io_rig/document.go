// 指示: miu200521358
package io_rig

import (
	"github.com/miu200521358/mu_fk2ik/pkg/adapter/io_common"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/motion"
)

// rigDocument はリグYAMLのトップレベル要素を表す。
type rigDocument struct {
	Armatures []armatureDocument `yaml:"armatures"`
}

// armatureDocument はアーマチュア1件分の要素を表す。
type armatureDocument struct {
	Name        string               `yaml:"name"`
	Bones       []boneDocument       `yaml:"bones"`
	Constraints []constraintDocument `yaml:"constraints,omitempty"`
	Channels    []channelDocument    `yaml:"channels,omitempty"`
}

// boneDocument はボーン要素を表す。matrix が無い場合は head を平行移動として扱う。
type boneDocument struct {
	Name   string    `yaml:"name"`
	Parent string    `yaml:"parent,omitempty"`
	Length float64   `yaml:"length"`
	Matrix []float64 `yaml:"matrix,omitempty,flow"`
	Head   []float64 `yaml:"head,omitempty,flow"`
	Groups []string  `yaml:"groups,omitempty,flow"`
}

type constraintDocument struct {
	ID     string `yaml:"id,omitempty"`
	Kind   string `yaml:"kind"`
	Owner  string `yaml:"owner"`
	Target string `yaml:"target"`
}

// channelDocument はデータパスと成分インデックスで指定するチャンネル要素を表す。
type channelDocument struct {
	DataPath  string             `yaml:"data_path"`
	Index     int                `yaml:"index"`
	Keyframes []keyframeDocument `yaml:"keyframes"`
}

type keyframeDocument struct {
	Frame int     `yaml:"frame"`
	Value float64 `yaml:"value"`
}

// buildScene はドキュメントからシーンを構築する。
func buildScene(doc *rigDocument, reportArmature func(armature *model.Armature)) (*model.Scene, error) {
	scene := model.NewScene()
	for _, armatureDoc := range doc.Armatures {
		armature, err := buildArmature(armatureDoc)
		if err != nil {
			return nil, err
		}
		if err := scene.AddArmature(armature); err != nil {
			return nil, io_common.NewIoParseFailed("アーマチュアの登録に失敗しました", err)
		}
		if reportArmature != nil {
			reportArmature(armature)
		}
	}
	return scene, nil
}

// buildArmature はアーマチュア要素を構築する。親子関係は全ボーン登録後に設定する。
func buildArmature(doc armatureDocument) (*model.Armature, error) {
	if doc.Name == "" {
		return nil, io_common.NewIoParseFailed("アーマチュア名が空です", nil)
	}
	armature := model.NewArmature(doc.Name)
	for _, boneDoc := range doc.Bones {
		bone, err := buildBone(boneDoc)
		if err != nil {
			return nil, io_common.NewIoParseFailed("ボーン定義が不正です: armature=%s bone=%s", err, doc.Name, boneDoc.Name)
		}
		if err := armature.Bones.Append(bone); err != nil {
			return nil, io_common.NewIoParseFailed("ボーンの登録に失敗しました: armature=%s", err, doc.Name)
		}
	}
	for _, boneDoc := range doc.Bones {
		if boneDoc.Parent == "" {
			continue
		}
		if err := armature.Bones.SetParent(boneDoc.Name, boneDoc.Parent); err != nil {
			return nil, io_common.NewIoParseFailed("ボーンの親設定に失敗しました: armature=%s", err, doc.Name)
		}
	}

	for _, constraintDoc := range doc.Constraints {
		constraint, err := buildConstraint(armature, constraintDoc)
		if err != nil {
			return nil, io_common.NewIoParseFailed("コンストレイント定義が不正です: armature=%s", err, doc.Name)
		}
		armature.Constraints.Append(constraint)
	}

	for _, channelDoc := range doc.Channels {
		key, err := motion.ParseDataPath(channelDoc.DataPath, channelDoc.Index)
		if err != nil {
			return nil, io_common.NewIoParseFailed("チャンネル定義が不正です: armature=%s", err, doc.Name)
		}
		if !armature.Bones.Contains(key.BoneName) {
			return nil, io_common.NewIoParseFailed("チャンネルのボーンが存在しません: armature=%s channel=%s", nil, doc.Name, key)
		}
		channel := armature.Motion.EnsureChannel(key)
		for _, keyframe := range channelDoc.Keyframes {
			channel.Insert(motion.Frame(keyframe.Frame), keyframe.Value)
		}
	}
	return armature, nil
}

func buildBone(doc boneDocument) (*model.Bone, error) {
	if doc.Name == "" {
		return nil, io_common.NewIoParseFailed("ボーン名が空です", nil)
	}
	matrix := mmath.NewMat4()
	switch {
	case len(doc.Matrix) > 0:
		values, err := mmath.NewMat4FromValues(doc.Matrix)
		if err != nil {
			return nil, err
		}
		matrix = values
	case len(doc.Head) > 0:
		if len(doc.Head) != 3 {
			return nil, io_common.NewIoParseFailed("head の要素数が不正です: %d", nil, len(doc.Head))
		}
		matrix = mmath.NewMat4FromTranslation(mmath.NewVec3(doc.Head[0], doc.Head[1], doc.Head[2]))
	}
	bone := model.NewBone(doc.Name, doc.Length, matrix)
	for _, group := range doc.Groups {
		bone.AddGroup(group)
	}
	return bone, nil
}

func buildConstraint(armature *model.Armature, doc constraintDocument) (*model.Constraint, error) {
	kind := model.ConstraintKind(doc.Kind)
	if !kind.IsValid() {
		return nil, io_common.NewIoFormatNotSupported("未対応のコンストレイント種別です: %s", nil, doc.Kind)
	}
	for _, name := range []string{doc.Owner, doc.Target} {
		if !armature.Bones.Contains(name) {
			return nil, io_common.NewIoParseFailed("コンストレイントのボーンが存在しません: %s", nil, name)
		}
	}
	constraint := model.NewConstraint(kind, doc.Owner, doc.Target)
	if doc.ID != "" {
		constraint.ID = doc.ID
	}
	return constraint, nil
}

// newRigDocument はシーンを保存用ドキュメントへ変換する。
func newRigDocument(scene *model.Scene) *rigDocument {
	doc := &rigDocument{}
	for _, armature := range scene.Armatures() {
		armatureDoc := armatureDocument{Name: armature.Name()}
		for _, bone := range armature.Bones.Values() {
			armatureDoc.Bones = append(armatureDoc.Bones, boneDocument{
				Name:   bone.Name,
				Parent: bone.ParentName,
				Length: bone.Length,
				Matrix: bone.Matrix.Values(),
				Groups: append([]string(nil), bone.Groups...),
			})
		}
		for _, constraint := range armature.Constraints.Values() {
			armatureDoc.Constraints = append(armatureDoc.Constraints, constraintDocument{
				ID:     constraint.ID,
				Kind:   string(constraint.Kind),
				Owner:  constraint.Owner,
				Target: constraint.Target,
			})
		}
		for _, channel := range armature.Motion.Channels() {
			channelDoc := channelDocument{
				DataPath:  channel.Key.DataPath(),
				Index:     channel.Key.Index,
				Keyframes: make([]keyframeDocument, 0, channel.Len()),
			}
			for _, keyframe := range channel.Keyframes {
				channelDoc.Keyframes = append(channelDoc.Keyframes, keyframeDocument{
					Frame: int(keyframe.Frame),
					Value: keyframe.Value,
				})
			}
			armatureDoc.Channels = append(armatureDoc.Channels, channelDoc)
		}
		doc.Armatures = append(doc.Armatures, armatureDoc)
	}
	return doc
}
