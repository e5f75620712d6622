// 指示: miu200521358
package model

import (
	"fmt"
)

// Scene は名前付きアーマチュアの集合を表す。
type Scene struct {
	armatures map[string]*Armature
	names     []string
}

// NewScene は空のシーンを生成する。
func NewScene() *Scene {
	return &Scene{armatures: map[string]*Armature{}}
}

// AddArmature はアーマチュアを追加する。同名のアーマチュアは追加できない。
func (s *Scene) AddArmature(armature *Armature) error {
	if armature == nil {
		return fmt.Errorf("アーマチュアがnilです")
	}
	if _, exists := s.armatures[armature.Name()]; exists {
		return fmt.Errorf("同名のアーマチュアが既に存在します: %s", armature.Name())
	}
	s.armatures[armature.Name()] = armature
	s.names = append(s.names, armature.Name())
	return nil
}

// Armature は名前でアーマチュアを解決する。
func (s *Scene) Armature(name string) (*Armature, bool) {
	if s == nil {
		return nil, false
	}
	armature, exists := s.armatures[name]
	return armature, exists
}

// Names はアーマチュア名を登録順で返す。
func (s *Scene) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Armatures はアーマチュアを登録順で返す。
func (s *Scene) Armatures() []*Armature {
	if s == nil {
		return nil
	}
	armatures := make([]*Armature, 0, len(s.names))
	for _, name := range s.names {
		armatures = append(armatures, s.armatures[name])
	}
	return armatures
}

// Copy はシーンの複製を返す。
func (s *Scene) Copy() (*Scene, error) {
	copied := NewScene()
	for _, armature := range s.Armatures() {
		copiedArmature, err := armature.Copy()
		if err != nil {
			return nil, fmt.Errorf("アーマチュアの複製に失敗しました: %s: %w", armature.Name(), err)
		}
		if err := copied.AddArmature(copiedArmature); err != nil {
			return nil, err
		}
	}
	return copied, nil
}
