// 指示: miu200521358
package model

import (
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
)

// BoneCollection は名前で一意なボーン集合を登録順で保持する。
type BoneCollection struct {
	values      []*Bone
	nameIndexes map[string]int
}

// NewBoneCollection は空のボーン集合を生成する。
func NewBoneCollection() *BoneCollection {
	return &BoneCollection{nameIndexes: map[string]int{}}
}

// Len はボーン数を返す。
func (c *BoneCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.values)
}

// Values は全ボーンを登録順で返す。
func (c *BoneCollection) Values() []*Bone {
	if c == nil {
		return nil
	}
	return append([]*Bone(nil), c.values...)
}

// Names は全ボーン名を登録順で返す。
func (c *BoneCollection) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.values))
	for _, bone := range c.values {
		names = append(names, bone.Name)
	}
	return names
}

// Contains はボーン名の存在を判定する。
func (c *BoneCollection) Contains(name string) bool {
	if c == nil {
		return false
	}
	_, exists := c.nameIndexes[name]
	return exists
}

// GetByName は名前でボーンを取得する。
func (c *BoneCollection) GetByName(name string) (*Bone, error) {
	if c == nil {
		return nil, merrors.NewNotFound("", name)
	}
	index, exists := c.nameIndexes[name]
	if !exists {
		return nil, merrors.NewNotFound("", name)
	}
	return c.values[index], nil
}

// Append はボーンを追加する。同名ボーンが存在する場合はエラーを返す。
func (c *BoneCollection) Append(bone *Bone) error {
	if _, exists := c.nameIndexes[bone.Name]; exists {
		return merrors.NewNameCollision("", bone.Name)
	}
	if bone.ParentName != "" && !c.Contains(bone.ParentName) {
		return merrors.NewNotFound("", bone.ParentName)
	}
	c.nameIndexes[bone.Name] = len(c.values)
	c.values = append(c.values, bone)
	return nil
}

// Create は既存ボーンの長さとレスト行列を引き継いだ親なしボーンを追加する。
func (c *BoneCollection) Create(name string, like *Bone) (*Bone, error) {
	if c.Contains(name) {
		return nil, merrors.NewNameCollision("", name)
	}
	bone := &Bone{Name: name}
	if like != nil {
		bone.Length = like.Length
		bone.Matrix = like.Matrix
	}
	if err := c.Append(bone); err != nil {
		return nil, err
	}
	return bone, nil
}

// SetParent は親ボーンを設定する。parentName が空の場合は親を解除する。
func (c *BoneCollection) SetParent(name string, parentName string) error {
	bone, err := c.GetByName(name)
	if err != nil {
		return err
	}
	if parentName == "" {
		bone.ParentName = ""
		return nil
	}
	if !c.Contains(parentName) {
		return merrors.NewNotFound("", parentName)
	}
	if c.isAncestorOrSelf(name, parentName) {
		return merrors.NewCyclicParent("", name, parentName)
	}
	bone.ParentName = parentName
	return nil
}

// isAncestorOrSelf は candidate から親を辿って name に到達するか判定する。
func (c *BoneCollection) isAncestorOrSelf(name string, candidate string) bool {
	visited := map[string]struct{}{}
	current := candidate
	for current != "" {
		if current == name {
			return true
		}
		if _, seen := visited[current]; seen {
			return true
		}
		visited[current] = struct{}{}
		bone, err := c.GetByName(current)
		if err != nil {
			return false
		}
		current = bone.ParentName
	}
	return false
}

// Children は指定ボーンを親とするボーンを登録順で返す。
func (c *BoneCollection) Children(name string) []*Bone {
	children := make([]*Bone, 0)
	if c == nil {
		return children
	}
	for _, bone := range c.values {
		if bone.ParentName == name {
			children = append(children, bone)
		}
	}
	return children
}

// Remove はボーンを削除する。子ボーンが親として参照している場合はエラーを返す。
func (c *BoneCollection) Remove(name string) error {
	index, exists := c.nameIndexes[name]
	if !exists {
		return merrors.NewNotFound("", name)
	}
	if children := c.Children(name); len(children) > 0 {
		childNames := make([]string, 0, len(children))
		for _, child := range children {
			childNames = append(childNames, child.Name)
		}
		return merrors.NewDanglingParent("", name, childNames...)
	}
	c.values = append(c.values[:index], c.values[index+1:]...)
	c.reindex()
	return nil
}

// reindex は名前索引を再構築する。
func (c *BoneCollection) reindex() {
	c.nameIndexes = make(map[string]int, len(c.values))
	for index, bone := range c.values {
		c.nameIndexes[bone.Name] = index
	}
}

// Copy はボーン集合の複製を返す。
func (c *BoneCollection) Copy() (*BoneCollection, error) {
	copied := NewBoneCollection()
	if c == nil {
		return copied, nil
	}
	for _, bone := range c.values {
		copiedBone, err := bone.Copy()
		if err != nil {
			return nil, err
		}
		copied.nameIndexes[copiedBone.Name] = len(copied.values)
		copied.values = append(copied.values, copiedBone)
	}
	return copied, nil
}
