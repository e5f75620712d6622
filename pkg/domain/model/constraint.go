// 指示: miu200521358
package model

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"
)

// ConstraintKind はコンストレイント種別を表す。
type ConstraintKind string

const (
	// ConstraintCopyLocation はターゲットの位置をコピーする。
	ConstraintCopyLocation ConstraintKind = "COPY_LOCATION"
	// ConstraintCopyRotation はターゲットの回転をコピーする。
	ConstraintCopyRotation ConstraintKind = "COPY_ROTATION"
	// ConstraintCopyTransforms はターゲットの変換全体(スケール含む)をコピーする。
	ConstraintCopyTransforms ConstraintKind = "COPY_TRANSFORMS"
)

// IsValid は既知の種別か判定する。
func (k ConstraintKind) IsValid() bool {
	switch k {
	case ConstraintCopyLocation, ConstraintCopyRotation, ConstraintCopyTransforms:
		return true
	default:
		return false
	}
}

// Constraint はボーン間の変換コピー制約を表す。
type Constraint struct {
	ID     string
	Kind   ConstraintKind
	Owner  string
	Target string
}

// NewConstraint はIDを採番してコンストレイントを生成する。
func NewConstraint(kind ConstraintKind, owner string, target string) *Constraint {
	return &Constraint{
		ID:     uuid.NewString(),
		Kind:   kind,
		Owner:  owner,
		Target: target,
	}
}

// ConstraintCollection は所有ボーンごとのコンストレイント列を保持する。
// 同一所有ボーンのコンストレイントは追加順に評価される。
type ConstraintCollection struct {
	byOwner map[string][]*Constraint
	owners  []string
}

// NewConstraintCollection は空のコンストレイント集合を生成する。
func NewConstraintCollection() *ConstraintCollection {
	return &ConstraintCollection{byOwner: map[string][]*Constraint{}}
}

// Len はコンストレイント総数を返す。
func (c *ConstraintCollection) Len() int {
	if c == nil {
		return 0
	}
	count := 0
	for _, constraints := range c.byOwner {
		count += len(constraints)
	}
	return count
}

// Append はコンストレイントを所有ボーンの末尾へ追加する。
func (c *ConstraintCollection) Append(constraint *Constraint) {
	if _, exists := c.byOwner[constraint.Owner]; !exists {
		c.owners = append(c.owners, constraint.Owner)
	}
	c.byOwner[constraint.Owner] = append(c.byOwner[constraint.Owner], constraint)
}

// ForOwner は所有ボーンのコンストレイントを評価順で返す。
func (c *ConstraintCollection) ForOwner(owner string) []*Constraint {
	if c == nil {
		return nil
	}
	return append([]*Constraint(nil), c.byOwner[owner]...)
}

// Values は全コンストレイントを所有ボーン登録順・評価順で返す。
func (c *ConstraintCollection) Values() []*Constraint {
	if c == nil {
		return nil
	}
	values := make([]*Constraint, 0)
	for _, owner := range c.owners {
		values = append(values, c.byOwner[owner]...)
	}
	return values
}

// TargetingBone は指定ボーンをターゲットとするコンストレイントを返す。
func (c *ConstraintCollection) TargetingBone(target string) []*Constraint {
	found := make([]*Constraint, 0)
	for _, constraint := range c.Values() {
		if constraint.Target == target {
			found = append(found, constraint)
		}
	}
	return found
}

// RemoveForOwner は所有ボーンのコンストレイントを全て削除し、削除数を返す。
func (c *ConstraintCollection) RemoveForOwner(owner string) int {
	if c == nil {
		return 0
	}
	removed := len(c.byOwner[owner])
	delete(c.byOwner, owner)
	c.owners = slices.DeleteFunc(c.owners, func(name string) bool { return name == owner })
	return removed
}

// RemoveTargeting は指定ボーンをターゲットとするコンストレイントを削除し、削除数を返す。
func (c *ConstraintCollection) RemoveTargeting(target string) int {
	if c == nil {
		return 0
	}
	removed := 0
	for _, owner := range append([]string(nil), c.owners...) {
		kept := slices.DeleteFunc(c.byOwner[owner], func(constraint *Constraint) bool {
			return constraint.Target == target
		})
		removed += len(c.byOwner[owner]) - len(kept)
		if len(kept) == 0 {
			c.RemoveForOwner(owner)
			continue
		}
		c.byOwner[owner] = kept
	}
	return removed
}

// Copy はコンストレイント集合の複製を返す。
func (c *ConstraintCollection) Copy() (*ConstraintCollection, error) {
	copied := NewConstraintCollection()
	for _, constraint := range c.Values() {
		copiedConstraint := &Constraint{}
		if err := deepcopy.Copy(copiedConstraint, *constraint); err != nil {
			return nil, fmt.Errorf("コンストレイントの複製に失敗しました: %s: %w", constraint.ID, err)
		}
		copied.Append(copiedConstraint)
	}
	return copied, nil
}
