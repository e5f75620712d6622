// 指示: miu200521358
// Package merrors はリグ操作のエラー種別を提供する。
package merrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind はエラー種別を表す。
type ErrorKind string

const (
	// KindNotFound はボーン・アーマチュア不在。
	KindNotFound ErrorKind = "not_found"
	// KindInvalidRange はフレーム範囲不正。
	KindInvalidRange ErrorKind = "invalid_range"
	// KindNoAnimationData はキーフレーム不在。
	KindNoAnimationData ErrorKind = "no_animation_data"
	// KindNameCollision は複製先ボーン名の衝突。
	KindNameCollision ErrorKind = "name_collision"
	// KindDanglingParent は親として参照中のボーン削除。
	KindDanglingParent ErrorKind = "dangling_parent"
	// KindCyclicParent は親子循環。
	KindCyclicParent ErrorKind = "cyclic_parent"
	// KindModeMismatch はモード不一致。
	KindModeMismatch ErrorKind = "mode_mismatch"
	// KindBakeInFlight はベイク中の操作。
	KindBakeInFlight ErrorKind = "bake_in_flight"
	// KindConstraintTargetMissing はコンストレイントのターゲット解決失敗。
	KindConstraintTargetMissing ErrorKind = "constraint_target_missing"
	// KindDanglingConstraint はコンストレイントのターゲットとして参照中のボーン削除。
	KindDanglingConstraint ErrorKind = "dangling_constraint"
	// KindEmptyBoneList は対象ボーン未指定。
	KindEmptyBoneList ErrorKind = "empty_bone_list"
	// KindDependencyCycle は評価依存の循環。
	KindDependencyCycle ErrorKind = "dependency_cycle"
)

// errorIDs は種別ごとのエラーIDを保持する。
var errorIDs = map[ErrorKind]string{
	KindNotFound:                "21101",
	KindInvalidRange:            "21201",
	KindNoAnimationData:         "21202",
	KindNameCollision:           "21301",
	KindDanglingParent:          "21302",
	KindCyclicParent:            "21303",
	KindDanglingConstraint:      "21304",
	KindModeMismatch:            "21401",
	KindBakeInFlight:            "21402",
	KindConstraintTargetMissing: "21501",
	KindDependencyCycle:         "21502",
	KindEmptyBoneList:           "21601",
}

// CommonError はエラーID付きのリグ操作エラーを表す。
type CommonError struct {
	Kind      ErrorKind
	Armature  string
	BoneNames []string
	Message   string
	Cause     error
}

// Error はエラーメッセージを返す。
func (e *CommonError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Armature != "" {
		fmt.Fprintf(&b, " armature=%s", e.Armature)
	}
	if len(e.BoneNames) > 0 {
		fmt.Fprintf(&b, " bones=%s", strings.Join(e.BoneNames, ","))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap は原因エラーを返す。
func (e *CommonError) Unwrap() error {
	return e.Cause
}

// ErrorID はエラーIDを返す。
func (e *CommonError) ErrorID() string {
	return errorIDs[e.Kind]
}

// IsFatal は構造不変条件違反か判定する。NotFound のみ継続可能とする。
func (e *CommonError) IsFatal() bool {
	return e.Kind != KindNotFound
}

// newError は種別指定でエラーを生成する。
func newError(kind ErrorKind, armature string, message string, boneNames ...string) *CommonError {
	return &CommonError{
		Kind:      kind,
		Armature:  armature,
		BoneNames: append([]string(nil), boneNames...),
		Message:   message,
	}
}

// NewNotFound はボーン・アーマチュア不在エラーを生成する。
func NewNotFound(armature string, boneNames ...string) *CommonError {
	if len(boneNames) == 0 {
		return newError(KindNotFound, armature, "アーマチュアが見つかりません")
	}
	return newError(KindNotFound, armature, "ボーンが見つかりません", boneNames...)
}

// NewInvalidRange はフレーム範囲不正エラーを生成する。
func NewInvalidRange(start int, end int) *CommonError {
	return newError(KindInvalidRange, "", fmt.Sprintf("終了フレームが開始フレームより前です: start=%d end=%d", start, end))
}

// NewNoAnimationData はキーフレーム不在エラーを生成する。
func NewNoAnimationData(armature string) *CommonError {
	return newError(KindNoAnimationData, armature, "キーフレームが存在しないためフレーム範囲を推定できません")
}

// NewNameCollision は複製先ボーン名の衝突エラーを生成する。
func NewNameCollision(armature string, name string) *CommonError {
	return newError(KindNameCollision, armature, "同名のボーンが既に存在します", name)
}

// NewDanglingParent は親として参照中のボーン削除エラーを生成する。
func NewDanglingParent(armature string, name string, children ...string) *CommonError {
	err := newError(KindDanglingParent, armature, "子ボーンが親として参照しているため削除できません", name)
	if len(children) > 0 {
		err.Message = fmt.Sprintf("%s: children=%s", err.Message, strings.Join(children, ","))
	}
	return err
}

// NewCyclicParent は親子循環エラーを生成する。
func NewCyclicParent(armature string, name string, parent string) *CommonError {
	return newError(KindCyclicParent, armature, "親子関係が循環するため設定できません", name, parent)
}

// NewDanglingConstraint はコンストレイントのターゲット参照中のボーン削除エラーを生成する。
func NewDanglingConstraint(armature string, name string, owners ...string) *CommonError {
	err := newError(KindDanglingConstraint, armature, "コンストレイントのターゲットとして参照されているため削除できません", name)
	if len(owners) > 0 {
		err.Message = fmt.Sprintf("%s: owners=%s", err.Message, strings.Join(owners, ","))
	}
	return err
}

// NewModeMismatch はモード不一致エラーを生成する。
func NewModeMismatch(armature string, want string, got string) *CommonError {
	return newError(KindModeMismatch, armature, fmt.Sprintf("モードが不正です: want=%s got=%s", want, got))
}

// NewBakeInFlight はベイク中の操作エラーを生成する。
func NewBakeInFlight(armature string) *CommonError {
	return newError(KindBakeInFlight, armature, "ベイク処理中のため操作できません")
}

// NewConstraintTargetMissing はコンストレイントのターゲット解決失敗エラーを生成する。
func NewConstraintTargetMissing(armature string, owner string, target string) *CommonError {
	return newError(KindConstraintTargetMissing, armature, fmt.Sprintf("コンストレイントのターゲットが見つかりません: target=%s", target), owner)
}

// NewEmptyBoneList は対象ボーン未指定エラーを生成する。
func NewEmptyBoneList(armature string) *CommonError {
	return newError(KindEmptyBoneList, armature, "対象ボーンが指定されていません")
}

// NewDependencyCycle は評価依存の循環エラーを生成する。
func NewDependencyCycle(armature string, boneNames ...string) *CommonError {
	return newError(KindDependencyCycle, armature, "ボーン評価の依存関係が循環しています", boneNames...)
}

// WithArmature はアーマチュア名が未設定のエラーへアーマチュア名を補う。
func WithArmature(err error, armature string) error {
	var commonErr *CommonError
	if errors.As(err, &commonErr) && commonErr.Armature == "" {
		commonErr.Armature = armature
	}
	return err
}

// kindOf はエラー連鎖から種別を取り出す。
func kindOf(err error) (ErrorKind, bool) {
	var commonErr *CommonError
	if errors.As(err, &commonErr) {
		return commonErr.Kind, true
	}
	return "", false
}

// isKind はエラー連鎖が指定種別を含むか判定する。
func isKind(err error, kind ErrorKind) bool {
	got, ok := kindOf(err)
	return ok && got == kind
}

// IsNotFoundError は不在エラーか判定する。
func IsNotFoundError(err error) bool { return isKind(err, KindNotFound) }

// IsInvalidRangeError はフレーム範囲不正エラーか判定する。
func IsInvalidRangeError(err error) bool { return isKind(err, KindInvalidRange) }

// IsNoAnimationDataError はキーフレーム不在エラーか判定する。
func IsNoAnimationDataError(err error) bool { return isKind(err, KindNoAnimationData) }

// IsNameConflictError はボーン名衝突エラーか判定する。
func IsNameConflictError(err error) bool { return isKind(err, KindNameCollision) }

// IsDanglingParentError は親参照中削除エラーか判定する。
func IsDanglingParentError(err error) bool { return isKind(err, KindDanglingParent) }

// IsCyclicParentError は親子循環エラーか判定する。
func IsCyclicParentError(err error) bool { return isKind(err, KindCyclicParent) }

// IsDanglingConstraintError はターゲット参照中削除エラーか判定する。
func IsDanglingConstraintError(err error) bool { return isKind(err, KindDanglingConstraint) }

// IsModeMismatchError はモード不一致エラーか判定する。
func IsModeMismatchError(err error) bool { return isKind(err, KindModeMismatch) }

// IsBakeInFlightError はベイク中操作エラーか判定する。
func IsBakeInFlightError(err error) bool { return isKind(err, KindBakeInFlight) }

// IsConstraintTargetMissingError はターゲット解決失敗エラーか判定する。
func IsConstraintTargetMissingError(err error) bool {
	return isKind(err, KindConstraintTargetMissing)
}

// IsEmptyBoneListError は対象ボーン未指定エラーか判定する。
func IsEmptyBoneListError(err error) bool { return isKind(err, KindEmptyBoneList) }

// IsDependencyCycleError は評価依存循環エラーか判定する。
func IsDependencyCycleError(err error) bool { return isKind(err, KindDependencyCycle) }

// IErrorID はエラーIDを持つエラーを表す。
type IErrorID interface {
	error
	ErrorID() string
}

// ExtractErrorID はエラー連鎖からエラーIDを取り出す。見つからない場合は空文字を返す。
func ExtractErrorID(err error) string {
	var idErr IErrorID
	if errors.As(err, &idErr) {
		return idErr.ErrorID()
	}
	return ""
}

// ExtractKind はエラー連鎖から種別を取り出す。見つからない場合は空文字を返す。
func ExtractKind(err error) ErrorKind {
	kind, _ := kindOf(err)
	return kind
}
