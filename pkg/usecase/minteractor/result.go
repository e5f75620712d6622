// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/motion"
)

// ProgressEventType は変換処理の進捗イベント種別を表す。
type ProgressEventType string

const (
	// ProgressEventTypeFrameBaked は1フレーム分のキーフレーム確定イベントを表す。
	ProgressEventTypeFrameBaked ProgressEventType = "frame_baked"
	// ProgressEventTypeStepCompleted は変換ステップ完了イベントを表す。
	ProgressEventTypeStepCompleted ProgressEventType = "step_completed"
)

// ConvertStep は変換パイプラインのステップを表す。
type ConvertStep string

const (
	// ConvertStepDuplicate はIKボーン複製。
	ConvertStepDuplicate ConvertStep = "duplicate"
	// ConvertStepBindDriver はIKボーンをソースへ拘束する。
	ConvertStepBindDriver ConvertStep = "bind_driver"
	// ConvertStepBakeDriver はIKボーンのベイク。
	ConvertStepBakeDriver ConvertStep = "bake_driver"
	// ConvertStepClearSourceParents はソースボーンの親解除。
	ConvertStepClearSourceParents ConvertStep = "clear_source_parents"
	// ConvertStepBindSource はソースボーンをIKボーンへ拘束する。
	ConvertStepBindSource ConvertStep = "bind_source"
	// ConvertStepBakeSource はソースボーンのベイク。
	ConvertStepBakeSource ConvertStep = "bake_source"
	// ConvertStepCleanupDriver はIKボーンとチャンネルの削除。
	ConvertStepCleanupDriver ConvertStep = "cleanup_driver"
)

// ProgressEvent は変換処理の進捗イベントを表す。
type ProgressEvent struct {
	Type       ProgressEventType
	RunID      string
	Armature   string
	Step       ConvertStep
	Frame      motion.Frame
	FrameIndex int
	FrameCount int
	BoneCount  int
}

// IProgressReporter は変換処理の進捗通知契約を表す。
type IProgressReporter interface {
	// ReportProgress は進捗を通知する。
	ReportProgress(event ProgressEvent)
}

// ConvertMode は変換モードを表す。
type ConvertMode string

const (
	// ConvertModeReplace はソースボーンへ焼き戻してIKボーンを削除する。
	ConvertModeReplace ConvertMode = "replace"
	// ConvertModeAppend はIKボーンを制御層として残す。
	ConvertModeAppend ConvertMode = "append"
)

// IsValid は既知の変換モードか判定する。
func (m ConvertMode) IsValid() bool {
	return m == ConvertModeReplace || m == ConvertModeAppend
}

// BonePair は複製元と複製先のボーン名の組を表す。
type BonePair struct {
	Source    string
	Duplicate string
}

// DuplicateResult はボーン複製結果を表す。
type DuplicateResult struct {
	Pairs       []BonePair
	Diagnostics []model.Diagnostic
}

// Duplicates は複製先ボーン名を複製順で返す。
func (r *DuplicateResult) Duplicates() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.Pairs))
	for _, pair := range r.Pairs {
		names = append(names, pair.Duplicate)
	}
	return names
}

// Sources は複製に成功した複製元ボーン名を複製順で返す。
func (r *DuplicateResult) Sources() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.Pairs))
	for _, pair := range r.Pairs {
		names = append(names, pair.Source)
	}
	return names
}

// BakeRequest はベイク要求を表す。
type BakeRequest struct {
	ArmatureName      string
	BoneNames         []string
	FrameStart        motion.Frame
	FrameEnd          motion.Frame
	ClearParentsAtEnd bool
}

// ConvertRequest はIK変換要求を表す。
// FrameStart と FrameEnd が nil の場合はキーフレーム範囲から推定する。
type ConvertRequest struct {
	ArmatureName      string
	BoneNames         []string
	FrameStart        *motion.Frame
	FrameEnd          *motion.Frame
	Mode              ConvertMode
	NoScale           bool
	ClearParentsAtEnd bool
}

// ConvertResult はIK変換結果を表す。
type ConvertResult struct {
	RunID       string
	Armature    string
	Mode        ConvertMode
	FrameRange  motion.FrameRange
	Pairs       []BonePair
	Diagnostics []model.Diagnostic
}

// Duplicates は複製先ボーン名を返す。
func (r *ConvertResult) Duplicates() []string {
	if r == nil {
		return nil
	}
	return (&DuplicateResult{Pairs: r.Pairs}).Duplicates()
}

// Sources は複製に成功した複製元ボーン名を返す。
func (r *ConvertResult) Sources() []string {
	if r == nil {
		return nil
	}
	return (&DuplicateResult{Pairs: r.Pairs}).Sources()
}

// ControlBones は変換後にIKモーションを持つボーン名を返す。
// append では複製先、replace では複製元となる。
func (r *ConvertResult) ControlBones() []string {
	if r == nil {
		return nil
	}
	if r.Mode == ConvertModeAppend {
		return r.Duplicates()
	}
	return r.Sources()
}

// reportProgress は進捗を通知する。
func reportProgress(reporter IProgressReporter, event ProgressEvent) {
	if reporter == nil {
		return
	}
	reporter.ReportProgress(event)
}
