// 指示: miu200521358
package model

import (
	"fmt"
)

const (
	// RigDiagnosticBoneNotFound は指定ボーン不在の警告。
	RigDiagnosticBoneNotFound = "RigDiagnosticBoneNotFound"
	// RigDiagnosticArmatureNotFound は指定アーマチュア不在の警告。
	RigDiagnosticArmatureNotFound = "RigDiagnosticArmatureNotFound"
	// RigDiagnosticBoneMissingInPose は評価済みポーズにボーンが含まれない警告。
	RigDiagnosticBoneMissingInPose = "RigDiagnosticBoneMissingInPose"
	// RigDiagnosticStepAborted は構造不変条件違反による処理中断。
	RigDiagnosticStepAborted = "RigDiagnosticStepAborted"
)

// DiagnosticSeverity は診断の重大度を表す。
type DiagnosticSeverity string

const (
	// SeverityWarning は処理継続可能な診断。
	SeverityWarning DiagnosticSeverity = "warning"
	// SeverityFatal は処理を中断した診断。
	SeverityFatal DiagnosticSeverity = "fatal"
)

// Diagnostic は処理中に収集した警告・中断情報を表す。
type Diagnostic struct {
	ID       string
	ErrorID  string
	Severity DiagnosticSeverity
	Armature string
	BoneName string
	Message  string
}

// String はログ表示用の文字列を返す。
func (d Diagnostic) String() string {
	if d.BoneName == "" {
		return fmt.Sprintf("[%s] %s armature=%s", d.ID, d.Message, d.Armature)
	}
	return fmt.Sprintf("[%s] %s armature=%s bone=%s", d.ID, d.Message, d.Armature, d.BoneName)
}

// IsFatal は中断診断か判定する。
func (d Diagnostic) IsFatal() bool {
	return d.Severity == SeverityFatal
}
