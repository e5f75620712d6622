// 指示: miu200521358
package minteractor

import (
	"errors"

	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
	"github.com/miu200521358/mu_fk2ik/pkg/shared/base/logging"
)

// newBoneNotFoundDiagnostic はボーン不在の警告診断を生成する。
func newBoneNotFoundDiagnostic(armatureName string, boneName string) model.Diagnostic {
	return newDiagnostic(model.RigDiagnosticBoneNotFound, merrors.NewNotFound(armatureName, boneName), boneName)
}

// newArmatureNotFoundDiagnostic はアーマチュア不在の警告診断を生成する。
func newArmatureNotFoundDiagnostic(armatureName string) model.Diagnostic {
	return newDiagnostic(model.RigDiagnosticArmatureNotFound, merrors.NewNotFound(armatureName), "")
}

// newFatalDiagnostic は中断診断を生成する。
func newFatalDiagnostic(armatureName string, err error) model.Diagnostic {
	boneName := ""
	var commonErr *merrors.CommonError
	if errors.As(err, &commonErr) && len(commonErr.BoneNames) > 0 {
		boneName = commonErr.BoneNames[0]
	}
	diagnostic := newDiagnostic(model.RigDiagnosticStepAborted, err, boneName)
	diagnostic.Severity = model.SeverityFatal
	if diagnostic.Armature == "" {
		diagnostic.Armature = armatureName
	}
	return diagnostic
}

// rejectFatal はストリーム生成前の中断エラーを中断診断として記録し、そのまま返す。
func rejectFatal(armatureName string, err error) error {
	recordDiagnostic(nil, newFatalDiagnostic(armatureName, err))
	return err
}

// newDiagnostic はエラーから診断を生成する。
func newDiagnostic(id string, err error, boneName string) model.Diagnostic {
	diagnostic := model.Diagnostic{
		ID:       id,
		ErrorID:  merrors.ExtractErrorID(err),
		Severity: model.SeverityWarning,
		BoneName: boneName,
		Message:  err.Error(),
	}
	var commonErr *merrors.CommonError
	if errors.As(err, &commonErr) {
		diagnostic.Armature = commonErr.Armature
		diagnostic.Message = commonErr.Message
	}
	return diagnostic
}

// recordDiagnostic は診断を記録してログへ出力する。
func recordDiagnostic(diagnostics []model.Diagnostic, diagnostic model.Diagnostic) []model.Diagnostic {
	if diagnostic.IsFatal() {
		logFk2IkError("%s", diagnostic.String())
	} else {
		logFk2IkWarn("%s", diagnostic.String())
	}
	return append(diagnostics, diagnostic)
}

// logFk2IkInfo はIK変換のINFOログを出力する。
func logFk2IkInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logFk2IkDebug はIK変換のデバッグログを出力する。
func logFk2IkDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
	if logger.IsVerboseEnabled(logging.VERBOSE_INDEX_BAKE) {
		logger.Verbose(logging.VERBOSE_INDEX_BAKE, "[DEBUG] "+format, params...)
	}
}

// logFk2IkWarn はIK変換の警告ログを出力する。
func logFk2IkWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
}

// logFk2IkError はIK変換のエラーログを出力する。
func logFk2IkError(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Error(format, params...)
}
