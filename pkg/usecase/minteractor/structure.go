// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
)

// DuplicateBones は指定ボーンを <name>.IK として複製する。
// 不在ボーンは診断を記録してスキップし、名前衝突は以降の複製を中断する。
// 中断前に作成した複製は残す。
func (uc *Fk2IkUsecase) DuplicateBones(armatureName string, names []string) (*DuplicateResult, error) {
	result := &DuplicateResult{Pairs: make([]BonePair, 0, len(names))}
	armature, err := uc.resolveArmature(armatureName)
	if err != nil {
		result.Diagnostics = recordDiagnostic(result.Diagnostics, newArmatureNotFoundDiagnostic(armatureName))
		return result, nil
	}

	err = withMode(armature, model.ModeEdit, func() error {
		for _, name := range names {
			source, lookupErr := armature.Bones.GetByName(name)
			if lookupErr != nil {
				result.Diagnostics = recordDiagnostic(result.Diagnostics, newBoneNotFoundDiagnostic(armatureName, name))
				continue
			}
			duplicate, createErr := armature.CreateBone(model.IkBoneName(name), source)
			if createErr != nil {
				return createErr
			}
			duplicate.AddGroup(model.BoneGroupIK)
			result.Pairs = append(result.Pairs, BonePair{Source: name, Duplicate: duplicate.Name})
			logFk2IkDebug("ボーン複製: armature=%s source=%s duplicate=%s", armatureName, name, duplicate.Name)
		}
		return nil
	})
	if err != nil {
		result.Diagnostics = recordDiagnostic(result.Diagnostics, newFatalDiagnostic(armatureName, err))
		return result, err
	}
	logFk2IkInfo("ボーン複製完了: armature=%s requested=%d duplicated=%d", armatureName, len(names), len(result.Pairs))
	return result, nil
}

// ClearBoneParents は指定ボーンの親を解除する。ルートボーンは何もしない。
func (uc *Fk2IkUsecase) ClearBoneParents(armatureName string, names []string) ([]model.Diagnostic, error) {
	diagnostics := make([]model.Diagnostic, 0)
	armature, err := uc.resolveArmature(armatureName)
	if err != nil {
		return recordDiagnostic(diagnostics, newArmatureNotFoundDiagnostic(armatureName)), nil
	}

	err = withMode(armature, model.ModeEdit, func() error {
		for _, name := range names {
			bone, lookupErr := armature.Bones.GetByName(name)
			if lookupErr != nil {
				diagnostics = recordDiagnostic(diagnostics, newBoneNotFoundDiagnostic(armatureName, name))
				continue
			}
			if !bone.HasParent() {
				continue
			}
			if setErr := armature.SetBoneParent(name, ""); setErr != nil {
				return setErr
			}
			logFk2IkDebug("親ボーン解除: armature=%s bone=%s", armatureName, name)
		}
		return nil
	})
	if err != nil {
		return recordDiagnostic(diagnostics, newFatalDiagnostic(armatureName, err)), err
	}
	return diagnostics, nil
}

// RemoveBones は指定ボーンを削除する。
// 親として参照中、またはコンストレイントのターゲットとして参照中のボーンは削除せず中断する。
func (uc *Fk2IkUsecase) RemoveBones(armatureName string, names []string) ([]model.Diagnostic, error) {
	diagnostics := make([]model.Diagnostic, 0)
	armature, err := uc.resolveArmature(armatureName)
	if err != nil {
		return recordDiagnostic(diagnostics, newArmatureNotFoundDiagnostic(armatureName)), nil
	}
	diagnostics, err = removeBones(armature, names, diagnostics)
	return diagnostics, err
}

// removeBones は編集モードでボーンを削除する。
func removeBones(armature *model.Armature, names []string, diagnostics []model.Diagnostic) ([]model.Diagnostic, error) {
	err := withMode(armature, model.ModeEdit, func() error {
		for _, name := range names {
			if !armature.Bones.Contains(name) {
				diagnostics = recordDiagnostic(diagnostics, newBoneNotFoundDiagnostic(armature.Name(), name))
				continue
			}
			if removeErr := armature.RemoveBone(name); removeErr != nil {
				return removeErr
			}
			logFk2IkDebug("ボーン削除: armature=%s bone=%s", armature.Name(), name)
		}
		return nil
	})
	if err != nil {
		return recordDiagnostic(diagnostics, newFatalDiagnostic(armature.Name(), err)), err
	}
	return diagnostics, nil
}

// Cleanup は指定ボーンのチャンネルを削除してからボーンを削除する。
// 再実行時は不在ボーンの診断のみ記録する。
func (uc *Fk2IkUsecase) Cleanup(armatureName string, names []string) ([]model.Diagnostic, error) {
	diagnostics := make([]model.Diagnostic, 0)
	armature, err := uc.resolveArmature(armatureName)
	if err != nil {
		return recordDiagnostic(diagnostics, newArmatureNotFoundDiagnostic(armatureName)), nil
	}
	if armature.IsBaking() {
		err := merrors.NewBakeInFlight(armatureName)
		return recordDiagnostic(diagnostics, newFatalDiagnostic(armatureName, err)), err
	}

	deleted := 0
	for _, name := range names {
		deleted += armature.Motion.DeleteChannelsForBone(name)
	}
	diagnostics, err = removeBones(armature, names, diagnostics)
	if err != nil {
		return diagnostics, err
	}
	logFk2IkInfo("後始末完了: armature=%s bones=%d channels=%d", armatureName, len(names), deleted)
	return diagnostics, nil
}

// Rollback は複製ボーンに関わるコンストレイント、チャンネル、ボーンを削除する。
// 中断した変換の補償処理として使う。
func (uc *Fk2IkUsecase) Rollback(armatureName string, duplicates []string) ([]model.Diagnostic, error) {
	diagnostics := make([]model.Diagnostic, 0)
	armature, err := uc.resolveArmature(armatureName)
	if err != nil {
		return recordDiagnostic(diagnostics, newArmatureNotFoundDiagnostic(armatureName)), nil
	}

	err = withMode(armature, model.ModePose, func() error {
		for _, name := range duplicates {
			if _, removeErr := armature.RemoveConstraintsForOwner(name); removeErr != nil {
				return removeErr
			}
			if _, removeErr := armature.RemoveConstraintsTargeting(name); removeErr != nil {
				return removeErr
			}
		}
		return nil
	})
	if err != nil {
		return recordDiagnostic(diagnostics, newFatalDiagnostic(armatureName, err)), err
	}
	for _, name := range duplicates {
		armature.Motion.DeleteChannelsForBone(name)
	}
	diagnostics, err = removeBones(armature, duplicates, diagnostics)
	if err != nil {
		return diagnostics, err
	}
	logFk2IkInfo("ロールバック完了: armature=%s duplicates=%d", armatureName, len(duplicates))
	return diagnostics, nil
}
