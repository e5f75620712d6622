// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
)

// AddConstraints は owners[i] を targets[i] へ拘束する。
// 組は短い方の長さで打ち切り、不在ボーンを含む組は診断を記録してスキップする。
func (uc *Fk2IkUsecase) AddConstraints(
	armatureName string,
	owners []string,
	targets []string,
	noScale bool,
) ([]model.Diagnostic, error) {
	diagnostics := make([]model.Diagnostic, 0)
	armature, err := uc.resolveArmature(armatureName)
	if err != nil {
		return recordDiagnostic(diagnostics, newArmatureNotFoundDiagnostic(armatureName)), nil
	}

	count := min(len(owners), len(targets))
	bound := 0
	err = withMode(armature, model.ModePose, func() error {
		for i := 0; i < count; i++ {
			owner, target := owners[i], targets[i]
			if !armature.Bones.Contains(owner) {
				diagnostics = recordDiagnostic(diagnostics, newBoneNotFoundDiagnostic(armatureName, owner))
				continue
			}
			if !armature.Bones.Contains(target) {
				diagnostics = recordDiagnostic(diagnostics, newBoneNotFoundDiagnostic(armatureName, target))
				continue
			}
			if _, bindErr := bind(armature, owner, target, noScale); bindErr != nil {
				return bindErr
			}
			bound++
		}
		return nil
	})
	if err != nil {
		return recordDiagnostic(diagnostics, newFatalDiagnostic(armatureName, err)), err
	}
	logFk2IkInfo("コンストレイント追加完了: armature=%s pairs=%d bound=%d noScale=%t", armatureName, count, bound, noScale)
	return diagnostics, nil
}

// bindKinds は拘束に使うコンストレイント種別を評価順で返す。
func bindKinds(noScale bool) []model.ConstraintKind {
	if noScale {
		return []model.ConstraintKind{model.ConstraintCopyLocation, model.ConstraintCopyRotation}
	}
	return []model.ConstraintKind{model.ConstraintCopyTransforms}
}

// bind は owner を target へ拘束するコンストレイントを追加する。ポーズモードで呼び出す。
func bind(armature *model.Armature, owner string, target string, noScale bool) ([]*model.Constraint, error) {
	kinds := bindKinds(noScale)
	constraints := make([]*model.Constraint, 0, len(kinds))
	for _, kind := range kinds {
		constraint, err := armature.AddConstraint(kind, owner, target)
		if err != nil {
			return constraints, err
		}
		constraints = append(constraints, constraint)
		logFk2IkDebug("コンストレイント追加: armature=%s owner=%s target=%s kind=%s id=%s", armature.Name(), owner, target, kind, constraint.ID)
	}
	return constraints, nil
}
