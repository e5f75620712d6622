// 指示: miu200521358
package minteractor

import (
	"time"

	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
	"github.com/miu200521358/mu_fk2ik/pkg/usecase/port/moutput"
)

// Fk2IkUsecaseDeps はIK変換ユースケースの依存を表す。
type Fk2IkUsecaseDeps struct {
	Scene            *model.Scene
	Evaluator        moutput.IPoseEvaluator
	RigReader        moutput.IFileReader
	RigWriter        moutput.IFileWriter
	ProgressInterval time.Duration
}

// Fk2IkUsecase はFKボーンのIK化処理をまとめたユースケースを表す。
// 全操作は単一のシーンに対して逐次実行する。
type Fk2IkUsecase struct {
	scene            *model.Scene
	evaluator        moutput.IPoseEvaluator
	rigReader        moutput.IFileReader
	rigWriter        moutput.IFileWriter
	progressInterval time.Duration
}

// NewFk2IkUsecase はIK変換ユースケースを生成する。
func NewFk2IkUsecase(deps Fk2IkUsecaseDeps) *Fk2IkUsecase {
	scene := deps.Scene
	if scene == nil {
		scene = model.NewScene()
	}
	return &Fk2IkUsecase{
		scene:            scene,
		evaluator:        deps.Evaluator,
		rigReader:        deps.RigReader,
		rigWriter:        deps.RigWriter,
		progressInterval: deps.ProgressInterval,
	}
}

// Scene は操作対象シーンを返す。
func (uc *Fk2IkUsecase) Scene() *model.Scene {
	return uc.scene
}

// SetScene は操作対象シーンを差し替える。nil は無視する。
func (uc *Fk2IkUsecase) SetScene(scene *model.Scene) {
	if scene == nil {
		return
	}
	uc.scene = scene
}

// resolveArmature はアーマチュアを解決する。
func (uc *Fk2IkUsecase) resolveArmature(armatureName string) (*model.Armature, error) {
	armature, ok := uc.scene.Armature(armatureName)
	if !ok {
		return nil, merrors.NewNotFound(armatureName)
	}
	return armature, nil
}

// withMode はモードを切り替えて処理を実行し、オブジェクトモードへ戻す。
func withMode(armature *model.Armature, mode model.Mode, fn func() error) error {
	if err := armature.SetMode(mode); err != nil {
		return err
	}
	err := fn()
	if restoreErr := armature.SetMode(model.ModeObject); restoreErr != nil && err == nil {
		err = restoreErr
	}
	return err
}
