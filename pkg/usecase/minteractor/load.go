// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/usecase/port/moutput"
)

// LoadScene はリグ文書を読み込み、操作対象シーンとして設定する。
func (uc *Fk2IkUsecase) LoadScene(rep moutput.IFileReader, path string) (*model.Scene, error) {
	repo := rep
	if repo == nil {
		repo = uc.rigReader
	}
	if repo == nil {
		return nil, fmt.Errorf("リグ読み込みリポジトリが設定されていません")
	}
	if !repo.CanLoad(path) {
		return nil, fmt.Errorf("読み込めないリグ文書です: %s", path)
	}
	scene, err := repo.Load(path)
	if err != nil {
		return nil, err
	}
	if scene == nil {
		return nil, fmt.Errorf("リグ読み込み結果が空です")
	}
	uc.scene = scene
	logFk2IkInfo("リグ読込完了: name=%s armatures=%d", repo.InferName(path), len(scene.Names()))
	return scene, nil
}
