// 指示: miu200521358
package minteractor

import (
	"fmt"
	"strings"

	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/usecase/port/moutput"
)

// SaveScene はシーンをリグ文書として保存する。scene が nil の場合は操作対象シーンを保存する。
func (uc *Fk2IkUsecase) SaveScene(rep moutput.IFileWriter, path string, scene *model.Scene, opts moutput.SaveOptions) error {
	writer := rep
	if writer == nil {
		writer = uc.rigWriter
	}
	if writer == nil {
		return fmt.Errorf("リグ保存リポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("保存先パスが未指定です")
	}
	if scene == nil {
		scene = uc.scene
	}
	for _, armature := range scene.Armatures() {
		if armature.IsBaking() {
			return fmt.Errorf("ベイク処理中のアーマチュアは保存できません: %s", armature.Name())
		}
	}
	if err := writer.Save(path, scene, opts); err != nil {
		return err
	}
	logFk2IkInfo("リグ保存完了: path=%s armatures=%d", path, len(scene.Names()))
	return nil
}
