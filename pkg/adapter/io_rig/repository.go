// 指示: miu200521358
package io_rig

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_fk2ik/pkg/adapter/io_common"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/shared/base/logging"
	"github.com/miu200521358/mu_fk2ik/pkg/usecase/port/moutput"
	"gopkg.in/yaml.v3"
)

// LoadProgressEventType はリグ読込進捗イベント種別を表す。
type LoadProgressEventType string

const (
	// LoadProgressEventTypeFileReadComplete はファイル読込完了イベントを表す。
	LoadProgressEventTypeFileReadComplete LoadProgressEventType = "file_read_complete"
	// LoadProgressEventTypeDocumentParsed はYAML解析完了イベントを表す。
	LoadProgressEventTypeDocumentParsed LoadProgressEventType = "document_parsed"
	// LoadProgressEventTypeArmatureBuilt はアーマチュア構築イベントを表す。
	LoadProgressEventTypeArmatureBuilt LoadProgressEventType = "armature_built"
	// LoadProgressEventTypeCompleted はリグ読込完了イベントを表す。
	LoadProgressEventTypeCompleted LoadProgressEventType = "completed"
)

// LoadProgressEvent はリグ読込進捗イベントを表す。
type LoadProgressEvent struct {
	Type          LoadProgressEventType
	FileSizeBytes int
	ArmatureTotal int
	ArmatureDone  int
	ArmatureName  string
}

// RigRepository はリグYAMLの読み書き契約を表す。
type RigRepository struct {
	loadProgressReporter func(LoadProgressEvent)
}

var (
	_ moutput.IFileReader = (*RigRepository)(nil)
	_ moutput.IFileWriter = (*RigRepository)(nil)
)

// NewRigRepository はRigRepositoryを生成する。
func NewRigRepository() *RigRepository {
	return &RigRepository{}
}

// SetLoadProgressReporter はリグ読込進捗受信コールバックを設定する。
func (r *RigRepository) SetLoadProgressReporter(reporter func(LoadProgressEvent)) {
	if r == nil {
		return
	}
	r.loadProgressReporter = reporter
}

// CanLoad は拡張子に応じて読み込み可否を判定する。
func (r *RigRepository) CanLoad(path string) bool {
	ext := filepath.Ext(path)
	return strings.EqualFold(ext, ".yaml") || strings.EqualFold(ext, ".yml")
}

// InferName はパスから表示名を推定する。
func (r *RigRepository) InferName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

// Load はリグYAMLを読み込む。
func (r *RigRepository) Load(path string) (*model.Scene, error) {
	if !r.CanLoad(path) {
		return nil, io_common.NewIoExtInvalid(path, nil)
	}
	loadTargetName := filepath.Base(path)
	logRigInfo("リグ読込開始: file=%s", loadTargetName)

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, io_common.NewIoFileNotFound(path, err)
		}
		return nil, io_common.NewIoParseFailed("リグファイルの読み取りに失敗しました", err)
	}
	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeFileReadComplete,
		FileSizeBytes: len(b),
	})

	doc := rigDocument{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, io_common.NewIoParseFailed("リグYAMLの解析に失敗しました", err)
	}
	total := len(doc.Armatures)
	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeDocumentParsed,
		FileSizeBytes: len(b),
		ArmatureTotal: total,
	})
	logRigDebug("リグ読込ステップ: YAML解析完了 armatures=%d", total)

	done := 0
	scene, err := buildScene(&doc, func(armature *model.Armature) {
		done++
		r.reportLoadProgress(LoadProgressEvent{
			Type:          LoadProgressEventTypeArmatureBuilt,
			FileSizeBytes: len(b),
			ArmatureTotal: total,
			ArmatureDone:  done,
			ArmatureName:  armature.Name(),
		})
		logRigDebug(
			"リグ読込ステップ: アーマチュア構築完了 armature=%s bones=%d constraints=%d channels=%d",
			armature.Name(),
			armature.Bones.Len(),
			armature.Constraints.Len(),
			armature.Motion.Len(),
		)
	})
	if err != nil {
		return nil, err
	}

	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeCompleted,
		FileSizeBytes: len(b),
		ArmatureTotal: total,
		ArmatureDone:  done,
	})
	logRigInfo("リグ読込完了: file=%s armatures=%d", loadTargetName, total)
	return scene, nil
}

// Save はシーンをリグYAMLとして保存する。
func (r *RigRepository) Save(path string, scene *model.Scene, opts moutput.SaveOptions) error {
	if !r.CanLoad(path) {
		return io_common.NewIoExtInvalid(path, nil)
	}
	if scene == nil {
		return io_common.NewIoSaveFailed("保存対象のシーンがありません", nil)
	}
	if !opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return io_common.NewIoFileExists(path)
		}
	}

	b, err := yaml.Marshal(newRigDocument(scene))
	if err != nil {
		return io_common.NewIoSaveFailed("リグYAMLの生成に失敗しました", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return io_common.NewIoSaveFailed("出力先フォルダの作成に失敗しました: %s", err, dir)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return io_common.NewIoSaveFailed("リグファイルの書き込みに失敗しました: %s", err, path)
	}
	logRigInfo("リグ保存完了: file=%s armatures=%d bytes=%d", filepath.Base(path), len(scene.Names()), len(b))
	return nil
}

// reportLoadProgress は読込進捗イベントを通知する。
func (r *RigRepository) reportLoadProgress(event LoadProgressEvent) {
	if r == nil || r.loadProgressReporter == nil {
		return
	}
	r.loadProgressReporter(event)
}

// logRigInfo はリグ入出力のINFOログを出力する。
func logRigInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logRigDebug はリグ入出力のデバッグログを出力する。
func logRigDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}
