// 指示: miu200521358
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/miu200521358/mu_fk2ik/pkg/adapter/io_rig"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/motion"
	"github.com/miu200521358/mu_fk2ik/pkg/infra/pose"
	"github.com/miu200521358/mu_fk2ik/pkg/usecase/minteractor"
	"github.com/miu200521358/mu_fk2ik/pkg/usecase/port/moutput"
)

const (
	batchOutputDirMode = 0o755
	// worldTolerance はreplace前後のワールド行列比較の許容誤差。
	worldTolerance = 1e-5
	boneListSuffix = ".bones.txt"
)

// batchConfig はバッチ変換の実行設定を表す。
type batchConfig struct {
	InputRoot  string
	OutputRoot string
	Mode       minteractor.ConvertMode
	NoScale    bool
	DryRun     bool
	FailFast   bool
}

// conversionEntry は1リグ分の変換入力情報を表す。
type conversionEntry struct {
	Index        int
	SourcePath   string
	BoneListPath string
	RigName      string
	CaseDir      string
	OutputPath   string
}

// conversionResult は1リグ分の変換結果を表す。
type conversionResult struct {
	Entry        conversionEntry
	Status       string
	Duration     time.Duration
	Err          error
	ProgressInfo string
}

// convertProgressCollector は Convert の進捗イベントを収集する。
type convertProgressCollector struct {
	stepCounts  map[minteractor.ConvertStep]int
	frameEvents int
	boneMax     int
}

// main はリグYAMLの一括IK変換を実行する。
func main() {
	os.Exit(run())
}

// run は実行設定を解決して一括変換を実行し、終了コードを返す。
func run() int {
	config, err := parseBatchConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定解析に失敗しました: %v\n", err)
		return 2
	}
	entries, err := buildConversionEntries(config.InputRoot, config.OutputRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "変換対象の列挙に失敗しました: %v\n", err)
		return 2
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "変換対象リグがありません")
		return 2
	}

	results := executeBatchConversion(config, entries)
	printBatchSummary(results)

	for _, result := range results {
		if result.Status == "failed" {
			return 1
		}
	}
	return 0
}

// parseBatchConfig はコマンドライン引数から実行設定を構築する。
func parseBatchConfig() (batchConfig, error) {
	defaultInputRoot, defaultOutputRoot, err := resolveDefaultRoots()
	if err != nil {
		return batchConfig{}, err
	}
	inputRoot := flag.String("input-root", defaultInputRoot, "リグYAMLとボーンリストの入力ディレクトリ")
	outputRoot := flag.String("output-root", defaultOutputRoot, "変換結果の出力ルートディレクトリ")
	mode := flag.String("mode", string(minteractor.ConvertModeReplace), "変換モード (replace|append)")
	noScale := flag.Bool("no-scale", false, "スケールをコピーしない")
	dryRun := flag.Bool("dry-run", false, "実変換せず、入力解決と出力先計画のみ表示する")
	failFast := flag.Bool("fail-fast", false, "失敗時に即時終了する")
	flag.Parse()

	trimmedOutputRoot := strings.TrimSpace(*outputRoot)
	if trimmedOutputRoot == "" {
		return batchConfig{}, errors.New("output-root が空です")
	}
	convertMode := minteractor.ConvertMode(*mode)
	if !convertMode.IsValid() {
		return batchConfig{}, fmt.Errorf("mode が不正です: %s", *mode)
	}
	return batchConfig{
		InputRoot:  filepath.Clean(strings.TrimSpace(*inputRoot)),
		OutputRoot: filepath.Clean(trimmedOutputRoot),
		Mode:       convertMode,
		NoScale:    *noScale,
		DryRun:     *dryRun,
		FailFast:   *failFast,
	}, nil
}

// resolveDefaultRoots はスクリプト配置ディレクトリ基準の既定入出力先を返す。
func resolveDefaultRoots() (string, string, error) {
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return "", "", errors.New("実行ファイル位置を取得できません")
	}
	currentDir := filepath.Dir(currentFilePath)
	return filepath.Join(currentDir, "testdata"), filepath.Join(currentDir, "output"), nil
}

// buildConversionEntries は入力ディレクトリのリグYAMLから変換対象エントリを生成する。
// ボーンリストはリグと同名の .bones.txt を使う。
func buildConversionEntries(inputRoot string, outputRoot string) ([]conversionEntry, error) {
	repository := io_rig.NewRigRepository()
	dirEntries, err := os.ReadDir(inputRoot)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0)
	for _, dirEntry := range dirEntries {
		path := filepath.Join(inputRoot, dirEntry.Name())
		if !dirEntry.IsDir() && repository.CanLoad(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	entries := make([]conversionEntry, 0, len(paths))
	for i, path := range paths {
		rigName := repository.InferName(path)
		caseDir := filepath.Join(outputRoot, fmt.Sprintf("%03d_%s", i+1, rigName))
		entries = append(entries, conversionEntry{
			Index:        i + 1,
			SourcePath:   path,
			BoneListPath: filepath.Join(inputRoot, rigName+boneListSuffix),
			RigName:      rigName,
			CaseDir:      caseDir,
			OutputPath:   filepath.Join(caseDir, rigName+".yaml"),
		})
	}
	return entries, nil
}

// executeBatchConversion は全リグの変換処理を順次実行する。
func executeBatchConversion(config batchConfig, entries []conversionEntry) []conversionResult {
	results := make([]conversionResult, 0, len(entries))
	total := len(entries)
	for _, entry := range entries {
		fmt.Printf("[%d/%d] 変換開始: rig=%s\n", entry.Index, total, entry.RigName)
		result := convertRigEntry(config, entry)
		results = append(results, result)
		switch result.Status {
		case "succeeded":
			fmt.Printf("[%d/%d] 変換成功: rig=%s output=%s elapsed=%s\n", entry.Index, total, entry.RigName, entry.OutputPath, result.Duration.Round(time.Millisecond))
			if strings.TrimSpace(result.ProgressInfo) != "" {
				fmt.Printf("[%d/%d] Convert進捗: %s\n", entry.Index, total, result.ProgressInfo)
			}
		case "dry_run":
			fmt.Printf("[%d/%d] DRY-RUN: rig=%s input=%s output=%s\n", entry.Index, total, entry.RigName, entry.SourcePath, entry.OutputPath)
		case "skipped_missing":
			fmt.Printf("[%d/%d] 入力不足でスキップ: rig=%s reason=%v\n", entry.Index, total, entry.RigName, result.Err)
		default:
			fmt.Printf("[%d/%d] 変換失敗: rig=%s reason=%v\n", entry.Index, total, entry.RigName, result.Err)
			if config.FailFast {
				return results
			}
		}
	}
	return results
}

// convertRigEntry は1リグ分の変換を実行する。リグ内の全アーマチュアへ同じボーンリストを適用する。
func convertRigEntry(config batchConfig, entry conversionEntry) conversionResult {
	result := conversionResult{
		Entry:  entry,
		Status: "failed",
	}
	boneNames, err := io_rig.ReadBoneList(entry.BoneListPath)
	if err != nil {
		result.Status = "skipped_missing"
		result.Err = err
		return result
	}
	if config.DryRun {
		result.Status = "dry_run"
		return result
	}
	if err := os.MkdirAll(entry.CaseDir, batchOutputDirMode); err != nil {
		result.Err = fmt.Errorf("出力ディレクトリ作成に失敗しました: %w", err)
		return result
	}

	repository := io_rig.NewRigRepository()
	usecase := minteractor.NewFk2IkUsecase(minteractor.Fk2IkUsecaseDeps{
		Evaluator: pose.NewEvaluator(),
		RigReader: repository,
		RigWriter: repository,
	})
	startedAt := time.Now()
	scene, err := usecase.LoadScene(nil, entry.SourcePath)
	if err != nil {
		result.Err = fmt.Errorf("LoadSceneに失敗しました: %w", err)
		return result
	}

	progressCollector := newConvertProgressCollector()
	for _, armature := range scene.Armatures() {
		if _, ok := armature.Motion.FrameRange(); !ok {
			fmt.Printf("キーフレームが無いためスキップ: armature=%s\n", armature.Name())
			continue
		}
		before, err := captureWorlds(armature, boneNames)
		if err != nil {
			result.Err = err
			return result
		}
		stream, err := usecase.Convert(minteractor.ConvertRequest{
			ArmatureName: armature.Name(),
			BoneNames:    boneNames,
			Mode:         config.Mode,
			NoScale:      config.NoScale,
		})
		if err != nil {
			result.Err = fmt.Errorf("Convertに失敗しました: armature=%s: %w", armature.Name(), err)
			return result
		}
		if err := minteractor.Drain(context.Background(), stream, progressCollector); err != nil {
			result.Err = fmt.Errorf("Convertに失敗しました: armature=%s: %w", armature.Name(), err)
			return result
		}
		if config.Mode == minteractor.ConvertModeReplace && !config.NoScale {
			if err := verifyWorlds(armature, before); err != nil {
				result.Err = err
				return result
			}
		}
	}
	if err := usecase.SaveScene(nil, entry.OutputPath, nil, moutput.SaveOptions{Overwrite: true}); err != nil {
		result.Err = fmt.Errorf("SaveSceneに失敗しました: %w", err)
		return result
	}

	result.Status = "succeeded"
	result.Duration = time.Since(startedAt)
	result.ProgressInfo = progressCollector.Summary()
	return result
}

// worldSnapshot は変換前のボーンごとのワールド行列列を表す。
type worldSnapshot struct {
	frames motion.FrameRange
	worlds map[string][]mmath.Mat4
}

// captureWorlds は変換前の対象ボーンのワールド行列をフレームごとに記録する。
func captureWorlds(armature *model.Armature, boneNames []string) (*worldSnapshot, error) {
	frames, ok := armature.Motion.FrameRange()
	snapshot := &worldSnapshot{frames: frames, worlds: map[string][]mmath.Mat4{}}
	if !ok {
		return snapshot, nil
	}
	evaluator := pose.NewEvaluator()
	for frame := frames.Start; frame <= frames.End; frame++ {
		evaluated, err := evaluator.Evaluate(armature, frame)
		if err != nil {
			return nil, fmt.Errorf("変換前ポーズの評価に失敗しました: armature=%s frame=%d: %w", armature.Name(), frame, err)
		}
		for _, name := range boneNames {
			if world, ok := evaluated.Matrix(name); ok {
				snapshot.worlds[name] = append(snapshot.worlds[name], world)
			}
		}
	}
	return snapshot, nil
}

// verifyWorlds は replace 後のワールド行列が変換前と一致するか検証する。
func verifyWorlds(armature *model.Armature, snapshot *worldSnapshot) error {
	evaluator := pose.NewEvaluator()
	for frame := snapshot.frames.Start; frame <= snapshot.frames.End && len(snapshot.worlds) > 0; frame++ {
		evaluated, err := evaluator.Evaluate(armature, frame)
		if err != nil {
			return fmt.Errorf("変換後ポーズの評価に失敗しました: armature=%s frame=%d: %w", armature.Name(), frame, err)
		}
		index := int(frame - snapshot.frames.Start)
		for name, worlds := range snapshot.worlds {
			world, ok := evaluated.Matrix(name)
			if !ok {
				return fmt.Errorf("変換後ポーズにボーンがありません: armature=%s bone=%s", armature.Name(), name)
			}
			if !world.NearEquals(worlds[index], worldTolerance) {
				return fmt.Errorf("変換前後でワールド行列が一致しません: armature=%s bone=%s frame=%d", armature.Name(), name, frame)
			}
		}
	}
	return nil
}

// printBatchSummary は変換結果の集計を標準出力へ表示する。
func printBatchSummary(results []conversionResult) {
	succeeded := 0
	failed := 0
	skipped := 0
	dryRun := 0
	for _, result := range results {
		switch result.Status {
		case "succeeded":
			succeeded++
		case "dry_run":
			dryRun++
		case "skipped_missing":
			skipped++
		default:
			failed++
		}
	}
	fmt.Printf(
		"バッチ変換サマリ: total=%d succeeded=%d failed=%d skipped_missing=%d dry_run=%d\n",
		len(results),
		succeeded,
		failed,
		skipped,
		dryRun,
	)
}

// newConvertProgressCollector は Convert 進捗収集器を生成する。
func newConvertProgressCollector() *convertProgressCollector {
	return &convertProgressCollector{
		stepCounts: map[minteractor.ConvertStep]int{},
	}
}

// ReportProgress は Convert の進捗イベントを収集する。
func (collector *convertProgressCollector) ReportProgress(event minteractor.ProgressEvent) {
	if collector == nil {
		return
	}
	switch event.Type {
	case minteractor.ProgressEventTypeFrameBaked:
		collector.frameEvents++
	case minteractor.ProgressEventTypeStepCompleted:
		collector.stepCounts[event.Step]++
	}
	if event.BoneCount > collector.boneMax {
		collector.boneMax = event.BoneCount
	}
}

// Summary は収集した Convert 進捗の要約文字列を返す。
func (collector *convertProgressCollector) Summary() string {
	if collector == nil || len(collector.stepCounts) == 0 {
		return ""
	}
	steps := make([]string, 0, len(collector.stepCounts))
	for step := range collector.stepCounts {
		steps = append(steps, string(step))
	}
	sort.Strings(steps)
	return fmt.Sprintf(
		"steps=%d frames=%d boneMax=%d stages=%s",
		len(collector.stepCounts),
		collector.frameEvents,
		collector.boneMax,
		strings.Join(steps, ","),
	)
}
