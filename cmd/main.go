// 指示: miu200521358
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_fk2ik/pkg/adapter/io_rig"
	"github.com/miu200521358/mu_fk2ik/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/motion"
	"github.com/miu200521358/mu_fk2ik/pkg/infra/pose"
	"github.com/miu200521358/mu_fk2ik/pkg/shared/base/config"
	"github.com/miu200521358/mu_fk2ik/pkg/shared/base/logging"
	"github.com/miu200521358/mu_fk2ik/pkg/usecase/minteractor"
	"github.com/miu200521358/mu_fk2ik/pkg/usecase/port/moutput"
	"github.com/urfave/cli/v2"
)

const (
	appName   = "mu_fk2ik"
	logPrefix = "[mu_fk2ik] "
)

// main はFK→IK変換CLIを実行する。
func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliState はサブコマンド間で共有する設定を保持する。
type cliState struct {
	out    io.Writer
	errOut io.Writer
	cfg    *config.Config
}

// run はCLI処理全体を実行する。
func run(args []string, out io.Writer, errOut io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newApp(out, errOut).RunContext(ctx, append([]string{appName}, args...))
}

// newApp はCLIアプリケーションを生成する。
func newApp(out io.Writer, errOut io.Writer) *cli.App {
	state := &cliState{out: out, errOut: errOut}
	return &cli.App{
		Name:      appName,
		Usage:     messages.AppUsage,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   messages.UsageConfig,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: messages.UsageLogLevel,
			},
		},
		Before: state.setup,
		Commands: []*cli.Command{
			state.convertCommand(),
			state.frameRangeCommand(),
			state.bonesCommand(),
		},
	}
}

// setup は設定を読み込み、既定ロガーを差し替える。
func (s *cliState) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	levelName := cfg.Log.Level
	if c.IsSet("log-level") {
		levelName = c.String("log-level")
	}
	level, err := logging.ParseLogLevel(levelName)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(s.errOut)
	logger.SetLevel(level)
	if level == logging.LOG_LEVEL_DEBUG {
		logger.EnableVerbose(logging.VERBOSE_INDEX_BAKE)
	}
	logging.SetDefaultLogger(logger)
	s.cfg = cfg
	return nil
}

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: messages.UsageIn},
		&cli.StringFlag{Name: "armature", Aliases: []string{"a"}, Usage: messages.UsageArmature},
	}
}

func (s *cliState) convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: messages.CommandConvertUsage,
		Flags: append(inputFlags(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: messages.UsageOut},
			&cli.BoolFlag{Name: "overwrite", Usage: messages.UsageOverwrite},
			&cli.StringSliceFlag{Name: "bone", Aliases: []string{"b"}, Usage: messages.UsageBone},
			&cli.StringFlag{Name: "bones-file", Usage: messages.UsageBonesFile},
			&cli.IntFlag{Name: "start", Usage: messages.UsageStart},
			&cli.IntFlag{Name: "end", Usage: messages.UsageEnd},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: messages.UsageMode},
			&cli.BoolFlag{Name: "no-scale", Usage: messages.UsageNoScale},
			&cli.BoolFlag{Name: "clear-parents", Usage: messages.UsageClearParents},
			&cli.BoolFlag{Name: "dry-run", Aliases: []string{"d"}, Usage: messages.UsageDryRun},
			&cli.BoolFlag{Name: "allow-single-frame", Usage: messages.UsageAllowSingleFrame},
			&cli.StringFlag{Name: "export-bones", Usage: messages.UsageExportBones},
		),
		Action: s.runConvert,
	}
}

func (s *cliState) frameRangeCommand() *cli.Command {
	return &cli.Command{
		Name:   "frame-range",
		Usage:  messages.CommandFrameRangeUsage,
		Flags:  inputFlags(),
		Action: s.runFrameRange,
	}
}

func (s *cliState) bonesCommand() *cli.Command {
	return &cli.Command{
		Name:  "bones",
		Usage: messages.CommandBonesUsage,
		Flags: append(inputFlags(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: messages.UsageBonesOut},
		),
		Action: s.runBones,
	}
}

// newUsecase はリグYAMLリポジトリと参照評価器を使うユースケースを生成する。
func (s *cliState) newUsecase() *minteractor.Fk2IkUsecase {
	repository := io_rig.NewRigRepository()
	repository.SetLoadProgressReporter(func(event io_rig.LoadProgressEvent) {
		if event.Type == io_rig.LoadProgressEventTypeArmatureBuilt {
			s.printf("%s %d/%d", event.ArmatureName, event.ArmatureDone, event.ArmatureTotal)
		}
	})
	return minteractor.NewFk2IkUsecase(minteractor.Fk2IkUsecaseDeps{
		Evaluator:        pose.NewEvaluator(),
		RigReader:        repository,
		RigWriter:        repository,
		ProgressInterval: s.cfg.Log.ProgressInterval(),
	})
}

// loadArmature は入力リグを読み込み、対象アーマチュア名を検証する。
func (s *cliState) loadArmature(c *cli.Context, uc *minteractor.Fk2IkUsecase) (string, error) {
	inputPath := c.String("in")
	if inputPath == "" && c.NArg() > 0 {
		inputPath = c.Args().First()
	}
	if inputPath == "" {
		return "", errors.New(messages.MessageInputRequired)
	}
	armatureName := c.String("armature")
	if armatureName == "" {
		return "", errors.New(messages.MessageArmatureRequired)
	}
	s.printf(messages.LogLoadStart, inputPath)
	if _, err := uc.LoadScene(nil, inputPath); err != nil {
		return "", fmt.Errorf("%s: %w", messages.MessageLoadFailed, err)
	}
	return armatureName, nil
}

// runConvert はIK変換を実行して結果を保存する。
func (s *cliState) runConvert(c *cli.Context) error {
	uc := s.newUsecase()
	armatureName, err := s.loadArmature(c, uc)
	if err != nil {
		return err
	}
	request, err := s.buildConvertRequest(c, armatureName)
	if err != nil {
		return err
	}

	dryRun := c.Bool("dry-run")
	if dryRun {
		copied, err := uc.Scene().Copy()
		if err != nil {
			return err
		}
		uc.SetScene(copied)
	}

	stream, err := uc.Convert(request)
	if err != nil {
		return fmt.Errorf("%s: %w", messages.MessageConvertFailed, err)
	}
	err = minteractor.Drain(c.Context, stream, s)
	result := stream.Result()
	for _, diagnostic := range result.Diagnostics {
		if !diagnostic.IsFatal() {
			s.printf(messages.LogDiagnostic, diagnostic.String())
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			if _, rollbackErr := stream.Rollback(); rollbackErr != nil {
				return errors.Join(err, rollbackErr)
			}
		}
		return fmt.Errorf("%s: %w", messages.MessageConvertFailed, err)
	}

	if exportPath := c.String("export-bones"); exportPath != "" {
		if err := io_rig.WriteBoneList(exportPath, result.ControlBones()); err != nil {
			return err
		}
		s.printf(messages.LogBonesExported, exportPath)
	}
	if dryRun {
		s.printf(messages.LogDryRun)
		return nil
	}

	inputPath := c.String("in")
	if inputPath == "" {
		inputPath = c.Args().First()
	}
	outputPath := c.String("out")
	overwrite := c.Bool("overwrite")
	if strings.TrimSpace(outputPath) == "" || filepath.Clean(outputPath) == filepath.Clean(inputPath) {
		outputPath = inputPath
		overwrite = true
	}
	if err := uc.SaveScene(nil, outputPath, nil, moutput.SaveOptions{Overwrite: overwrite}); err != nil {
		return fmt.Errorf("%s: %w", messages.MessageSaveFailed, err)
	}
	s.printf(messages.LogSaveSuccess, outputPath)
	return nil
}

// buildConvertRequest はフラグと設定から変換要求を組み立てる。
func (s *cliState) buildConvertRequest(c *cli.Context, armatureName string) (minteractor.ConvertRequest, error) {
	boneNames := append([]string(nil), c.StringSlice("bone")...)
	if bonesFile := c.String("bones-file"); bonesFile != "" {
		listed, err := io_rig.ReadBoneList(bonesFile)
		if err != nil {
			return minteractor.ConvertRequest{}, err
		}
		boneNames = append(boneNames, listed...)
	}
	if len(boneNames) == 0 {
		return minteractor.ConvertRequest{}, errors.New(messages.MessageBonesRequired)
	}

	request := minteractor.ConvertRequest{
		ArmatureName:      armatureName,
		BoneNames:         boneNames,
		Mode:              minteractor.ConvertMode(s.cfg.Convert.Mode),
		NoScale:           s.cfg.Convert.NoScale,
		ClearParentsAtEnd: s.cfg.Convert.ClearParents,
	}
	if c.IsSet("mode") {
		request.Mode = minteractor.ConvertMode(c.String("mode"))
	}
	if c.IsSet("no-scale") {
		request.NoScale = c.Bool("no-scale")
	}
	if c.IsSet("clear-parents") {
		request.ClearParentsAtEnd = c.Bool("clear-parents")
	}
	if c.IsSet("start") {
		start := motion.Frame(c.Int("start"))
		request.FrameStart = &start
	}
	if c.IsSet("end") {
		end := motion.Frame(c.Int("end"))
		request.FrameEnd = &end
	}
	if request.FrameStart != nil && request.FrameEnd != nil &&
		*request.FrameStart == *request.FrameEnd && !c.Bool("allow-single-frame") {
		return minteractor.ConvertRequest{}, errors.New(messages.MessageSingleFrameDenied)
	}
	return request, nil
}

// runFrameRange はキーフレーム範囲を表示する。
func (s *cliState) runFrameRange(c *cli.Context) error {
	uc := s.newUsecase()
	armatureName, err := s.loadArmature(c, uc)
	if err != nil {
		return err
	}
	frames, err := uc.GetFrameRange(armatureName)
	if err != nil {
		return err
	}
	s.printf(messages.LogFrameRange, frames)
	return nil
}

// runBones はボーン名リストを表示または書き出す。
func (s *cliState) runBones(c *cli.Context) error {
	uc := s.newUsecase()
	armatureName, err := s.loadArmature(c, uc)
	if err != nil {
		return err
	}
	armature, ok := uc.Scene().Armature(armatureName)
	if !ok {
		return fmt.Errorf("アーマチュアが見つかりません: %s", armatureName)
	}
	names := armature.Bones.Names()
	if outputPath := c.String("out"); outputPath != "" {
		if err := io_rig.WriteBoneList(outputPath, names); err != nil {
			return err
		}
		s.printf(messages.LogBonesExported, outputPath)
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(s.out, name)
	}
	return nil
}

// ReportProgress は変換ステップの完了を表示する。
func (s *cliState) ReportProgress(event minteractor.ProgressEvent) {
	switch event.Type {
	case minteractor.ProgressEventTypeStepCompleted:
		s.printf(messages.LogConvertStep, event.Step)
	case minteractor.ProgressEventTypeFrameBaked:
		if event.FrameIndex == event.FrameCount {
			s.printf(messages.LogConvertProgress, event.Step, event.FrameIndex, event.FrameCount)
		}
	}
}

func (s *cliState) printf(format string, params ...any) {
	fmt.Fprintf(s.out, logPrefix+format+"\n", params...)
}

var _ minteractor.IProgressReporter = (*cliState)(nil)
