// 指示: miu200521358
package minteractor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
)

// replaceSteps はソースボーンへ焼き戻す変換の手順。
var replaceSteps = []ConvertStep{
	ConvertStepDuplicate,
	ConvertStepBindDriver,
	ConvertStepBakeDriver,
	ConvertStepClearSourceParents,
	ConvertStepBindSource,
	ConvertStepBakeSource,
	ConvertStepCleanupDriver,
}

// appendSteps はIKボーンを制御層として残す変換の手順。
var appendSteps = []ConvertStep{
	ConvertStepDuplicate,
	ConvertStepBindDriver,
	ConvertStepBakeDriver,
}

// ConvertStream はIK変換パイプラインを1ステップまたは1フレームずつ進めるストリーム。
type ConvertStream struct {
	uc        *Fk2IkUsecase
	request   ConvertRequest
	result    *ConvertResult
	steps     []ConvertStep
	stepIndex int
	bake      *BakeStream
	state     bakeState
	event     ProgressEvent
	err       error
}

// Convert は前提条件を検証してIK変換ストリームを生成する。
// 検証はリグを変更する前に行う。
func (uc *Fk2IkUsecase) Convert(request ConvertRequest) (*ConvertStream, error) {
	if request.Mode == "" {
		request.Mode = ConvertModeReplace
	}
	if !request.Mode.IsValid() {
		return nil, rejectFatal(request.ArmatureName, fmt.Errorf("変換モードが不正です: %s", request.Mode))
	}
	armature, err := uc.resolveArmature(request.ArmatureName)
	if err != nil {
		return nil, rejectFatal(request.ArmatureName, err)
	}
	if len(request.BoneNames) == 0 {
		return nil, rejectFatal(request.ArmatureName, merrors.NewEmptyBoneList(request.ArmatureName))
	}
	if armature.IsBaking() {
		return nil, rejectFatal(request.ArmatureName, merrors.NewBakeInFlight(request.ArmatureName))
	}
	if uc.evaluator == nil {
		return nil, rejectFatal(request.ArmatureName, fmt.Errorf("ポーズ評価器が設定されていません"))
	}
	frames, err := resolveFrameRange(armature, request.FrameStart, request.FrameEnd)
	if err != nil {
		return nil, rejectFatal(request.ArmatureName, merrors.WithArmature(err, request.ArmatureName))
	}

	steps := replaceSteps
	if request.Mode == ConvertModeAppend {
		steps = appendSteps
	}
	stream := &ConvertStream{
		uc:      uc,
		request: request,
		steps:   steps,
		result: &ConvertResult{
			RunID:      uuid.NewString(),
			Armature:   request.ArmatureName,
			Mode:       request.Mode,
			FrameRange: frames,
		},
	}
	logFk2IkInfo(
		"IK変換開始: run=%s armature=%s mode=%s bones=%d frames=%s noScale=%t",
		stream.result.RunID,
		request.ArmatureName,
		request.Mode,
		len(request.BoneNames),
		frames,
		request.NoScale,
	)
	return stream, nil
}

// Next は次のステップ、またはベイク中の次フレームを処理する。
func (s *ConvertStream) Next(ctx context.Context) bool {
	if s == nil || s.state != bakeStateRunning {
		return false
	}
	if s.stepIndex >= len(s.steps) {
		s.finish()
		return false
	}

	step := s.steps[s.stepIndex]
	if isBakeStep(step) {
		return s.nextBake(ctx, step)
	}
	if err := ctx.Err(); err != nil {
		s.cancel(err)
		return false
	}
	if err := s.runStep(step); err != nil {
		s.fail(step, err)
		return false
	}
	s.completeStep(step)
	return true
}

// nextBake はベイクステップを1フレーム進める。ベイク完了時はステップ完了イベントを返す。
func (s *ConvertStream) nextBake(ctx context.Context, step ConvertStep) bool {
	if s.bake == nil {
		if err := ctx.Err(); err != nil {
			s.cancel(err)
			return false
		}
		stream, err := s.startBake(step)
		if err != nil {
			s.fail(step, err)
			return false
		}
		s.bake = stream
	}
	if s.bake.Next(ctx) {
		s.event = s.bake.Event()
		return true
	}
	if s.bake.Cancelled() {
		s.cancel(s.bake.Err())
		return false
	}
	s.appendWarnings(s.bake.Diagnostics())
	if err := s.bake.Err(); err != nil {
		s.bake = nil
		s.fail(step, err)
		return false
	}
	s.bake = nil
	s.completeStep(step)
	return true
}

// startBake はベイクステップのストリームを生成する。
func (s *ConvertStream) startBake(step ConvertStep) (*BakeStream, error) {
	request := BakeRequest{
		ArmatureName: s.request.ArmatureName,
		FrameStart:   s.result.FrameRange.Start,
		FrameEnd:     s.result.FrameRange.End,
	}
	switch step {
	case ConvertStepBakeDriver:
		request.BoneNames = s.duplicates()
		request.ClearParentsAtEnd = s.request.Mode == ConvertModeReplace || s.request.ClearParentsAtEnd
	case ConvertStepBakeSource:
		request.BoneNames = s.sources()
	}
	stream, err := s.uc.Bake(request)
	if err != nil {
		return nil, err
	}
	stream.runID = s.result.RunID
	stream.step = step
	return stream, nil
}

// runStep は同期ステップを実行する。
func (s *ConvertStream) runStep(step ConvertStep) error {
	armatureName := s.request.ArmatureName
	var diagnostics []model.Diagnostic
	var err error
	switch step {
	case ConvertStepDuplicate:
		var duplicated *DuplicateResult
		duplicated, err = s.uc.DuplicateBones(armatureName, s.request.BoneNames)
		if duplicated != nil {
			s.result.Pairs = duplicated.Pairs
			diagnostics = duplicated.Diagnostics
		}
	case ConvertStepBindDriver:
		diagnostics, err = s.uc.AddConstraints(armatureName, s.duplicates(), s.sources(), s.request.NoScale)
	case ConvertStepClearSourceParents:
		diagnostics, err = s.uc.ClearBoneParents(armatureName, s.sources())
	case ConvertStepBindSource:
		diagnostics, err = s.uc.AddConstraints(armatureName, s.sources(), s.duplicates(), s.request.NoScale)
	case ConvertStepCleanupDriver:
		diagnostics, err = s.uc.Cleanup(armatureName, s.duplicates())
	default:
		err = fmt.Errorf("不明な変換ステップです: %s", step)
	}
	s.appendWarnings(diagnostics)
	return err
}

// completeStep はステップ完了イベントを設定して次のステップへ進む。
// 複製が1件も無い場合は以降のステップを省略する。
func (s *ConvertStream) completeStep(step ConvertStep) {
	s.event = ProgressEvent{
		Type:       ProgressEventTypeStepCompleted,
		RunID:      s.result.RunID,
		Armature:   s.request.ArmatureName,
		Step:       step,
		FrameCount: s.result.FrameRange.Count(),
		BoneCount:  len(s.result.Pairs),
	}
	logFk2IkInfo("IK変換ステップ完了: run=%s step=%s bones=%d", s.result.RunID, step, len(s.result.Pairs))
	s.stepIndex++
	if step == ConvertStepDuplicate && len(s.result.Pairs) == 0 {
		logFk2IkWarn("IK変換対象ボーンがありません: run=%s armature=%s", s.result.RunID, s.request.ArmatureName)
		s.stepIndex = len(s.steps)
	}
}

// Event は直近のイベントを返す。
func (s *ConvertStream) Event() ProgressEvent {
	return s.event
}

// Err は取消・失敗の原因を返す。
func (s *ConvertStream) Err() error {
	if s == nil {
		return nil
	}
	return s.err
}

// Done は全ステップが完了したか判定する。
func (s *ConvertStream) Done() bool {
	return s != nil && s.state == bakeStateFinished
}

// Result は変換結果を返す。中断時は完了済みステップまでの結果を返す。
func (s *ConvertStream) Result() *ConvertResult {
	result := *s.result
	result.Pairs = append([]BonePair(nil), s.result.Pairs...)
	result.Diagnostics = append([]model.Diagnostic(nil), s.result.Diagnostics...)
	return &result
}

// Resume は取消された変換を再開する。
func (s *ConvertStream) Resume() error {
	if s == nil || s.state != bakeStateCancelled {
		return fmt.Errorf("取消されていない変換は再開できません")
	}
	if s.bake != nil {
		if err := s.bake.Resume(); err != nil {
			return err
		}
	}
	s.state = bakeStateRunning
	s.err = nil
	logFk2IkInfo("IK変換再開: run=%s step=%s", s.result.RunID, s.steps[s.stepIndex])
	return nil
}

// Rollback は変換を打ち切り、複製ボーンとそのコンストレイント・チャンネルを削除する。
// ソースボーンへの変更は戻さない。
func (s *ConvertStream) Rollback() ([]model.Diagnostic, error) {
	if s.bake != nil {
		s.bake.Close()
		s.bake = nil
	}
	s.state = bakeStateClosed
	diagnostics, err := s.uc.Rollback(s.request.ArmatureName, s.duplicates())
	s.appendWarnings(diagnostics)
	if err != nil {
		return diagnostics, fmt.Errorf("IK変換のロールバックに失敗しました: run=%s: %w", s.result.RunID, err)
	}
	return diagnostics, nil
}

// cancel は取消状態へ遷移する。
func (s *ConvertStream) cancel(err error) {
	s.state = bakeStateCancelled
	s.err = err
	logFk2IkInfo("IK変換取消: run=%s step=%s", s.result.RunID, s.steps[s.stepIndex])
}

// fail は以降のステップを中断する。完了済みの変更は残す。
func (s *ConvertStream) fail(step ConvertStep, err error) {
	if s.bake != nil {
		s.bake.Close()
		s.bake = nil
	}
	s.state = bakeStateFailed
	s.err = fmt.Errorf("IK変換を中断しました: step=%s: %w", step, merrors.WithArmature(err, s.request.ArmatureName))
	diagnostic := newFatalDiagnostic(s.request.ArmatureName, err)
	s.result.Diagnostics = append(s.result.Diagnostics, diagnostic)
	logFk2IkError("IK変換中断: run=%s step=%s errorID=%s %s", s.result.RunID, step, diagnostic.ErrorID, diagnostic.Message)
}

// finish は完了状態へ遷移する。
func (s *ConvertStream) finish() {
	s.state = bakeStateFinished
	logFk2IkInfo(
		"IK変換完了: run=%s armature=%s mode=%s duplicated=%d diagnostics=%d",
		s.result.RunID,
		s.request.ArmatureName,
		s.request.Mode,
		len(s.result.Pairs),
		len(s.result.Diagnostics),
	)
}

// appendWarnings は継続可能な診断のみ結果へ追加する。中断診断は fail で記録する。
func (s *ConvertStream) appendWarnings(diagnostics []model.Diagnostic) {
	for _, diagnostic := range diagnostics {
		if diagnostic.IsFatal() {
			continue
		}
		s.result.Diagnostics = append(s.result.Diagnostics, diagnostic)
	}
}

// duplicates は複製先ボーン名を返す。
func (s *ConvertStream) duplicates() []string {
	return (&DuplicateResult{Pairs: s.result.Pairs}).Duplicates()
}

// sources は複製に成功した複製元ボーン名を返す。
func (s *ConvertStream) sources() []string {
	return (&DuplicateResult{Pairs: s.result.Pairs}).Sources()
}

// isBakeStep はベイクステップか判定する。
func isBakeStep(step ConvertStep) bool {
	return step == ConvertStepBakeDriver || step == ConvertStepBakeSource
}
