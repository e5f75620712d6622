// 指示: miu200521358
package minteractor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/motion"
	"github.com/miu200521358/mu_fk2ik/pkg/usecase/port/moutput"
	"golang.org/x/time/rate"
)

// IProgressStream はフレーム単位で進行する処理の契約を表す。
type IProgressStream interface {
	// Next は次の単位を処理し、イベントがあれば true を返す。
	Next(ctx context.Context) bool
	// Event は直近のイベントを返す。
	Event() ProgressEvent
	// Err は中断・失敗の原因を返す。
	Err() error
}

// Drain はストリームを最後まで進め、各イベントを通知する。
func Drain(ctx context.Context, stream IProgressStream, reporter IProgressReporter) error {
	for stream.Next(ctx) {
		reportProgress(reporter, stream.Event())
	}
	return stream.Err()
}

type bakeState int

const (
	bakeStateRunning bakeState = iota
	bakeStateCancelled
	bakeStateFinished
	bakeStateFailed
	bakeStateClosed
)

// BakeStream は1フレームずつポーズを評価してキーフレームを確定するストリーム。
// 最終フレーム確定後に対象ボーンのコンストレイントを削除し、必要なら親を解除する。
type BakeStream struct {
	runID        string
	step         ConvertStep
	armatureName string
	armature     *model.Armature
	evaluator    moutput.IPoseEvaluator
	boneNames    []string
	frames       motion.FrameRange
	next         motion.Frame
	clearParents bool
	state        bakeState
	event        ProgressEvent
	err          error
	diagnostics  []model.Diagnostic
	rotations    map[string]mmath.Quaternion
	progressLog  *rate.Limiter
}

// Bake はベイクを開始する。範囲不正はキーフレームを書き込む前にエラーを返す。
// アーマチュアが無い場合は空のストリームと診断を返す。
func (uc *Fk2IkUsecase) Bake(request BakeRequest) (*BakeStream, error) {
	frames, err := motion.NewFrameRange(request.FrameStart, request.FrameEnd)
	if err != nil {
		return nil, rejectFatal(request.ArmatureName, merrors.WithArmature(err, request.ArmatureName))
	}
	stream := &BakeStream{
		runID:        uuid.NewString(),
		armatureName: request.ArmatureName,
		evaluator:    uc.evaluator,
		frames:       frames,
		next:         frames.Start,
		clearParents: request.ClearParentsAtEnd,
		rotations:    map[string]mmath.Quaternion{},
		progressLog:  rate.NewLimiter(rate.Every(uc.progressInterval), 1),
	}

	armature, err := uc.resolveArmature(request.ArmatureName)
	if err != nil {
		stream.diagnostics = recordDiagnostic(stream.diagnostics, newArmatureNotFoundDiagnostic(request.ArmatureName))
		stream.state = bakeStateFinished
		return stream, nil
	}
	if uc.evaluator == nil {
		return nil, rejectFatal(request.ArmatureName, fmt.Errorf("ポーズ評価器が設定されていません"))
	}
	if armature.IsBaking() {
		return nil, rejectFatal(request.ArmatureName, merrors.NewBakeInFlight(request.ArmatureName))
	}
	stream.armature = armature

	for _, name := range request.BoneNames {
		if !armature.Bones.Contains(name) {
			stream.diagnostics = recordDiagnostic(stream.diagnostics, newBoneNotFoundDiagnostic(request.ArmatureName, name))
			continue
		}
		for _, constraint := range armature.Constraints.ForOwner(name) {
			if !armature.Bones.Contains(constraint.Target) {
				return nil, rejectFatal(request.ArmatureName, merrors.NewConstraintTargetMissing(request.ArmatureName, name, constraint.Target))
			}
		}
		stream.boneNames = append(stream.boneNames, name)
	}

	if err := stream.acquire(); err != nil {
		return nil, rejectFatal(request.ArmatureName, err)
	}
	logFk2IkInfo(
		"ベイク開始: armature=%s bones=%d frames=%s clearParents=%t",
		request.ArmatureName,
		len(stream.boneNames),
		frames,
		request.ClearParentsAtEnd,
	)
	return stream, nil
}

// Next は次のフレームを評価してキーフレームを確定する。
// ctx はフレームごとに確認し、取消時はロックを解放して false を返す。
func (s *BakeStream) Next(ctx context.Context) bool {
	if s == nil || s.state != bakeStateRunning {
		return false
	}
	if err := ctx.Err(); err != nil {
		s.cancel(err)
		return false
	}

	frame := s.next
	if err := s.bakeFrame(frame); err != nil {
		s.fail(err)
		return false
	}
	s.event = ProgressEvent{
		Type:       ProgressEventTypeFrameBaked,
		RunID:      s.runID,
		Armature:   s.armatureName,
		Step:       s.step,
		Frame:      frame,
		FrameIndex: int(frame-s.frames.Start) + 1,
		FrameCount: s.frames.Count(),
		BoneCount:  len(s.boneNames),
	}
	s.logProgress()
	s.next++

	if frame == s.frames.End {
		if err := s.finalize(); err != nil {
			s.fail(err)
			return true
		}
		s.state = bakeStateFinished
		logFk2IkInfo("ベイク完了: armature=%s bones=%d frames=%s", s.armatureName, len(s.boneNames), s.frames)
	}
	return true
}

// Event は直近のフレーム確定イベントを返す。
func (s *BakeStream) Event() ProgressEvent {
	return s.event
}

// Err は取消・失敗の原因を返す。
func (s *BakeStream) Err() error {
	if s == nil {
		return nil
	}
	return s.err
}

// Done はベイクと確定処理が完了したか判定する。
func (s *BakeStream) Done() bool {
	return s != nil && s.state == bakeStateFinished
}

// Cancelled は取消状態か判定する。
func (s *BakeStream) Cancelled() bool {
	return s != nil && s.state == bakeStateCancelled
}

// Diagnostics は収集した診断を返す。
func (s *BakeStream) Diagnostics() []model.Diagnostic {
	if s == nil {
		return nil
	}
	return append([]model.Diagnostic(nil), s.diagnostics...)
}

// FrameRange はベイク範囲を返す。
func (s *BakeStream) FrameRange() motion.FrameRange {
	return s.frames
}

// BoneNames はベイク対象のボーン名を返す。
func (s *BakeStream) BoneNames() []string {
	return append([]string(nil), s.boneNames...)
}

// Resume は取消されたベイクを未確定フレームから再開する。
func (s *BakeStream) Resume() error {
	if s == nil || s.state != bakeStateCancelled {
		return fmt.Errorf("取消されていないベイクは再開できません")
	}
	if err := s.acquire(); err != nil {
		return err
	}
	s.state = bakeStateRunning
	s.err = nil
	logFk2IkInfo("ベイク再開: armature=%s frame=%d", s.armatureName, s.next)
	return nil
}

// Close は未完了のベイクを打ち切ってロックを解放する。確定済みのキーフレームは残す。
func (s *BakeStream) Close() {
	if s == nil {
		return
	}
	if s.state == bakeStateRunning {
		s.release()
	}
	if s.state == bakeStateRunning || s.state == bakeStateCancelled {
		s.state = bakeStateClosed
	}
}

// acquire はポーズモードへ切り替えてベイク中ロックを取得する。
func (s *BakeStream) acquire() error {
	if err := s.armature.SetMode(model.ModePose); err != nil {
		return err
	}
	return s.armature.BeginBake()
}

// release はベイク中ロックを解放してオブジェクトモードへ戻す。
func (s *BakeStream) release() {
	if s.armature == nil {
		return
	}
	s.armature.EndBake()
	_ = s.armature.SetMode(model.ModeObject)
}

// cancel は取消状態へ遷移する。コンストレイント・複製ボーン・確定済みフレームは残す。
func (s *BakeStream) cancel(err error) {
	s.release()
	s.state = bakeStateCancelled
	s.err = err
	logFk2IkInfo("ベイク取消: armature=%s nextFrame=%d", s.armatureName, s.next)
}

// fail は失敗状態へ遷移する。
func (s *BakeStream) fail(err error) {
	s.release()
	s.state = bakeStateFailed
	s.err = merrors.WithArmature(err, s.armatureName)
	s.diagnostics = recordDiagnostic(s.diagnostics, newFatalDiagnostic(s.armatureName, s.err))
}

// bakeFrame は1フレーム分のポーズを評価してキーフレームを書き込む。
func (s *BakeStream) bakeFrame(frame motion.Frame) error {
	pose, err := s.evaluator.Evaluate(s.armature, frame)
	if err != nil {
		return fmt.Errorf("ポーズ評価に失敗しました: frame=%d: %w", frame, err)
	}
	for _, name := range s.boneNames {
		world, ok := pose.Matrix(name)
		if !ok {
			diagnostic := newDiagnostic(model.RigDiagnosticBoneMissingInPose, merrors.NewNotFound(s.armatureName, name), name)
			diagnostic.Message = fmt.Sprintf("評価済みポーズにボーンがありません: frame=%d", frame)
			s.diagnostics = recordDiagnostic(s.diagnostics, diagnostic)
			continue
		}
		bone, err := s.armature.Bones.GetByName(name)
		if err != nil {
			return err
		}
		basis := s.visualBasis(bone, world, pose)
		s.insertBasisKeyframes(name, frame, basis)
	}
	return nil
}

// visualBasis は評価済み行列を再現するローカル変換を求める。
// 確定後に親を解除する場合は親なしとして求める。
func (s *BakeStream) visualBasis(bone *model.Bone, world mmath.Mat4, pose *moutput.Pose) mmath.Mat4 {
	if s.clearParents || !bone.HasParent() {
		return bone.Matrix.Inverted().Muled(world)
	}
	parent, err := s.armature.Bones.GetByName(bone.ParentName)
	if err != nil {
		return bone.Matrix.Inverted().Muled(world)
	}
	parentWorld, ok := pose.Matrix(bone.ParentName)
	if !ok {
		return bone.Matrix.Inverted().Muled(world)
	}
	restInParent := parentWorld.Muled(parent.Matrix.Inverted()).Muled(bone.Matrix)
	return restInParent.Inverted().Muled(world)
}

// insertBasisKeyframes は位置・回転・スケールの全成分をキーフレームとして書き込む。
// 回転は直前フレームと同じ半球へ揃える。
func (s *BakeStream) insertBasisKeyframes(boneName string, frame motion.Frame, basis mmath.Mat4) {
	location, rotation, scale := basis.Decompose()
	if previous, exists := s.rotations[boneName]; exists && previous.Dot(rotation) < 0 {
		rotation = rotation.Negated()
	}
	s.rotations[boneName] = rotation

	values := map[motion.BoneProperty][]float64{
		motion.PropertyLocation:           location.Vector(),
		motion.PropertyRotationQuaternion: rotation.Vector(),
		motion.PropertyScale:              scale.Vector(),
	}
	for _, property := range motion.BoneProperties {
		for index, value := range values[property] {
			s.armature.Motion.InsertKeyframe(motion.NewChannelKey(boneName, property, index), frame, value)
		}
	}
}

// finalize はベイク対象のコンストレイントを削除し、必要なら親を解除してオブジェクトモードへ戻す。
func (s *BakeStream) finalize() error {
	removed := 0
	for _, name := range s.boneNames {
		count, err := s.armature.RemoveConstraintsForOwner(name)
		if err != nil {
			return err
		}
		removed += count
	}
	s.armature.EndBake()

	if !s.clearParents {
		logFk2IkDebug("ベイク確定: armature=%s constraintsRemoved=%d", s.armatureName, removed)
		return s.armature.SetMode(model.ModeObject)
	}
	err := withMode(s.armature, model.ModeEdit, func() error {
		for _, name := range s.boneNames {
			bone, err := s.armature.Bones.GetByName(name)
			if err != nil || !bone.HasParent() {
				continue
			}
			if err := s.armature.SetBoneParent(name, ""); err != nil {
				return err
			}
		}
		return nil
	})
	logFk2IkDebug("ベイク確定: armature=%s constraintsRemoved=%d parentsCleared=%t", s.armatureName, removed, err == nil)
	return err
}

// logProgress は進捗ログを間引いて出力する。最終フレームは必ず出力する。
func (s *BakeStream) logProgress() {
	if s.event.FrameIndex != s.event.FrameCount && !s.progressLog.Allow() {
		return
	}
	logFk2IkInfo(
		"ベイク進捗: armature=%s frame=%d (%d/%d)",
		s.armatureName,
		s.event.Frame,
		s.event.FrameIndex,
		s.event.FrameCount,
	)
}
