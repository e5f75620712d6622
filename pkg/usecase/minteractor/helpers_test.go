// 指示: miu200521358
package minteractor

import (
	"strings"
	"testing"

	"github.com/miu200521358/mu_fk2ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/motion"
	"github.com/miu200521358/mu_fk2ik/pkg/infra/pose"
	"github.com/miu200521358/mu_fk2ik/pkg/shared/base/logging"
)

const testEpsilon = 1e-6

// newRigScene は Arm と子ボーン Hand を持つ Rig アーマチュアのシーンを生成する。
func newRigScene(t *testing.T) *model.Scene {
	t.Helper()
	armature := model.NewArmature("Rig")
	if err := armature.Bones.Append(model.NewBone("Arm", 1, mmath.NewMat4())); err != nil {
		t.Fatalf("append Arm failed: %v", err)
	}
	hand := model.NewBone("Hand", 0.5, mmath.NewMat4FromTranslation(mmath.NewVec3(0, 1, 0)))
	hand.ParentName = "Arm"
	if err := armature.Bones.Append(hand); err != nil {
		t.Fatalf("append Hand failed: %v", err)
	}
	scene := model.NewScene()
	if err := scene.AddArmature(armature); err != nil {
		t.Fatalf("add armature failed: %v", err)
	}
	return scene
}

// newTestUsecase は参照評価器付きのユースケースを生成する。
func newTestUsecase(scene *model.Scene) *Fk2IkUsecase {
	return NewFk2IkUsecase(Fk2IkUsecaseDeps{
		Scene:     scene,
		Evaluator: pose.NewEvaluator(),
	})
}

// rigArmature はテスト用シーンから Rig を取り出す。
func rigArmature(t *testing.T, uc *Fk2IkUsecase) *model.Armature {
	t.Helper()
	armature, ok := uc.Scene().Armature("Rig")
	if !ok {
		t.Fatalf("Rig not found")
	}
	return armature
}

// keyRotation は回転キーフレームを全成分へ挿入する。
func keyRotation(armature *model.Armature, boneName string, frame motion.Frame, rotation mmath.Quaternion) {
	for index, value := range rotation.Vector() {
		armature.Motion.InsertKeyframe(motion.NewChannelKey(boneName, motion.PropertyRotationQuaternion, index), frame, value)
	}
}

// keyLocation は位置キーフレームを全成分へ挿入する。
func keyLocation(armature *model.Armature, boneName string, frame motion.Frame, location mmath.Vec3) {
	for index, value := range location.Vector() {
		armature.Motion.InsertKeyframe(motion.NewChannelKey(boneName, motion.PropertyLocation, index), frame, value)
	}
}

// evaluateWorlds は指定範囲の各フレームでボーンのアーマチュア空間行列を求める。
func evaluateWorlds(t *testing.T, armature *model.Armature, boneName string, frames motion.FrameRange) []mmath.Mat4 {
	t.Helper()
	evaluator := pose.NewEvaluator()
	worlds := make([]mmath.Mat4, 0, frames.Count())
	for frame := frames.Start; frame <= frames.End; frame++ {
		evaluated, err := evaluator.Evaluate(armature, frame)
		if err != nil {
			t.Fatalf("evaluate failed: frame=%d err=%v", frame, err)
		}
		world, ok := evaluated.Matrix(boneName)
		if !ok {
			t.Fatalf("bone missing in pose: frame=%d bone=%s", frame, boneName)
		}
		worlds = append(worlds, world)
	}
	return worlds
}

// keyedFrames はチャンネルのキーフレーム位置を返す。
func keyedFrames(t *testing.T, armature *model.Armature, key motion.ChannelKey) []motion.Frame {
	t.Helper()
	channel, ok := armature.Motion.Channel(key)
	if !ok {
		t.Fatalf("channel missing: %s", key)
	}
	return channel.Frames()
}

// frameSequence は start から end までのフレーム列を返す。
func frameSequence(start motion.Frame, end motion.Frame) []motion.Frame {
	frames := make([]motion.Frame, 0, int(end-start)+1)
	for frame := start; frame <= end; frame++ {
		frames = append(frames, frame)
	}
	return frames
}

// recordingReporter は通知された進捗イベントを保持する。
type recordingReporter struct {
	events []ProgressEvent
}

func (r *recordingReporter) ReportProgress(event ProgressEvent) {
	r.events = append(r.events, event)
}

func (r *recordingReporter) count(eventType ProgressEventType) int {
	count := 0
	for _, event := range r.events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

// swapTestLogger は既定ロガーをバッファ記録用へ差し替える。
func swapTestLogger(t *testing.T) logging.ILogger {
	t.Helper()
	logger := logging.NewLogger(nil)
	logger.SetLevel(logging.LOG_LEVEL_DEBUG)
	prevLogger := logging.DefaultLogger()
	logging.SetDefaultLogger(logger)
	t.Cleanup(func() {
		logging.SetDefaultLogger(prevLogger)
	})
	return logger
}

// countLogLines は部分文字列を含むログ行の数を返す。
func countLogLines(logger logging.ILogger, substr string) int {
	count := 0
	for _, line := range logger.MessageBuffer().Lines() {
		if strings.Contains(line, substr) {
			count++
		}
	}
	return count
}

func framePtr(frame motion.Frame) *motion.Frame {
	return &frame
}
