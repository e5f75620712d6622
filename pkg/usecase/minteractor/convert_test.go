// 指示: miu200521358
package minteractor

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAnimatedRig は Arm を1-10フレームで回転させた Rig を持つユースケースを返す。
func newAnimatedRig(t *testing.T) (*Fk2IkUsecase, *model.Armature) {
	t.Helper()
	uc := newTestUsecase(newRigScene(t))
	armature := rigArmature(t, uc)
	keyRotation(armature, "Arm", 1, mmath.NewQuaternion())
	keyRotation(armature, "Arm", 10, mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Z_VEC3, math.Pi/2))
	return uc, armature
}

// runConvert は変換を最後まで実行して結果を返す。
func runConvert(t *testing.T, uc *Fk2IkUsecase, request ConvertRequest, reporter IProgressReporter) *ConvertResult {
	t.Helper()
	stream, err := uc.Convert(request)
	require.NoError(t, err)
	require.NoError(t, Drain(context.Background(), stream, reporter))
	require.True(t, stream.Done())
	return stream.Result()
}

func TestConvertReplaceRebakesSourceAndRemovesDriver(t *testing.T) {
	uc, armature := newAnimatedRig(t)
	logger := swapTestLogger(t)

	result := runConvert(t, uc, ConvertRequest{
		ArmatureName: "Rig",
		BoneNames:    []string{"Arm"},
		FrameStart:   framePtr(1),
		FrameEnd:     framePtr(10),
		Mode:         ConvertModeReplace,
		NoScale:      true,
	}, nil)

	assert.Equal(t, []string{"Arm.IK"}, result.Duplicates())
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, []string{"Arm", "Hand"}, armature.Bones.Names())
	assert.Zero(t, armature.Constraints.Len())
	assert.Empty(t, armature.Motion.ChannelsForBone("Arm.IK"))
	assert.Equal(t, model.ModeObject, armature.Mode())
	assert.False(t, armature.IsBaking())

	channels := armature.Motion.ChannelsForBone("Arm")
	require.Len(t, channels, 10)
	for _, channel := range channels {
		if diff := cmp.Diff(frameSequence(1, 10), channel.Frames()); diff != "" {
			t.Fatalf("keyed frames mismatch %s (-want +got):\n%s", channel.Key, diff)
		}
	}

	completed := false
	for _, line := range logger.MessageBuffer().Lines() {
		if strings.Contains(line, "IK変換完了") {
			completed = true
		}
	}
	assert.True(t, completed, "completion log missing")
}

func TestConvertReplacePreservesWorldTransforms(t *testing.T) {
	uc, armature := newAnimatedRig(t)
	keyLocation(armature, "Hand", 1, mmath.NewVec3(0, 0.2, 0))
	keyLocation(armature, "Hand", 10, mmath.NewVec3(0.3, 0, -0.1))
	keyRotation(armature, "Hand", 10, mmath.NewQuaternionFromAxisAngle(mmath.UNIT_X_VEC3, 0.6))
	frames := motion.FrameRange{Start: 1, End: 10}
	beforeArm := evaluateWorlds(t, armature, "Arm", frames)
	beforeHand := evaluateWorlds(t, armature, "Hand", frames)

	runConvert(t, uc, ConvertRequest{
		ArmatureName: "Rig",
		BoneNames:    []string{"Arm", "Hand"},
		Mode:         ConvertModeReplace,
	}, nil)

	hand, err := armature.Bones.GetByName("Hand")
	require.NoError(t, err)
	assert.False(t, hand.HasParent())
	assert.Equal(t, 2, armature.Bones.Len())

	afterArm := evaluateWorlds(t, armature, "Arm", frames)
	afterHand := evaluateWorlds(t, armature, "Hand", frames)
	for i := range beforeArm {
		assert.True(t, afterArm[i].NearEquals(beforeArm[i], testEpsilon), "Arm frame=%d", i+1)
		assert.True(t, afterHand[i].NearEquals(beforeHand[i], testEpsilon), "Hand frame=%d", i+1)
	}
}

func TestConvertAppendKeepsSourceChannels(t *testing.T) {
	uc, armature := newAnimatedRig(t)
	before, err := armature.Motion.Copy()
	require.NoError(t, err)
	frames := motion.FrameRange{Start: 1, End: 10}
	beforeArm := evaluateWorlds(t, armature, "Arm", frames)

	result := runConvert(t, uc, ConvertRequest{
		ArmatureName: "Rig",
		BoneNames:    []string{"Arm"},
		Mode:         ConvertModeAppend,
	}, nil)

	assert.Equal(t, ConvertModeAppend, result.Mode)
	assert.Equal(t, 3, armature.Bones.Len())
	driver, err := armature.Bones.GetByName("Arm.IK")
	require.NoError(t, err)
	assert.True(t, driver.InGroup(model.BoneGroupIK))

	for _, channel := range before.ChannelsForBone("Arm") {
		current, ok := armature.Motion.Channel(channel.Key)
		require.True(t, ok, channel.Key.String())
		if diff := cmp.Diff(channel.Frames(), current.Frames()); diff != "" {
			t.Fatalf("source channel changed %s (-want +got):\n%s", channel.Key, diff)
		}
		for _, frame := range channel.Frames() {
			want, _ := channel.Get(frame)
			got, _ := current.Get(frame)
			assert.InDelta(t, want, got, testEpsilon)
		}
	}
	assert.Len(t, armature.Motion.ChannelsForBone("Arm"), len(before.ChannelsForBone("Arm")))

	driverChannels := armature.Motion.ChannelsForBone("Arm.IK")
	require.Len(t, driverChannels, 10)
	for _, channel := range driverChannels {
		assert.Equal(t, frameSequence(1, 10), channel.Frames(), channel.Key.String())
	}
	afterDriver := evaluateWorlds(t, armature, "Arm.IK", frames)
	for i := range beforeArm {
		assert.True(t, afterDriver[i].NearEquals(beforeArm[i], testEpsilon), "frame=%d", i+1)
	}
}

func TestConvertInfersFrameRangeFromKeyframes(t *testing.T) {
	uc, _ := newAnimatedRig(t)

	stream, err := uc.Convert(ConvertRequest{ArmatureName: "Rig", BoneNames: []string{"Arm"}})
	require.NoError(t, err)
	assert.Equal(t, motion.FrameRange{Start: 1, End: 10}, stream.Result().FrameRange)
	assert.Equal(t, ConvertModeReplace, stream.Result().Mode)

	stream, err = uc.Convert(ConvertRequest{ArmatureName: "Rig", BoneNames: []string{"Arm"}, FrameStart: framePtr(4)})
	require.NoError(t, err)
	assert.Equal(t, motion.FrameRange{Start: 4, End: 10}, stream.Result().FrameRange)
}

func TestConvertValidatesBeforeMutating(t *testing.T) {
	tests := []struct {
		name    string
		keyed   bool
		request ConvertRequest
		check   func(error) bool
	}{
		{
			name:    "missing armature",
			keyed:   true,
			request: ConvertRequest{ArmatureName: "Nope", BoneNames: []string{"Arm"}},
			check:   merrors.IsNotFoundError,
		},
		{
			name:    "empty bone list",
			keyed:   true,
			request: ConvertRequest{ArmatureName: "Rig"},
			check:   merrors.IsEmptyBoneListError,
		},
		{
			name:    "no animation",
			keyed:   false,
			request: ConvertRequest{ArmatureName: "Rig", BoneNames: []string{"Arm"}},
			check:   merrors.IsNoAnimationDataError,
		},
		{
			name:    "inverted range",
			keyed:   true,
			request: ConvertRequest{ArmatureName: "Rig", BoneNames: []string{"Arm"}, FrameStart: framePtr(10), FrameEnd: framePtr(1)},
			check:   merrors.IsInvalidRangeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newTestUsecase(newRigScene(t))
			armature := rigArmature(t, uc)
			if tt.keyed {
				keyRotation(armature, "Arm", 1, mmath.NewQuaternion())
			}
			channelCount := armature.Motion.Len()

			stream, err := uc.Convert(tt.request)
			require.Error(t, err)
			assert.Nil(t, stream)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.Equal(t, []string{"Arm", "Hand"}, armature.Bones.Names())
			assert.Equal(t, channelCount, armature.Motion.Len())
			assert.Zero(t, armature.Constraints.Len())
		})
	}
}

func TestConvertRejectsUnknownMode(t *testing.T) {
	uc, _ := newAnimatedRig(t)
	_, err := uc.Convert(ConvertRequest{ArmatureName: "Rig", BoneNames: []string{"Arm"}, Mode: "merge"})
	assert.Error(t, err)
}

func TestConvertReportsStepsInOrder(t *testing.T) {
	tests := []struct {
		mode  ConvertMode
		steps []ConvertStep
	}{
		{mode: ConvertModeReplace, steps: replaceSteps},
		{mode: ConvertModeAppend, steps: appendSteps},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			uc, _ := newAnimatedRig(t)
			reporter := &recordingReporter{}
			runConvert(t, uc, ConvertRequest{
				ArmatureName: "Rig",
				BoneNames:    []string{"Arm"},
				FrameStart:   framePtr(1),
				FrameEnd:     framePtr(5),
				Mode:         tt.mode,
			}, reporter)

			steps := make([]ConvertStep, 0)
			for _, event := range reporter.events {
				if event.Type == ProgressEventTypeStepCompleted {
					steps = append(steps, event.Step)
				}
				assert.NotEmpty(t, event.RunID)
			}
			if diff := cmp.Diff(tt.steps, steps); diff != "" {
				t.Fatalf("step order mismatch (-want +got):\n%s", diff)
			}
			bakeSteps := 1
			if tt.mode == ConvertModeReplace {
				bakeSteps = 2
			}
			assert.Equal(t, bakeSteps*5, reporter.count(ProgressEventTypeFrameBaked))
		})
	}
}

func TestConvertSkipsRemainingStepsWhenNothingDuplicated(t *testing.T) {
	uc, armature := newAnimatedRig(t)
	reporter := &recordingReporter{}

	result := runConvert(t, uc, ConvertRequest{ArmatureName: "Rig", BoneNames: []string{"Ghost"}}, reporter)

	assert.Empty(t, result.Pairs)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, model.RigDiagnosticBoneNotFound, result.Diagnostics[0].ID)
	assert.Equal(t, 1, reporter.count(ProgressEventTypeStepCompleted))
	assert.Zero(t, reporter.count(ProgressEventTypeFrameBaked))
	assert.Equal(t, 2, armature.Bones.Len())
}

func TestConvertNameCollisionAbortsWithFatalDiagnostic(t *testing.T) {
	uc, armature := newAnimatedRig(t)
	require.NoError(t, armature.SetMode(model.ModeEdit))
	_, err := armature.CreateBone("Hand.IK", nil)
	require.NoError(t, err)
	require.NoError(t, armature.SetMode(model.ModeObject))

	stream, err := uc.Convert(ConvertRequest{ArmatureName: "Rig", BoneNames: []string{"Arm", "Hand"}})
	require.NoError(t, err)
	err = Drain(context.Background(), stream, nil)
	require.Error(t, err)
	assert.True(t, merrors.IsNameConflictError(err))
	assert.False(t, stream.Done())

	result := stream.Result()
	assert.Equal(t, []string{"Arm.IK"}, result.Duplicates())
	require.NotEmpty(t, result.Diagnostics)
	assert.True(t, result.Diagnostics[len(result.Diagnostics)-1].IsFatal())
	assert.True(t, armature.Bones.Contains("Arm.IK"))
	assert.False(t, stream.Next(context.Background()))
}

func TestConvertCancelThenRollbackRemovesDriver(t *testing.T) {
	uc, armature := newAnimatedRig(t)
	before, err := armature.Motion.Copy()
	require.NoError(t, err)

	stream, err := uc.Convert(ConvertRequest{ArmatureName: "Rig", BoneNames: []string{"Arm"}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for stream.Next(ctx) {
		if stream.Event().Type == ProgressEventTypeFrameBaked && stream.Event().FrameIndex == 3 {
			cancel()
		}
	}
	require.True(t, errors.Is(stream.Err(), context.Canceled))
	assert.False(t, armature.IsBaking())
	assert.Equal(t, model.ModeObject, armature.Mode())
	assert.True(t, armature.Bones.Contains("Arm.IK"))

	_, err = stream.Rollback()
	require.NoError(t, err)
	assert.False(t, armature.Bones.Contains("Arm.IK"))
	assert.Empty(t, armature.Motion.ChannelsForBone("Arm.IK"))
	assert.Zero(t, armature.Constraints.Len())
	assert.Equal(t, before.Len(), armature.Motion.Len())
	assert.False(t, stream.Next(context.Background()))
	assert.Error(t, stream.Resume())
}

func TestConvertCancelThenResumeCompletes(t *testing.T) {
	uc, armature := newAnimatedRig(t)

	stream, err := uc.Convert(ConvertRequest{ArmatureName: "Rig", BoneNames: []string{"Arm"}, NoScale: true})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for stream.Next(ctx) {
		if stream.Event().Type == ProgressEventTypeStepCompleted && stream.Event().Step == ConvertStepClearSourceParents {
			cancel()
		}
	}
	require.True(t, errors.Is(stream.Err(), context.Canceled))

	require.NoError(t, stream.Resume())
	require.NoError(t, Drain(context.Background(), stream, nil))
	assert.True(t, stream.Done())
	assert.False(t, armature.Bones.Contains("Arm.IK"))
	for _, channel := range armature.Motion.ChannelsForBone("Arm") {
		assert.Equal(t, frameSequence(1, 10), channel.Frames(), channel.Key.String())
	}
}

func TestConvertReplaceBakesUnkeyedArmOverExplicitRange(t *testing.T) {
	uc := newTestUsecase(newRigScene(t))
	armature := rigArmature(t, uc)

	result := runConvert(t, uc, ConvertRequest{
		ArmatureName: "Rig",
		BoneNames:    []string{"Arm"},
		FrameStart:   framePtr(1),
		FrameEnd:     framePtr(10),
		Mode:         ConvertModeReplace,
		NoScale:      true,
	}, nil)

	assert.Equal(t, []string{"Arm.IK"}, result.Duplicates())
	assert.Equal(t, []string{"Arm", "Hand"}, armature.Bones.Names())
	assert.Zero(t, armature.Constraints.Len())
	assert.Empty(t, armature.Motion.ChannelsForBone("Arm.IK"))

	channels := armature.Motion.ChannelsForBone("Arm")
	require.Len(t, channels, 10)
	for _, channel := range channels {
		if diff := cmp.Diff(frameSequence(1, 10), channel.Frames()); diff != "" {
			t.Fatalf("keyed frames mismatch %s (-want +got):\n%s", channel.Key, diff)
		}
	}
	for index, world := range evaluateWorlds(t, armature, "Arm", result.FrameRange) {
		if !world.NearEquals(mmath.NewMat4(), testEpsilon) {
			t.Fatalf("Arm should stay at rest: frame=%d world=%v", index+1, world.Values())
		}
	}
}

func TestConvertRejectionsAreLoggedAsFatalDiagnostics(t *testing.T) {
	uc := newTestUsecase(newRigScene(t))
	logger := swapTestLogger(t)

	_, err := uc.Convert(ConvertRequest{ArmatureName: "Rig", BoneNames: []string{"Arm"}, Mode: ConvertModeReplace})
	require.True(t, merrors.IsNoAnimationDataError(err))
	assert.Equal(t, 1, countLogLines(logger, model.RigDiagnosticStepAborted))

	_, err = uc.Convert(ConvertRequest{ArmatureName: "Rig", Mode: ConvertModeReplace})
	require.True(t, merrors.IsEmptyBoneListError(err))
	assert.Equal(t, 2, countLogLines(logger, model.RigDiagnosticStepAborted))

	_, err = uc.Convert(ConvertRequest{ArmatureName: "Nope", BoneNames: []string{"Arm"}})
	require.True(t, merrors.IsNotFoundError(err))
	assert.Equal(t, 3, countLogLines(logger, model.RigDiagnosticStepAborted))
	assert.Equal(t, 1, countLogLines(logger, "armature=Nope"))
}
