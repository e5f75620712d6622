// 指示: miu200521358
package pose

import (
	"math"
	"testing"

	"github.com/miu200521358/mu_fk2ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/motion"
)

const testEpsilon = 1e-9

func newArmHandArmature(t *testing.T) *model.Armature {
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
	return armature
}

func insertRotation(m *motion.Motion, boneName string, frame motion.Frame, rotation mmath.Quaternion) {
	for index, value := range rotation.Vector() {
		m.InsertKeyframe(motion.NewChannelKey(boneName, motion.PropertyRotationQuaternion, index), frame, value)
	}
}

func TestEvaluateUnkeyedBonesStayAtRest(t *testing.T) {
	armature := newArmHandArmature(t)
	pose, err := NewEvaluator().Evaluate(armature, 1)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	hand, _ := armature.Bones.GetByName("Hand")
	got, ok := pose.Matrix("Hand")
	if !ok {
		t.Fatalf("Hand should be evaluated")
	}
	if !got.NearEquals(hand.Matrix, testEpsilon) {
		t.Fatalf("unkeyed Hand should be at rest: %v", got.Values())
	}
}

func TestEvaluatePropagatesParentRotation(t *testing.T) {
	armature := newArmHandArmature(t)
	insertRotation(armature.Motion, "Arm", 1, mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Z_VEC3, math.Pi/2))

	pose, err := NewEvaluator().Evaluate(armature, 1)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	handWorld, _ := pose.Matrix("Hand")
	want := mmath.NewVec3(-1, 0, 0)
	if !handWorld.Translation().NearEquals(want, 1e-6) {
		t.Fatalf("Hand head mismatch: got=%v want=%v", handWorld.Translation(), want)
	}
}

func TestEvaluateCopyTransformsFollowsTarget(t *testing.T) {
	armature := newArmHandArmature(t)
	hand, _ := armature.Bones.GetByName("Hand")
	_ = armature.SetMode(model.ModeEdit)
	if _, err := armature.CreateBone("Hand.IK", hand); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_ = armature.SetMode(model.ModePose)
	if _, err := armature.AddConstraint(model.ConstraintCopyTransforms, "Hand.IK", "Hand"); err != nil {
		t.Fatalf("add constraint failed: %v", err)
	}
	insertRotation(armature.Motion, "Arm", 3, mmath.NewQuaternionFromAxisAngle(mmath.UNIT_X_VEC3, 0.4))

	pose, err := NewEvaluator().Evaluate(armature, 3)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	handWorld, _ := pose.Matrix("Hand")
	ikWorld, _ := pose.Matrix("Hand.IK")
	if !ikWorld.NearEquals(handWorld, testEpsilon) {
		t.Fatalf("Hand.IK should match Hand: got=%v want=%v", ikWorld.Values(), handWorld.Values())
	}
}

func TestEvaluateCopyLocationAndRotationKeepsOwnScale(t *testing.T) {
	armature := newArmHandArmature(t)
	_ = armature.SetMode(model.ModeEdit)
	if _, err := armature.CreateBone("Hand.IK", nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_ = armature.SetMode(model.ModePose)
	_, _ = armature.AddConstraint(model.ConstraintCopyLocation, "Hand.IK", "Hand")
	_, _ = armature.AddConstraint(model.ConstraintCopyRotation, "Hand.IK", "Hand")
	for index := 0; index < 3; index++ {
		armature.Motion.InsertKeyframe(motion.NewChannelKey("Hand", motion.PropertyScale, index), 1, 3)
		armature.Motion.InsertKeyframe(motion.NewChannelKey("Hand.IK", motion.PropertyScale, index), 1, 2)
	}
	rotation := mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Y_VEC3, 0.7)
	insertRotation(armature.Motion, "Hand", 1, rotation)

	pose, err := NewEvaluator().Evaluate(armature, 1)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	handWorld, _ := pose.Matrix("Hand")
	ikWorld, _ := pose.Matrix("Hand.IK")
	location, gotRotation, scale := ikWorld.Decompose()
	if !location.NearEquals(handWorld.Translation(), 1e-6) {
		t.Fatalf("location mismatch: got=%v want=%v", location, handWorld.Translation())
	}
	if !gotRotation.NearEquals(handWorld.Rotation(), 1e-6) {
		t.Fatalf("rotation mismatch: got=%v want=%v", gotRotation, handWorld.Rotation())
	}
	if !scale.NearEquals(mmath.NewVec3(2, 2, 2), 1e-6) {
		t.Fatalf("own scale should be kept: %v", scale)
	}
}

func TestEvaluateRejectsConstraintCycle(t *testing.T) {
	armature := newArmHandArmature(t)
	armature.Constraints.Append(model.NewConstraint(model.ConstraintCopyTransforms, "Arm", "Hand"))

	_, err := NewEvaluator().Evaluate(armature, 0)
	if !merrors.IsDependencyCycleError(err) {
		t.Fatalf("expected dependency cycle: %v", err)
	}
}

func TestEvaluateRejectsMissingConstraintTarget(t *testing.T) {
	armature := newArmHandArmature(t)
	armature.Constraints.Append(model.NewConstraint(model.ConstraintCopyLocation, "Hand", "Ghost"))

	_, err := NewEvaluator().Evaluate(armature, 0)
	if !merrors.IsConstraintTargetMissingError(err) {
		t.Fatalf("expected constraint target missing: %v", err)
	}
}

func TestLocalBasisInterpolatesLocation(t *testing.T) {
	m := motion.NewMotion()
	m.InsertKeyframe(motion.NewChannelKey("Arm", motion.PropertyLocation, 1), 0, 0)
	m.InsertKeyframe(motion.NewChannelKey("Arm", motion.PropertyLocation, 1), 10, 2)

	basis := LocalBasis(m, "Arm", 5)
	if !basis.Translation().NearEquals(mmath.NewVec3(0, 1, 0), testEpsilon) {
		t.Fatalf("interpolated location mismatch: %v", basis.Translation())
	}
}
