// 指示: miu200521358
package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
)

func newTestArmature(t *testing.T) *Armature {
	t.Helper()
	armature := NewArmature("Rig")
	if err := armature.Bones.Append(NewBone("Arm", 1, mmath.NewMat4())); err != nil {
		t.Fatalf("append Arm failed: %v", err)
	}
	hand := NewBone("Hand", 0.5, mmath.NewMat4FromTranslation(mmath.NewVec3(0, 1, 0)))
	hand.ParentName = "Arm"
	if err := armature.Bones.Append(hand); err != nil {
		t.Fatalf("append Hand failed: %v", err)
	}
	return armature
}

func TestRigDiagnosticIDsAreNonEmptyAndUnique(t *testing.T) {
	ids := []string{
		RigDiagnosticBoneNotFound,
		RigDiagnosticArmatureNotFound,
		RigDiagnosticBoneMissingInPose,
		RigDiagnosticStepAborted,
	}
	seen := map[string]struct{}{}
	for _, id := range ids {
		if id == "" {
			t.Fatalf("diagnostic id should not be empty")
		}
		if _, exists := seen[id]; exists {
			t.Fatalf("diagnostic id should be unique: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestBoneCollectionCreateCopiesRestAndRejectsCollision(t *testing.T) {
	armature := newTestArmature(t)
	hand, _ := armature.Bones.GetByName("Hand")

	created, err := armature.Bones.Create(IkBoneName("Hand"), hand)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Name != "Hand.IK" || created.HasParent() {
		t.Fatalf("created bone mismatch: name=%s parent=%s", created.Name, created.ParentName)
	}
	if created.Length != hand.Length || !created.Matrix.NearEquals(hand.Matrix, 1e-9) {
		t.Fatalf("created bone should copy length and rest matrix")
	}

	if _, err := armature.Bones.Create("Hand.IK", hand); !merrors.IsNameConflictError(err) {
		t.Fatalf("expected name collision: %v", err)
	}
}

func TestBoneCollectionSetParentRejectsCycles(t *testing.T) {
	armature := newTestArmature(t)
	if err := armature.Bones.SetParent("Arm", "Hand"); !merrors.IsCyclicParentError(err) {
		t.Fatalf("expected cyclic parent error: %v", err)
	}
	if err := armature.Bones.SetParent("Arm", "Arm"); !merrors.IsCyclicParentError(err) {
		t.Fatalf("expected self parent to be rejected: %v", err)
	}
	if err := armature.Bones.SetParent("Hand", "Missing"); !merrors.IsNotFoundError(err) {
		t.Fatalf("expected not found: %v", err)
	}
	if err := armature.Bones.SetParent("Hand", ""); err != nil {
		t.Fatalf("clear parent failed: %v", err)
	}
	hand, _ := armature.Bones.GetByName("Hand")
	if hand.HasParent() {
		t.Fatalf("parent should be cleared")
	}
}

func TestBoneCollectionRemoveRejectsDanglingParentAndReindexes(t *testing.T) {
	armature := newTestArmature(t)
	if err := armature.Bones.Remove("Arm"); !merrors.IsDanglingParentError(err) {
		t.Fatalf("expected dangling parent error: %v", err)
	}
	if err := armature.Bones.Remove("Hand"); err != nil {
		t.Fatalf("remove Hand failed: %v", err)
	}
	if err := armature.Bones.Remove("Arm"); err != nil {
		t.Fatalf("remove Arm failed: %v", err)
	}
	if armature.Bones.Len() != 0 {
		t.Fatalf("bones should be empty: %v", armature.Bones.Names())
	}
	if _, err := armature.Bones.GetByName("Arm"); !merrors.IsNotFoundError(err) {
		t.Fatalf("expected not found after remove: %v", err)
	}
}

func TestArmatureStructuralEditRequiresEditMode(t *testing.T) {
	armature := newTestArmature(t)
	if _, err := armature.CreateBone("Arm.IK", nil); !merrors.IsModeMismatchError(err) {
		t.Fatalf("expected mode mismatch in object mode: %v", err)
	}
	if err := armature.SetMode(ModeEdit); err != nil {
		t.Fatalf("set mode failed: %v", err)
	}
	if _, err := armature.CreateBone("Arm.IK", nil); err != nil {
		t.Fatalf("create in edit mode failed: %v", err)
	}
	if _, err := armature.AddConstraint(ConstraintCopyTransforms, "Arm.IK", "Arm"); !merrors.IsModeMismatchError(err) {
		t.Fatalf("expected mode mismatch for constraint in edit mode: %v", err)
	}
}

func TestArmatureBakeLockBlocksModeAndStructure(t *testing.T) {
	armature := newTestArmature(t)
	if err := armature.BeginBake(); err != nil {
		t.Fatalf("begin bake failed: %v", err)
	}
	if err := armature.BeginBake(); !merrors.IsBakeInFlightError(err) {
		t.Fatalf("expected second bake to be rejected: %v", err)
	}
	if err := armature.SetMode(ModeEdit); !merrors.IsBakeInFlightError(err) {
		t.Fatalf("expected mode switch to be rejected: %v", err)
	}
	armature.EndBake()
	if err := armature.SetMode(ModeEdit); err != nil {
		t.Fatalf("mode switch after bake failed: %v", err)
	}
}

func TestArmatureRemoveBoneRejectsDanglingConstraint(t *testing.T) {
	armature := newTestArmature(t)
	_ = armature.SetMode(ModeEdit)
	if _, err := armature.CreateBone("Hand.IK", nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_ = armature.SetMode(ModePose)
	if _, err := armature.AddConstraint(ConstraintCopyLocation, "Hand", "Hand.IK"); err != nil {
		t.Fatalf("add constraint failed: %v", err)
	}
	if _, err := armature.AddConstraint(ConstraintCopyRotation, "Hand.IK", "Arm"); err != nil {
		t.Fatalf("add constraint failed: %v", err)
	}
	_ = armature.SetMode(ModeEdit)

	err := armature.RemoveBone("Hand.IK")
	if !merrors.IsDanglingConstraintError(err) {
		t.Fatalf("expected dangling constraint error: %v", err)
	}
	if armature.Constraints.Len() != 2 {
		t.Fatalf("rejected removal should keep constraints: %d", armature.Constraints.Len())
	}

	_ = armature.SetMode(ModePose)
	if _, err := armature.RemoveConstraintsForOwner("Hand"); err != nil {
		t.Fatalf("remove constraints failed: %v", err)
	}
	_ = armature.SetMode(ModeEdit)
	if err := armature.RemoveBone("Hand.IK"); err != nil {
		t.Fatalf("remove after constraint cleanup failed: %v", err)
	}
	if armature.Constraints.Len() != 0 {
		t.Fatalf("owned constraints should be dropped with the bone: %d", armature.Constraints.Len())
	}
}

func TestConstraintCollectionKeepsOwnerOrder(t *testing.T) {
	constraints := NewConstraintCollection()
	constraints.Append(NewConstraint(ConstraintCopyLocation, "Arm", "Arm.IK"))
	constraints.Append(NewConstraint(ConstraintCopyLocation, "Hand", "Hand.IK"))
	constraints.Append(NewConstraint(ConstraintCopyRotation, "Arm", "Arm.IK"))

	kinds := make([]ConstraintKind, 0)
	for _, constraint := range constraints.ForOwner("Arm") {
		kinds = append(kinds, constraint.Kind)
	}
	want := []ConstraintKind{ConstraintCopyLocation, ConstraintCopyRotation}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("owner order mismatch (-want +got):\n%s", diff)
	}

	if removed := constraints.RemoveTargeting("Hand.IK"); removed != 1 {
		t.Fatalf("remove targeting count mismatch: %d", removed)
	}
	if len(constraints.ForOwner("Hand")) != 0 || constraints.Len() != 2 {
		t.Fatalf("remaining constraints mismatch: %d", constraints.Len())
	}
}

func TestSceneCopyIsIndependent(t *testing.T) {
	scene := NewScene()
	if err := scene.AddArmature(newTestArmature(t)); err != nil {
		t.Fatalf("add armature failed: %v", err)
	}
	if err := scene.AddArmature(NewArmature("Rig")); err == nil {
		t.Fatalf("duplicate armature name should be rejected")
	}

	copied, err := scene.Copy()
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	original, _ := scene.Armature("Rig")
	_ = original.SetMode(ModeEdit)
	if err := original.RemoveBone("Hand"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	copiedArmature, ok := copied.Armature("Rig")
	if !ok {
		t.Fatalf("copied armature missing")
	}
	if diff := cmp.Diff([]string{"Arm", "Hand"}, copiedArmature.Bones.Names()); diff != "" {
		t.Fatalf("copy should not see removals (-want +got):\n%s", diff)
	}
	if copiedArmature.Mode() != ModeObject {
		t.Fatalf("copied mode mismatch: %s", copiedArmature.Mode())
	}
}
