// 指示: miu200521358
// Package pose はチャンネルとコンストレイントからアーマチュア空間のポーズを評価する。
package pose

import (
	"github.com/miu200521358/mu_fk2ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/motion"
	"github.com/miu200521358/mu_fk2ik/pkg/shared/base/logging"
	"github.com/miu200521358/mu_fk2ik/pkg/usecase/port/moutput"
)

// evaluateState はボーン評価の進行状態を表す。
type evaluateState int

const (
	evaluateStatePending evaluateState = iota
	evaluateStateVisiting
	evaluateStateDone
)

// Evaluator は IPoseEvaluator の実装。
type Evaluator struct{}

// NewEvaluator は Evaluator を生成する。
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate は指定フレームの全ボーンをFK評価し、コンストレイントを適用する。
// 親とコンストレイントのターゲットは所有ボーンより先に評価する。
func (e *Evaluator) Evaluate(armature *model.Armature, frame motion.Frame) (*moutput.Pose, error) {
	if armature == nil {
		return nil, merrors.NewNotFound("")
	}
	pose := moutput.NewPose(frame)
	states := make(map[string]evaluateState, armature.Bones.Len())
	for _, bone := range armature.Bones.Values() {
		if err := e.evaluateBone(armature, frame, bone.Name, states, pose, nil); err != nil {
			return nil, err
		}
	}
	return pose, nil
}

// evaluateBone は依存を解決しながら1ボーンを評価する。
func (e *Evaluator) evaluateBone(
	armature *model.Armature,
	frame motion.Frame,
	boneName string,
	states map[string]evaluateState,
	pose *moutput.Pose,
	chain []string,
) error {
	switch states[boneName] {
	case evaluateStateDone:
		return nil
	case evaluateStateVisiting:
		return merrors.NewDependencyCycle(armature.Name(), append(chain, boneName)...)
	}
	bone, err := armature.Bones.GetByName(boneName)
	if err != nil {
		return merrors.WithArmature(err, armature.Name())
	}
	states[boneName] = evaluateStateVisiting
	chain = append(chain, boneName)

	if bone.HasParent() {
		if err := e.evaluateBone(armature, frame, bone.ParentName, states, pose, chain); err != nil {
			return err
		}
	}
	constraints := armature.Constraints.ForOwner(boneName)
	for _, constraint := range constraints {
		if !armature.Bones.Contains(constraint.Target) {
			return merrors.NewConstraintTargetMissing(armature.Name(), boneName, constraint.Target)
		}
		if err := e.evaluateBone(armature, frame, constraint.Target, states, pose, chain); err != nil {
			return err
		}
	}

	world := e.forwardKinematics(armature, bone, LocalBasis(armature.Motion, boneName, frame), pose)
	for _, constraint := range constraints {
		target, _ := pose.Matrix(constraint.Target)
		world = applyConstraint(constraint.Kind, world, target)
	}
	pose.Set(boneName, world)
	states[boneName] = evaluateStateDone
	logEvaluateVerbose("ボーン評価: frame=%d bone=%s constraints=%d", frame, boneName, len(constraints))
	return nil
}

// forwardKinematics は親のポーズとレスト行列からアーマチュア空間行列を求める。
func (e *Evaluator) forwardKinematics(
	armature *model.Armature,
	bone *model.Bone,
	basis mmath.Mat4,
	pose *moutput.Pose,
) mmath.Mat4 {
	local := bone.Matrix.Muled(basis)
	if !bone.HasParent() {
		return local
	}
	parent, err := armature.Bones.GetByName(bone.ParentName)
	if err != nil {
		return local
	}
	parentWorld, _ := pose.Matrix(bone.ParentName)
	return parentWorld.Muled(parent.Matrix.Inverted()).Muled(local)
}

// applyConstraint はコンストレイント1件を適用した行列を返す。
func applyConstraint(kind model.ConstraintKind, owner mmath.Mat4, target mmath.Mat4) mmath.Mat4 {
	switch kind {
	case model.ConstraintCopyLocation:
		return owner.WithTranslation(target.Translation())
	case model.ConstraintCopyRotation:
		return owner.WithRotation(target.Rotation())
	case model.ConstraintCopyTransforms:
		return target
	default:
		return owner
	}
}

// LocalBasis はチャンネル値からボーンのローカル変換(T*R*S)を求める。
// キーフレームが無い成分は既定値を使う。
func LocalBasis(m *motion.Motion, boneName string, frame motion.Frame) mmath.Mat4 {
	location := mmath.NewVec3(
		componentValue(m, boneName, motion.PropertyLocation, 0, frame),
		componentValue(m, boneName, motion.PropertyLocation, 1, frame),
		componentValue(m, boneName, motion.PropertyLocation, 2, frame),
	)
	rotation := mmath.NewQuaternionByValues(
		componentValue(m, boneName, motion.PropertyRotationQuaternion, 0, frame),
		componentValue(m, boneName, motion.PropertyRotationQuaternion, 1, frame),
		componentValue(m, boneName, motion.PropertyRotationQuaternion, 2, frame),
		componentValue(m, boneName, motion.PropertyRotationQuaternion, 3, frame),
	)
	scale := mmath.NewVec3(
		componentValue(m, boneName, motion.PropertyScale, 0, frame),
		componentValue(m, boneName, motion.PropertyScale, 1, frame),
		componentValue(m, boneName, motion.PropertyScale, 2, frame),
	)
	return mmath.NewMat4FromTRS(location, rotation.Normalized(), scale)
}

// componentValue はチャンネル成分値を返す。
func componentValue(m *motion.Motion, boneName string, property motion.BoneProperty, index int, frame motion.Frame) float64 {
	channel, exists := m.Channel(motion.NewChannelKey(boneName, property, index))
	if !exists {
		return property.DefaultValue(index)
	}
	value, ok := channel.ValueAt(frame)
	if !ok {
		return property.DefaultValue(index)
	}
	return value
}

// logEvaluateVerbose はポーズ評価の詳細ログを出力する。
func logEvaluateVerbose(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil || !logger.IsVerboseEnabled(logging.VERBOSE_INDEX_EVALUATE) {
		return
	}
	logger.Verbose(logging.VERBOSE_INDEX_EVALUATE, format, params...)
}
