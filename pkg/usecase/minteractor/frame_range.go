// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
	"github.com/miu200521358/mu_fk2ik/pkg/domain/motion"
)

// GetFrameRange はアーマチュアのキーフレームが存在する範囲を返す。
func (uc *Fk2IkUsecase) GetFrameRange(armatureName string) (motion.FrameRange, error) {
	armature, err := uc.resolveArmature(armatureName)
	if err != nil {
		return motion.FrameRange{}, err
	}
	frames, ok := armature.Motion.FrameRange()
	if !ok {
		return motion.FrameRange{}, merrors.NewNoAnimationData(armatureName)
	}
	return frames, nil
}

// resolveFrameRange は指定範囲を検証し、未指定側をキーフレーム範囲で補う。
func resolveFrameRange(armature *model.Armature, start *motion.Frame, end *motion.Frame) (motion.FrameRange, error) {
	if start != nil && end != nil {
		return motion.NewFrameRange(*start, *end)
	}
	keyed, ok := armature.Motion.FrameRange()
	if !ok {
		return motion.FrameRange{}, merrors.NewNoAnimationData(armature.Name())
	}
	if start != nil {
		keyed.Start = *start
	}
	if end != nil {
		keyed.End = *end
	}
	return motion.NewFrameRange(keyed.Start, keyed.End)
}
