// 指示: miu200521358
package motion

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tiendc/go-deepcopy"
)

// Frame はフレーム番号を表す。
type Frame int

// BoneProperty はボーンのアニメーション対象プロパティを表す。
type BoneProperty string

const (
	// PropertyLocation は移動。
	PropertyLocation BoneProperty = "location"
	// PropertyRotationQuaternion はクォータニオン回転。成分順はW,X,Y,Z。
	PropertyRotationQuaternion BoneProperty = "rotation_quaternion"
	// PropertyScale はスケール。
	PropertyScale BoneProperty = "scale"
)

// BoneProperties はベイク対象のプロパティを評価順で保持する。
var BoneProperties = []BoneProperty{
	PropertyLocation,
	PropertyRotationQuaternion,
	PropertyScale,
}

const dataPathPrefix = "pose.bones["

// ComponentCount はプロパティの成分数を返す。
func (p BoneProperty) ComponentCount() int {
	switch p {
	case PropertyLocation, PropertyScale:
		return 3
	case PropertyRotationQuaternion:
		return 4
	default:
		return 0
	}
}

// DefaultValue はキーフレームが無い場合の成分値を返す。
func (p BoneProperty) DefaultValue(index int) float64 {
	switch p {
	case PropertyScale:
		return 1
	case PropertyRotationQuaternion:
		if index == 0 {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// IsValid は既知のプロパティか判定する。
func (p BoneProperty) IsValid() bool {
	return p.ComponentCount() > 0
}

// ChannelKey はチャンネルを一意に識別する構造化アドレスを表す。
type ChannelKey struct {
	BoneName string
	Property BoneProperty
	Index    int
}

// NewChannelKey はチャンネルキーを生成する。
func NewChannelKey(boneName string, property BoneProperty, index int) ChannelKey {
	return ChannelKey{BoneName: boneName, Property: property, Index: index}
}

// DataPath はボーン名とプロパティからデータパス表記を返す。
func (k ChannelKey) DataPath() string {
	return dataPathPrefix + strconv.Quote(k.BoneName) + "]." + string(k.Property)
}

// String はログ表示用の文字列を返す。
func (k ChannelKey) String() string {
	return fmt.Sprintf("%s[%d]", k.DataPath(), k.Index)
}

// ParseDataPath はデータパス表記を構造化キーへ変換する。ボーン名は完全一致で復元する。
func ParseDataPath(dataPath string, index int) (ChannelKey, error) {
	if !strings.HasPrefix(dataPath, dataPathPrefix) {
		return ChannelKey{}, fmt.Errorf("データパスがボーン形式ではありません: %s", dataPath)
	}
	rest := dataPath[len(dataPathPrefix):]
	quoted, err := strconv.QuotedPrefix(rest)
	if err != nil {
		return ChannelKey{}, fmt.Errorf("データパスのボーン名を解析できません: %s: %w", dataPath, err)
	}
	boneName, err := strconv.Unquote(quoted)
	if err != nil {
		return ChannelKey{}, fmt.Errorf("データパスのボーン名を解析できません: %s: %w", dataPath, err)
	}
	rest = rest[len(quoted):]
	if !strings.HasPrefix(rest, "].") {
		return ChannelKey{}, fmt.Errorf("データパスのプロパティ区切りが不正です: %s", dataPath)
	}
	property := BoneProperty(rest[2:])
	if !property.IsValid() {
		return ChannelKey{}, fmt.Errorf("未対応のプロパティです: %s", dataPath)
	}
	if index < 0 || index >= property.ComponentCount() {
		return ChannelKey{}, fmt.Errorf("成分インデックスが範囲外です: %s index=%d", dataPath, index)
	}
	return NewChannelKey(boneName, property, index), nil
}

// Keyframe は1フレーム分のキー値を表す。
type Keyframe struct {
	Frame Frame
	Value float64
}

// Channel は1成分分のキーフレーム列を表す。キーはフレーム昇順で重複しない。
type Channel struct {
	Key       ChannelKey
	Keyframes []Keyframe
}

// NewChannel は空のチャンネルを生成する。
func NewChannel(key ChannelKey) *Channel {
	return &Channel{Key: key}
}

// Len はキーフレーム数を返す。
func (c *Channel) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Keyframes)
}

// Insert はキーフレームを挿入する。同一フレームのキーは置き換える。
func (c *Channel) Insert(frame Frame, value float64) {
	idx := sort.Search(len(c.Keyframes), func(i int) bool {
		return c.Keyframes[i].Frame >= frame
	})
	if idx < len(c.Keyframes) && c.Keyframes[idx].Frame == frame {
		c.Keyframes[idx].Value = value
		return
	}
	c.Keyframes = append(c.Keyframes, Keyframe{})
	copy(c.Keyframes[idx+1:], c.Keyframes[idx:])
	c.Keyframes[idx] = Keyframe{Frame: frame, Value: value}
}

// Get は指定フレームちょうどのキー値を返す。
func (c *Channel) Get(frame Frame) (float64, bool) {
	if c == nil {
		return 0, false
	}
	idx := sort.Search(len(c.Keyframes), func(i int) bool {
		return c.Keyframes[i].Frame >= frame
	})
	if idx < len(c.Keyframes) && c.Keyframes[idx].Frame == frame {
		return c.Keyframes[idx].Value, true
	}
	return 0, false
}

// ValueAt は指定フレームの値を線形補間で返す。キー範囲外は端の値を保持する。
func (c *Channel) ValueAt(frame Frame) (float64, bool) {
	if c.Len() == 0 {
		return 0, false
	}
	first := c.Keyframes[0]
	last := c.Keyframes[len(c.Keyframes)-1]
	if frame <= first.Frame {
		return first.Value, true
	}
	if frame >= last.Frame {
		return last.Value, true
	}
	idx := sort.Search(len(c.Keyframes), func(i int) bool {
		return c.Keyframes[i].Frame >= frame
	})
	next := c.Keyframes[idx]
	if next.Frame == frame {
		return next.Value, true
	}
	prev := c.Keyframes[idx-1]
	ratio := float64(frame-prev.Frame) / float64(next.Frame-prev.Frame)
	return prev.Value + (next.Value-prev.Value)*ratio, true
}

// Frames はキーフレームのフレーム番号一覧を返す。
func (c *Channel) Frames() []Frame {
	if c == nil {
		return nil
	}
	frames := make([]Frame, 0, len(c.Keyframes))
	for _, keyframe := range c.Keyframes {
		frames = append(frames, keyframe.Frame)
	}
	return frames
}

// Copy はチャンネルの複製を返す。
func (c *Channel) Copy() (*Channel, error) {
	copied := &Channel{}
	if err := deepcopy.Copy(copied, *c); err != nil {
		return nil, fmt.Errorf("チャンネルの複製に失敗しました: %s: %w", c.Key, err)
	}
	return copied, nil
}
