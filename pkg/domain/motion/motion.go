// 指示: miu200521358
// Package motion はボーン単位・プロパティ単位のキーフレームチャンネルを保持する。
package motion

import (
	"fmt"

	"github.com/miu200521358/mu_fk2ik/pkg/domain/model/merrors"
)

// FrameRange は両端を含むフレーム範囲を表す。
type FrameRange struct {
	Start Frame
	End   Frame
}

// NewFrameRange は範囲を検証して生成する。
func NewFrameRange(start Frame, end Frame) (FrameRange, error) {
	r := FrameRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return FrameRange{}, err
	}
	return r, nil
}

// Validate は終了フレームが開始フレーム以上か検証する。
func (r FrameRange) Validate() error {
	if r.End < r.Start {
		return merrors.NewInvalidRange(int(r.Start), int(r.End))
	}
	return nil
}

// Count は範囲内のフレーム数を返す。
func (r FrameRange) Count() int {
	if r.End < r.Start {
		return 0
	}
	return int(r.End-r.Start) + 1
}

// String はログ表示用の文字列を返す。
func (r FrameRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Motion はアーマチュア1体分のチャンネル集合を表す。
type Motion struct {
	channels map[ChannelKey]*Channel
	order    []ChannelKey
}

// NewMotion は空のモーションを生成する。
func NewMotion() *Motion {
	return &Motion{channels: map[ChannelKey]*Channel{}}
}

// Len はチャンネル数を返す。
func (m *Motion) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Channel はキーに一致するチャンネルを返す。
func (m *Motion) Channel(key ChannelKey) (*Channel, bool) {
	if m == nil {
		return nil, false
	}
	channel, exists := m.channels[key]
	return channel, exists
}

// EnsureChannel はチャンネルを取得し、無ければ生成する。
func (m *Motion) EnsureChannel(key ChannelKey) *Channel {
	if channel, exists := m.channels[key]; exists {
		return channel
	}
	channel := NewChannel(key)
	m.channels[key] = channel
	m.order = append(m.order, key)
	return channel
}

// InsertKeyframe はチャンネルへキーフレームを挿入する。
func (m *Motion) InsertKeyframe(key ChannelKey, frame Frame, value float64) {
	m.EnsureChannel(key).Insert(frame, value)
}

// ChannelsForBone はボーン名が完全一致するチャンネルを登録順で返す。
func (m *Motion) ChannelsForBone(boneName string) []*Channel {
	if m == nil {
		return nil
	}
	channels := make([]*Channel, 0)
	for _, key := range m.order {
		if key.BoneName == boneName {
			channels = append(channels, m.channels[key])
		}
	}
	return channels
}

// DeleteChannelsForBone はボーン名が完全一致するチャンネルを削除し、削除数を返す。
func (m *Motion) DeleteChannelsForBone(boneName string) int {
	if m == nil {
		return 0
	}
	kept := m.order[:0]
	deleted := 0
	for _, key := range m.order {
		if key.BoneName == boneName {
			delete(m.channels, key)
			deleted++
			continue
		}
		kept = append(kept, key)
	}
	m.order = kept
	return deleted
}

// Keys は全チャンネルキーを登録順で返す。
func (m *Motion) Keys() []ChannelKey {
	if m == nil {
		return nil
	}
	return append([]ChannelKey(nil), m.order...)
}

// Channels は全チャンネルを登録順で返す。
func (m *Motion) Channels() []*Channel {
	if m == nil {
		return nil
	}
	channels := make([]*Channel, 0, len(m.order))
	for _, key := range m.order {
		channels = append(channels, m.channels[key])
	}
	return channels
}

// FrameRange はキーフレームが存在する範囲を返す。キーが1つも無い場合はfalseを返す。
func (m *Motion) FrameRange() (FrameRange, bool) {
	if m == nil {
		return FrameRange{}, false
	}
	found := false
	r := FrameRange{}
	for _, key := range m.order {
		channel := m.channels[key]
		if channel.Len() == 0 {
			continue
		}
		first := channel.Keyframes[0].Frame
		last := channel.Keyframes[len(channel.Keyframes)-1].Frame
		if !found || first < r.Start {
			r.Start = first
		}
		if !found || last > r.End {
			r.End = last
		}
		found = true
	}
	return r, found
}

// Copy はモーションの複製を返す。
func (m *Motion) Copy() (*Motion, error) {
	copied := NewMotion()
	if m == nil {
		return copied, nil
	}
	for _, key := range m.order {
		channel, err := m.channels[key].Copy()
		if err != nil {
			return nil, err
		}
		copied.channels[key] = channel
		copied.order = append(copied.order, key)
	}
	return copied, nil
}
