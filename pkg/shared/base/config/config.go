// 指示: miu200521358
// Package config は変換の既定値を設定ファイルと環境変数から読み込む。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix は環境変数の接頭辞。
	EnvPrefix = "MU_FK2IK_"

	// ConvertModeReplace はソースボーンを置き換える変換モード。
	ConvertModeReplace = "replace"
	// ConvertModeAppend はIKボーンを制御層として残す変換モード。
	ConvertModeAppend = "append"
)

// Config はアプリケーション設定を表す。
type Config struct {
	Convert ConvertConfig `koanf:"convert"`
	Log     LogConfig     `koanf:"log"`
}

// ConvertConfig は変換の既定値を表す。
type ConvertConfig struct {
	Mode         string `koanf:"mode"`
	NoScale      bool   `koanf:"no_scale"`
	ClearParents bool   `koanf:"clear_parents"`
}

// LogConfig はログ出力設定を表す。
type LogConfig struct {
	Level              string `koanf:"level"`
	ProgressIntervalMs int    `koanf:"progress_interval_ms"`
}

// ProgressInterval は進捗ログの最小出力間隔を返す。
func (c LogConfig) ProgressInterval() time.Duration {
	return time.Duration(c.ProgressIntervalMs) * time.Millisecond
}

// defaults は既定値を返す。
func defaults() map[string]any {
	return map[string]any{
		"convert.mode":             ConvertModeReplace,
		"convert.no_scale":         false,
		"convert.clear_parents":    false,
		"log.level":                "info",
		"log.progress_interval_ms": 500,
	}
}

// Load は既定値、TOML設定ファイル、環境変数の順に設定を読み込む。
// configPath が空の場合は設定ファイルを読まない。
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("既定設定の読み込みに失敗しました: %w", err)
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗しました: %s: %w", configPath, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗しました: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("設定の展開に失敗しました: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey は MU_FK2IK_CONVERT_NO_SCALE を convert.no_scale へ変換する。
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// Validate は設定値を検証する。
func (c *Config) Validate() error {
	switch c.Convert.Mode {
	case ConvertModeReplace, ConvertModeAppend:
	default:
		return fmt.Errorf("変換モードが不正です: %s", c.Convert.Mode)
	}
	if c.Log.ProgressIntervalMs < 0 {
		return fmt.Errorf("進捗ログ間隔が不正です: %d", c.Log.ProgressIntervalMs)
	}
	return nil
}
