// 指示: miu200521358
// Package logging は書式付きメッセージの出力と保持を提供する。
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel はログレベルを表す。
type LogLevel int

const (
	LOG_LEVEL_DEBUG LogLevel = iota
	LOG_LEVEL_INFO
	LOG_LEVEL_WARN
	LOG_LEVEL_ERROR
)

// VerboseIndex は詳細ログの種別を表す。
type VerboseIndex int

const (
	// VERBOSE_INDEX_BAKE はフレーム単位のベイク詳細ログ。
	VERBOSE_INDEX_BAKE VerboseIndex = iota
	// VERBOSE_INDEX_EVALUATE はポーズ評価の詳細ログ。
	VERBOSE_INDEX_EVALUATE
)

// ParseLogLevel は文字列からログレベルを解決する。
func ParseLogLevel(value string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LOG_LEVEL_DEBUG, nil
	case "", "info":
		return LOG_LEVEL_INFO, nil
	case "warn", "warning":
		return LOG_LEVEL_WARN, nil
	case "error":
		return LOG_LEVEL_ERROR, nil
	default:
		return LOG_LEVEL_INFO, fmt.Errorf("不明なログレベルです: %s", value)
	}
}

// ILogger はログ出力のインターフェース。
type ILogger interface {
	Debug(format string, params ...any)
	Info(format string, params ...any)
	Warn(format string, params ...any)
	Error(format string, params ...any)
	Verbose(index VerboseIndex, format string, params ...any)
	IsVerboseEnabled(index VerboseIndex) bool
	EnableVerbose(index VerboseIndex)
	SetLevel(level LogLevel)
	Level() LogLevel
	MessageBuffer() *MessageBuffer
}

// MessageBufferCapacity はメッセージバッファの保持行数上限。
const MessageBufferCapacity = 1000

// MessageBuffer は出力済みメッセージを直近 MessageBufferCapacity 行まで保持する。
type MessageBuffer struct {
	mu    sync.Mutex
	lines []string
}

// Append はメッセージを追加する。上限を超えた分は古い行から破棄する。
func (b *MessageBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if overflow := len(b.lines) - MessageBufferCapacity; overflow > 0 {
		b.lines = append(b.lines[:0], b.lines[overflow:]...)
	}
}

// Lines は保持中のメッセージを返す。
func (b *MessageBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// Clear は保持中のメッセージを破棄する。
func (b *MessageBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}

// Logger は zerolog を出力先とする ILogger 実装。
type Logger struct {
	mu      sync.RWMutex
	level   LogLevel
	verbose map[VerboseIndex]bool
	buffer  *MessageBuffer
	backend zerolog.Logger
}

// NewLogger はロガーを生成する。writer が nil の場合はバッファのみに記録する。
func NewLogger(writer io.Writer) *Logger {
	if writer == nil {
		writer = io.Discard
	}
	console := zerolog.ConsoleWriter{
		Out:          writer,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	return &Logger{
		level:   LOG_LEVEL_INFO,
		verbose: map[VerboseIndex]bool{},
		buffer:  &MessageBuffer{},
		backend: zerolog.New(console).Level(zerolog.TraceLevel),
	}
}

// Debug はデバッグログを出力する。
func (l *Logger) Debug(format string, params ...any) {
	l.log(LOG_LEVEL_DEBUG, format, params...)
}

// Info は情報ログを出力する。
func (l *Logger) Info(format string, params ...any) {
	l.log(LOG_LEVEL_INFO, format, params...)
}

// Warn は警告ログを出力する。
func (l *Logger) Warn(format string, params ...any) {
	l.log(LOG_LEVEL_WARN, format, params...)
}

// Error はエラーログを出力する。
func (l *Logger) Error(format string, params ...any) {
	l.log(LOG_LEVEL_ERROR, format, params...)
}

// Verbose は有効化された詳細ログのみ出力する。
func (l *Logger) Verbose(index VerboseIndex, format string, params ...any) {
	if !l.IsVerboseEnabled(index) {
		return
	}
	message := fmt.Sprintf(format, params...)
	l.buffer.Append(message)
	l.backend.Trace().Int("verbose", int(index)).Msg(message)
}

// IsVerboseEnabled は詳細ログが有効か判定する。
func (l *Logger) IsVerboseEnabled(index VerboseIndex) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose[index]
}

// EnableVerbose は詳細ログを有効化する。
func (l *Logger) EnableVerbose(index VerboseIndex) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose[index] = true
}

// SetLevel は出力するログレベルの下限を設定する。
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level は現在のログレベルを返す。
func (l *Logger) Level() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// MessageBuffer はメッセージバッファを返す。
func (l *Logger) MessageBuffer() *MessageBuffer {
	return l.buffer
}

func (l *Logger) log(level LogLevel, format string, params ...any) {
	if level < l.Level() {
		return
	}
	message := fmt.Sprintf(format, params...)
	l.buffer.Append(message)
	l.backend.WithLevel(toZerologLevel(level)).Msg(message)
}

// toZerologLevel はログレベルを zerolog のレベルへ変換する。
func toZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LOG_LEVEL_DEBUG:
		return zerolog.DebugLevel
	case LOG_LEVEL_WARN:
		return zerolog.WarnLevel
	case LOG_LEVEL_ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger ILogger = NewLogger(nil)
)

// DefaultLogger は既定ロガーを返す。
func DefaultLogger() ILogger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger は既定ロガーを差し替える。nil は無視する。
func SetDefaultLogger(logger ILogger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}
