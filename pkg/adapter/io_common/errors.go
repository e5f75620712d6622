// 指示: miu200521358
// Package io_common は入出力アダプタ共通のエラーを提供する。
package io_common

import (
	"errors"
	"fmt"
)

const (
	// IoFileNotFoundErrorID はファイル不在のエラーID。
	IoFileNotFoundErrorID = "14101"
	// IoExtInvalidErrorID は拡張子不正のエラーID。
	IoExtInvalidErrorID = "14102"
	// IoParseFailedErrorID は解析失敗のエラーID。
	IoParseFailedErrorID = "14103"
	// IoFormatNotSupportedErrorID は未対応形式のエラーID。
	IoFormatNotSupportedErrorID = "14104"
	// IoSaveFailedErrorID は保存失敗のエラーID。
	IoSaveFailedErrorID = "14201"
	// IoFileExistsErrorID は上書き不可のエラーID。
	IoFileExistsErrorID = "14202"
)

// IoError はエラーID付きの入出力エラーを表す。
type IoError struct {
	ID      string
	Message string
	Cause   error
}

// Error はエラーメッセージを返す。
func (e *IoError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

// Unwrap は原因エラーを返す。
func (e *IoError) Unwrap() error {
	return e.Cause
}

// ErrorID はエラーIDを返す。
func (e *IoError) ErrorID() string {
	return e.ID
}

func newIoError(id string, cause error, format string, params ...any) *IoError {
	return &IoError{ID: id, Message: fmt.Sprintf(format, params...), Cause: cause}
}

// NewIoFileNotFound はファイル不在エラーを生成する。
func NewIoFileNotFound(path string, cause error) *IoError {
	return newIoError(IoFileNotFoundErrorID, cause, "ファイルが見つかりません: %s", path)
}

// NewIoExtInvalid は拡張子不正エラーを生成する。
func NewIoExtInvalid(path string, cause error) *IoError {
	return newIoError(IoExtInvalidErrorID, cause, "拡張子が不正です: %s", path)
}

// NewIoParseFailed は解析失敗エラーを生成する。
func NewIoParseFailed(format string, cause error, params ...any) *IoError {
	return newIoError(IoParseFailedErrorID, cause, format, params...)
}

// NewIoFormatNotSupported は未対応形式エラーを生成する。
func NewIoFormatNotSupported(format string, cause error, params ...any) *IoError {
	return newIoError(IoFormatNotSupportedErrorID, cause, format, params...)
}

// NewIoSaveFailed は保存失敗エラーを生成する。
func NewIoSaveFailed(format string, cause error, params ...any) *IoError {
	return newIoError(IoSaveFailedErrorID, cause, format, params...)
}

// NewIoFileExists は上書き不可エラーを生成する。
func NewIoFileExists(path string) *IoError {
	return newIoError(IoFileExistsErrorID, nil, "出力先ファイルが既に存在します: %s", path)
}

// IsIoError は指定IDの入出力エラーか判定する。
func IsIoError(err error, id string) bool {
	var ioErr *IoError
	return errors.As(err, &ioErr) && ioErr.ID == id
}
