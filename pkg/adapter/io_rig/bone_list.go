// 指示: miu200521358
package io_rig

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/miu200521358/mu_fk2ik/pkg/adapter/io_common"
	"golang.org/x/text/unicode/norm"
)

const utf8Bom = "\ufeff"

// ReadBoneList はボーン名リストを読み込む。1行1ボーン名で、空行は無視する。
// ボーン名はNFC正規化する。
func ReadBoneList(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, io_common.NewIoFileNotFound(path, err)
		}
		return nil, io_common.NewIoParseFailed("ボーンリストの読み取りに失敗しました", err)
	}
	names := make([]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(b))
	first := true
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if first {
			line = strings.TrimPrefix(line, utf8Bom)
			first = false
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		names = append(names, norm.NFC.String(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, io_common.NewIoParseFailed("ボーンリストの解析に失敗しました", err)
	}
	logRigDebug("ボーンリスト読込完了: file=%s bones=%d", path, len(names))
	return names, nil
}

// WriteBoneList はボーン名リストを1行1ボーン名で保存する。
func WriteBoneList(path string, names []string) error {
	var b strings.Builder
	for _, name := range names {
		if strings.ContainsAny(name, "\r\n") {
			return io_common.NewIoSaveFailed("ボーン名に改行が含まれています: %q", nil, name)
		}
		b.WriteString(norm.NFC.String(name))
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return io_common.NewIoSaveFailed("ボーンリストの書き込みに失敗しました: %s", err, path)
	}
	logRigDebug("ボーンリスト保存完了: file=%s bones=%d", path, len(names))
	return nil
}
