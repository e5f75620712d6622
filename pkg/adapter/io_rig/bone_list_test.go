// 指示: miu200521358
package io_rig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/miu200521358/mu_fk2ik/pkg/adapter/io_common"
)

func TestReadBoneListSkipsBlankLinesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bones.txt")
	// 濁点を結合文字で表した「ボーン」
	content := "\ufeffArm\r\n\r\n  \n\u30db\u3099\u30fc\u30f3\nHand.L\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := ReadBoneList(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	want := []string{"Arm", "\u30dc\u30fc\u30f3", "Hand.L"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bone list mismatch (-want +got):\n%s", diff)
	}
}

func TestReadBoneListReturnsFileNotFound(t *testing.T) {
	_, err := ReadBoneList(filepath.Join(t.TempDir(), "missing.txt"))
	if !io_common.IsIoError(err, io_common.IoFileNotFoundErrorID) {
		t.Fatalf("expected file not found, got %v", err)
	}
}

func TestWriteBoneListRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bones.txt")
	names := []string{"Arm", "Hand", "腕.IK"}

	if err := WriteBoneList(path, names); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read raw failed: %v", err)
	}
	if string(b) != "Arm\nHand\n腕.IK\n" {
		t.Fatalf("unexpected file content: %q", string(b))
	}
	got, err := ReadBoneList(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if diff := cmp.Diff(names, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteBoneListRejectsNewlineInName(t *testing.T) {
	err := WriteBoneList(filepath.Join(t.TempDir(), "bones.txt"), []string{"Arm\nHand"})
	if !io_common.IsIoError(err, io_common.IoSaveFailedErrorID) {
		t.Fatalf("expected save failed, got %v", err)
	}
}
