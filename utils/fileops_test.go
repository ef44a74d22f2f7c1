package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp4")
	dst := filepath.Join(dir, "b.mp4")
	if err := os.WriteFile(src, []byte("payload"), 0640); err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile() error = %v", err)
	}
	if Exists(src) {
		t.Error("Expected source to be gone after move")
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "payload" {
		t.Errorf("Expected moved content 'payload', got %q (err %v)", data, err)
	}
}

func TestMoveFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := MoveFile(filepath.Join(dir, "missing"), filepath.Join(dir, "dst"))
	if err == nil {
		t.Fatal("Expected error when moving a missing file")
	}
	if Exists(filepath.Join(dir, "dst")) {
		t.Error("Expected no destination file after failed move")
	}
}

func TestCopyMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mkv")
	dst := filepath.Join(dir, "sub", "b.mkv")
	if err := os.WriteFile(src, []byte(strings.Repeat("x", 4096)), 0600); err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}

	// destination directory is missing, so the copy must fail and leave src alone
	if err := CopyMove(src, dst); err == nil {
		t.Fatal("Expected error for missing destination directory")
	}
	if !Exists(src) {
		t.Fatal("Expected source to survive a failed copy")
	}

	if err := EnsureParentDir(dst); err != nil {
		t.Fatalf("EnsureParentDir() error = %v", err)
	}
	if err := CopyMove(src, dst); err != nil {
		t.Fatalf("CopyMove() error = %v", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Expected destination to exist: %v", err)
	}
	if info.Size() != 4096 {
		t.Errorf("Expected 4096 bytes, got %d", info.Size())
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestTrash_PlatformTrash(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "old output.mp4")
	if err := os.WriteFile(file, []byte("old"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	var trashed []string
	trash := &Trash{system: func(paths ...string) error {
		trashed = append(trashed, paths...)
		return os.Remove(paths[0])
	}}
	if err := trash.Trash(file); err != nil {
		t.Fatalf("Trash() error = %v", err)
	}

	if len(trashed) != 1 || trashed[0] != file {
		t.Errorf("Expected platform trash to receive %s once, got %v", file, trashed)
	}
	if Exists(filepath.Join(dir, ".trash")) {
		t.Error("Expected no sibling .trash when the platform trash works")
	}
}

func TestTrash_PlatformFailureFallsBackToSibling(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	trash := &Trash{system: func(...string) error { return errors.New("platform not supported") }}
	if err := trash.Trash(file); err != nil {
		t.Fatalf("Trash() error = %v", err)
	}
	if Exists(file) {
		t.Error("Expected original to be gone")
	}
	if !Exists(filepath.Join(dir, ".trash", "clip.mp4")) {
		t.Error("Expected file in sibling .trash")
	}
}

func TestTrash_Dir(t *testing.T) {
	dir := t.TempDir()
	trashDir := filepath.Join(dir, "Trash")
	trash := &Trash{Dir: trashDir, system: func(...string) error {
		t.Error("Platform trash must not be used when Dir is set")
		return nil
	}}

	for i := 0; i < 2; i++ {
		file := filepath.Join(dir, "clip.mp4")
		if err := os.WriteFile(file, []byte{byte(i)}, 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
		if err := trash.Trash(file); err != nil {
			t.Fatalf("Trash() error = %v", err)
		}
	}

	entries, err := os.ReadDir(trashDir)
	if err != nil {
		t.Fatalf("Failed to read trash dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 trashed files, got %d", len(entries))
	}
	names := entries[0].Name() + " " + entries[1].Name()
	if !strings.Contains(names, "clip.mp4") || !strings.Contains(names, "clip_") {
		t.Errorf("Unexpected trash entries %s", names)
	}
}

func TestTrash_MissingFile(t *testing.T) {
	trash := &Trash{Dir: t.TempDir()}
	if err := trash.Trash(filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("Expected error trashing a missing file")
	}
}

func TestTrash_DirFailureFallsBackToSibling(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("Failed to create blocker: %v", err)
	}
	file := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	// a regular file where the trash dir should be forces the fallback
	trash := &Trash{Dir: blocker}
	if err := trash.Trash(file); err != nil {
		t.Fatalf("Trash() error = %v", err)
	}
	if !Exists(filepath.Join(dir, ".trash", "clip.mp4")) {
		t.Error("Expected file in sibling .trash")
	}
}
