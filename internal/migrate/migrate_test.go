package migrate

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func TestMigrateCopiesTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "new-home")
	writeTree(t, src, map[string]string{
		"books/b1.json": `{"id":"b1"}`,
		"books/b2.json": `{"id":"b2"}`,
		"images/i1.png": "png-bytes",
		"app.json":      `{"activeBookId":"b1"}`,
		"config.yaml":   "server:\n  port: 8080\n",
	})

	progress := make(chan Progress, 16)
	result, err := New(nil).Migrate(context.Background(), src, dst, progress)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !result.Success || result.FilesCopied != 5 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v", result)
	}

	var events []Progress
	for p := range progress {
		events = append(events, p)
	}
	if len(events) != 5 {
		t.Fatalf("got %d progress events, want 5", len(events))
	}
	for i, p := range events {
		if p.Current != i+1 || p.Total != 5 {
			t.Errorf("event %d = %+v", i, p)
		}
	}

	got, err := os.ReadFile(filepath.Join(dst, "books", "b1.json"))
	if err != nil {
		t.Fatalf("read migrated file: %v", err)
	}
	if string(got) != `{"id":"b1"}` {
		t.Errorf("migrated content = %q", got)
	}
	// Source stays intact until DeleteOldDirectory.
	if _, err := os.Stat(filepath.Join(src, "app.json")); err != nil {
		t.Errorf("source file removed during migrate: %v", err)
	}
}

func TestMigrateRecordsPerFileFailures(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "new-home")
	writeTree(t, src, map[string]string{
		"ok1.json":     "a",
		"ok2.json":     "b",
		"blocked.json": "c",
	})
	if err := os.Chmod(filepath.Join(src, "blocked.json"), 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	result, err := New(nil).Migrate(context.Background(), src, dst, nil)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !result.Success {
		t.Error("per-file failure must not clear Success")
	}
	if result.FilesCopied != 2 {
		t.Errorf("FilesCopied = %d, want 2", result.FilesCopied)
	}
	if len(result.Errors) != 1 || result.Errors[0].Path != "blocked.json" {
		t.Errorf("Errors = %+v", result.Errors)
	}
}

func TestMigrateRejectsBadInputs(t *testing.T) {
	src := t.TempDir()
	m := New(nil)
	ctx := context.Background()

	if _, err := m.Migrate(ctx, filepath.Join(src, "missing"), t.TempDir(), nil); err == nil {
		t.Error("missing source should fail")
	}
	if _, err := m.Migrate(ctx, src, src, nil); err == nil {
		t.Error("identical source and destination should fail")
	}
	file := filepath.Join(src, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Migrate(ctx, file, t.TempDir(), nil); err == nil {
		t.Error("file source should fail")
	}
}

func TestDeleteOldDirectory(t *testing.T) {
	old := t.TempDir()
	writeTree(t, old, map[string]string{"books/b1.json": "{}"})

	m := New(nil)
	if err := m.DeleteOldDirectory(old); err != nil {
		t.Fatalf("DeleteOldDirectory: %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old directory still present")
	}
	if err := m.DeleteOldDirectory(old); err == nil {
		t.Error("deleting a missing directory should fail")
	}
}
