package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-prompter")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-prompter" {
			t.Errorf("expected path /tmp/test-prompter, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-prompter")

	t.Run("BooksPath", func(t *testing.T) {
		expected := "/tmp/test-prompter/books"
		if dir.BooksPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.BooksPath())
		}
	})

	t.Run("BookPath", func(t *testing.T) {
		expected := "/tmp/test-prompter/books/bk-1.json"
		if dir.BookPath("bk-1") != expected {
			t.Errorf("expected %s, got %s", expected, dir.BookPath("bk-1"))
		}
	})

	t.Run("ImagePath", func(t *testing.T) {
		expected := "/tmp/test-prompter/images/img-1.png"
		if dir.ImagePath("img-1") != expected {
			t.Errorf("expected %s, got %s", expected, dir.ImagePath("img-1"))
		}
	})

	t.Run("ConfigPath", func(t *testing.T) {
		expected := "/tmp/test-prompter/config.yaml"
		if dir.ConfigPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ConfigPath())
		}
	})

	t.Run("AppMetadataPath", func(t *testing.T) {
		expected := "/tmp/test-prompter/app.json"
		if dir.AppMetadataPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.AppMetadataPath())
		}
	})
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	homeDir := filepath.Join(tmpDir, "prompter-test")

	dir, err := New(homeDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Directory shouldn't exist yet
	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}

	// Create it
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	// Now it should exist, with every subdirectory
	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}
	for _, sub := range []string{dir.BooksPath(), dir.ImagesPath(), dir.ExportsPath()} {
		if _, err := os.Stat(sub); os.IsNotExist(err) {
			t.Errorf("%s should exist after EnsureExists", sub)
		}
	}
}

func TestDir_ConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	// Config doesn't exist
	if dir.ConfigExists() {
		t.Error("config should not exist initially")
	}

	// Create a config file
	configPath := dir.ConfigPath()
	if err := os.WriteFile(configPath, []byte("test: true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Now it should exist
	if !dir.ConfigExists() {
		t.Error("config should exist after creation")
	}
}

func TestDir_LockExcludesSecondInstance(t *testing.T) {
	tmpDir := t.TempDir()

	first, _ := New(tmpDir)
	if err := first.Acquire(); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer first.Release()

	second, _ := New(tmpDir)
	if err := second.Acquire(); err == nil {
		second.Release()
		t.Fatal("second Acquire should fail while the lock is held")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := second.Acquire(); err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	second.Release()
}
