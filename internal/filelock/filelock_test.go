package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLockPath(t *testing.T) {
	got := LockPath("/data/out/")
	if got != "/data/out.lock" {
		t.Errorf("Expected /data/out.lock, got %s", got)
	}
}

func TestTryLock(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "test.lock")

	lock1 := NewFileLock(lockPath)
	lock2 := NewFileLock(lockPath)

	acquired, err := lock1.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Fatal("First TryLock should succeed")
	}

	acquired, err = lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if acquired {
		t.Error("Second TryLock should fail when lock is held")
	}

	if err := lock1.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	acquired, err = lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Error("TryLock should succeed after unlock")
	}
	lock2.Unlock()
}

func TestAcquire(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "out")

	lock, err := Acquire(out)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if lock.path != out+".lock" {
		t.Errorf("Expected lock path %s.lock, got %s", out, lock.path)
	}

	_, err = Acquire(out)
	if !errors.Is(err, ErrLocked) {
		t.Errorf("Expected ErrLocked while held, got %v", err)
	}

	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	again, err := Acquire(out)
	if err != nil {
		t.Fatalf("Acquire after unlock failed: %v", err)
	}
	again.Unlock()
}

func TestAtomicWriteOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	targetPath := filepath.Join(tmpDir, "test.txt")

	if err := os.WriteFile(targetPath, []byte("Initial content"), 0644); err != nil {
		t.Fatalf("Failed to write initial file: %v", err)
	}

	if err := AtomicWrite(targetPath, []byte("New content")); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	got, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(got) != "New content" {
		t.Errorf("Expected %q, got %q", "New content", string(got))
	}
}

func TestAtomicWriteFrom(t *testing.T) {
	tmpDir := t.TempDir()
	targetPath := filepath.Join(tmpDir, "gz", "server.log")

	n, err := AtomicWriteFrom(targetPath, strings.NewReader("streamed payload"), 0600)
	if err != nil {
		t.Fatalf("AtomicWriteFrom failed: %v", err)
	}
	if n != int64(len("streamed payload")) {
		t.Errorf("Expected %d bytes, got %d", len("streamed payload"), n)
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected permissions 0600, got %v", info.Mode().Perm())
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("stream broke") }

func TestAtomicWriteFrom_FailureKeepsOriginal(t *testing.T) {
	tmpDir := t.TempDir()
	targetPath := filepath.Join(tmpDir, "keep.txt")

	if err := os.WriteFile(targetPath, []byte("original"), 0644); err != nil {
		t.Fatalf("Failed to write initial file: %v", err)
	}

	if _, err := AtomicWriteFrom(targetPath, brokenReader{}, 0644); err == nil {
		t.Fatal("Expected error from broken reader")
	}

	got, _ := os.ReadFile(targetPath)
	if string(got) != "original" {
		t.Errorf("Original content should survive, got %q", string(got))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read directory: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only keep.txt, found %d entries", len(entries))
	}
}

func TestConcurrentLockAndWrite(t *testing.T) {
	tmpDir := t.TempDir()
	targetPath := filepath.Join(tmpDir, "report.json")

	const goroutines = 10
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			if err := LockAndWrite(targetPath, []byte(string(rune('A'+id)))); err != nil {
				t.Errorf("LockAndWrite failed for goroutine %d: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	content, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if len(content) != 1 {
		t.Errorf("Expected 1 byte, got %d bytes: %q", len(content), string(content))
	}
}
