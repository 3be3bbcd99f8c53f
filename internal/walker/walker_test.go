package walker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWalkJSON_FindsNestedFilesInOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "beijing", "2026-03.json"))
	writeFile(t, filepath.Join(root, "beijing", "readme.txt"))
	writeFile(t, filepath.Join(root, "shanghai", "2026-03.JSON"))
	writeFile(t, filepath.Join(root, "top.json"))
	writeFile(t, filepath.Join(root, "shanghai", "deep", "more.json"))

	var got []string
	err := WalkJSON(context.Background(), root, func(path string) error {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		got = append(got, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("WalkJSON() err=%v", err)
	}

	want := []string{
		"beijing/2026-03.json",
		"shanghai/2026-03.JSON",
		"shanghai/deep/more.json",
		"top.json",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("visited %v, want %v", got, want)
	}
}

func TestWalkJSON_FnErrorAbortsWalk(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"))
	writeFile(t, filepath.Join(root, "b.json"))

	sentinel := errors.New("boom")
	calls := 0
	err := WalkJSON(context.Background(), root, func(string) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err=%v, want %v", err, sentinel)
	}
	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
}

func TestWalkJSON_MissingRoot(t *testing.T) {
	t.Parallel()

	err := WalkJSON(context.Background(), filepath.Join(t.TempDir(), "nope"), func(string) error {
		t.Fatal("fn should not be called")
		return nil
	})
	if err == nil {
		t.Fatalf("err=nil, want error for missing root")
	}
}

func TestWalkJSON_CanceledContext(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WalkJSON(ctx, root, func(string) error {
		t.Fatal("fn should not be called")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}
