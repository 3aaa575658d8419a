package clonedir_test

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"

	"github.com/aspain/sweatyboot/pkg/clonedir"
)

const setupScript = "scripts/setup_auth.py"

func writeFile(t *testing.T, fs billy.Filesystem, name string) {
	t.Helper()
	f, err := fs.Create(name)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if _, err := f.Write([]byte("# test\n")); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	f.Close()
}

func alwaysInWorktree(string) bool { return true }

func TestIsCompatible(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, fs billy.Filesystem)
		confirm clonedir.Confirm
		dir     string
		want    bool
	}{
		{
			name:    "missing directory",
			setup:   func(t *testing.T, fs billy.Filesystem) {},
			confirm: alwaysInWorktree,
			dir:     "/repo",
			want:    false,
		},
		{
			name: "empty directory",
			setup: func(t *testing.T, fs billy.Filesystem) {
				fs.MkdirAll("/repo", 0o755)
			},
			confirm: alwaysInWorktree,
			dir:     "/repo",
			want:    false,
		},
		{
			name: "git metadata without setup script",
			setup: func(t *testing.T, fs billy.Filesystem) {
				fs.MkdirAll("/repo/.git", 0o755)
			},
			confirm: alwaysInWorktree,
			dir:     "/repo",
			want:    false,
		},
		{
			name: "setup script without git metadata",
			setup: func(t *testing.T, fs billy.Filesystem) {
				writeFile(t, fs, "/repo/"+setupScript)
			},
			confirm: alwaysInWorktree,
			dir:     "/repo",
			want:    false,
		},
		{
			name: "complete clone",
			setup: func(t *testing.T, fs billy.Filesystem) {
				fs.MkdirAll("/repo/.git", 0o755)
				writeFile(t, fs, "/repo/"+setupScript)
			},
			confirm: alwaysInWorktree,
			dir:     "/repo",
			want:    true,
		},
		{
			name: "gitdir file worktree",
			setup: func(t *testing.T, fs billy.Filesystem) {
				writeFile(t, fs, "/repo/.git")
				writeFile(t, fs, "/repo/"+setupScript)
			},
			confirm: alwaysInWorktree,
			dir:     "/repo",
			want:    true,
		},
		{
			name: "vcs tool denies worktree",
			setup: func(t *testing.T, fs billy.Filesystem) {
				fs.MkdirAll("/repo/.git", 0o755)
				writeFile(t, fs, "/repo/"+setupScript)
			},
			confirm: func(string) bool { return false },
			dir:     "/repo",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			tt.setup(t, fs)
			v := clonedir.NewValidator(fs, setupScript, tt.confirm)
			if got := v.IsCompatible(tt.dir); got != tt.want {
				t.Errorf("IsCompatible(%q) = %v, want %v", tt.dir, got, tt.want)
			}
		})
	}
}
