// Package clonedir decides whether a directory is a usable clone of the
// project and heuristically locates one on mounted Windows drives.
package clonedir

import (
	"context"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/aspain/sweatyboot/pkg/execx"
)

// Confirm reports whether the VCS tool considers dir part of a working
// tree. It is a separate hook so tests can avoid a real git binary.
type Confirm func(dir string) bool

// GitConfirm builds a Confirm that asks git itself.
func GitConfirm(runner execx.Runner) Confirm {
	return func(dir string) bool {
		res, err := runner.Run(context.Background(), dir, "git", "rev-parse", "--is-inside-work-tree")
		if err != nil || res.ExitCode != 0 {
			return false
		}
		return strings.TrimSpace(res.Stdout) == "true"
	}
}

// Validator checks directories for compatibility: git metadata, a working
// tree confirmed by the VCS tool, and the project setup script.
type Validator struct {
	fs          billy.Filesystem
	setupScript string
	confirm     Confirm
}

// NewValidator builds a Validator. setupScript is the relative path of the
// downstream setup script expected inside a clone.
func NewValidator(fs billy.Filesystem, setupScript string, confirm Confirm) *Validator {
	return &Validator{
		fs:          fs,
		setupScript: setupScript,
		confirm:     confirm,
	}
}

// IsCompatible reports whether dir is a compatible project clone.
func (v *Validator) IsCompatible(dir string) bool {
	fi, err := v.fs.Stat(dir)
	if err != nil || !fi.IsDir() {
		return false
	}

	// a .git directory or a worktree gitdir file both count as metadata
	if _, err := v.fs.Stat(path.Join(dir, ".git")); err != nil {
		return false
	}

	if !v.confirm(dir) {
		return false
	}

	script, err := v.fs.Stat(path.Join(dir, v.setupScript))
	if err != nil || script.IsDir() {
		return false
	}
	return true
}
