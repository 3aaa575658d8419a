package clonedir

import (
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/rs/zerolog/log"
)

// DefaultUsersRoots are the mount points scanned for Windows user homes.
var DefaultUsersRoots = []string{"/mnt/c/Users", "/mnt/d/Users", "/mnt/e/Users"}

// conventionalProjectDirs are checked under each user home, in order.
var conventionalProjectDirs = []string{
	"source/repos",
	"repos",
	"Documents/GitHub",
	"Documents/repos",
	"Projects",
	"code",
	"git",
	"dev",
}

// Scanner walks mounted Windows user homes looking for an existing clone.
// It is a best-effort heuristic: the first compatible match in
// directory-listing order wins, and that order is filesystem-dependent.
type Scanner struct {
	fs         billy.Filesystem
	validator  *Validator
	usersRoots []string
}

// NewScanner builds a Scanner over usersRoots. An empty usersRoots falls
// back to DefaultUsersRoots.
func NewScanner(fs billy.Filesystem, validator *Validator, usersRoots []string) *Scanner {
	if len(usersRoots) == 0 {
		usersRoots = DefaultUsersRoots
	}
	return &Scanner{
		fs:         fs,
		validator:  validator,
		usersRoots: usersRoots,
	}
}

// FindClone looks for a compatible clone directory named after any of
// names. Candidates sit directly under a conventional project folder or one
// grouping level below it (e.g. source/repos/<owner>/<name>).
func (s *Scanner) FindClone(names ...string) (string, bool) {
	for _, root := range s.usersRoots {
		homes, err := s.fs.ReadDir(root)
		if err != nil {
			continue
		}

		for _, home := range homes {
			if !home.IsDir() {
				continue
			}

			for _, projectDir := range conventionalProjectDirs {
				base := path.Join(root, home.Name(), projectDir)

				for _, name := range names {
					candidate := path.Join(base, name)
					if s.validator.IsCompatible(candidate) {
						log.Debug().Str("path", candidate).Msg("found clone on mounted drive")
						return candidate, true
					}
				}

				// one grouping level deeper, e.g. source/repos/<owner>/<name>
				groups, err := s.fs.ReadDir(base)
				if err != nil {
					continue
				}
				for _, group := range groups {
					if !group.IsDir() {
						continue
					}
					for _, name := range names {
						candidate := path.Join(base, group.Name(), name)
						if s.validator.IsCompatible(candidate) {
							log.Debug().Str("path", candidate).Msg("found clone on mounted drive")
							return candidate, true
						}
					}
				}
			}
		}
	}
	return "", false
}
