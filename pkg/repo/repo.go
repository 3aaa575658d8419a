package repo

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	slugRe     = regexp.MustCompile(`^[^/\s]+/[^/\s]+$`)
	forkNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// Slug identifies a GitHub repository in OWNER/NAME form.
type Slug struct {
	Owner string
	Name  string
}

// ParseSlug builds a Slug from an OWNER/NAME string
func ParseSlug(s string) (Slug, error) {
	s = strings.TrimSpace(s)
	if !slugRe.MatchString(s) {
		return Slug{}, fmt.Errorf("invalid repository %q, expected OWNER/NAME", s)
	}

	parts := strings.SplitN(s, "/", 2)
	return Slug{Owner: parts[0], Name: parts[1]}, nil
}

func (s Slug) String() string {
	return s.Owner + "/" + s.Name
}

// CloneURL returns the https clone URL for the repository
func (s Slug) CloneURL() string {
	return fmt.Sprintf("https://github.com/%s/%s.git", s.Owner, s.Name)
}

// IsZero reports whether the slug is unset
func (s Slug) IsZero() bool {
	return s.Owner == "" && s.Name == ""
}

// ValidForkName reports whether name is usable as a fork repository name
func ValidForkName(name string) bool {
	return forkNameRe.MatchString(name)
}
