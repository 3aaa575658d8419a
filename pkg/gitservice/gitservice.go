// Package gitservice defines the hosted-platform API surface the
// bootstrapper needs for fork discovery and provisioning.
package gitservice

import (
	"context"

	"github.com/aspain/sweatyboot/pkg/repo"
)

// Fork pairs a fork repository with its declared parent.
type Fork struct {
	Slug   repo.Slug
	Parent repo.Slug
}

// Service is implemented by platform clients. All calls are live
// round-trips; nothing is cached between them.
type Service interface {
	// AuthenticatedLogin returns the login of the authenticated user
	AuthenticatedLogin(ctx context.Context) (string, error)
	// ListOwnedForks returns the forks owned by login with their parents
	ListOwnedForks(ctx context.Context, login string) ([]Fork, error)
	// ListForks returns the forks of the upstream repository
	ListForks(ctx context.Context, upstream repo.Slug) ([]Fork, error)
	// CreateFork forks upstream for login, optionally renaming it
	CreateFork(ctx context.Context, upstream repo.Slug, login, name string) error
	// RepositoryExists reports whether slug is accessible
	RepositoryExists(ctx context.Context, slug repo.Slug) (bool, error)
	// DefaultBranch returns the default branch of slug
	DefaultBranch(ctx context.Context, slug repo.Slug) (string, error)
}
