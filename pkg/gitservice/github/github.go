package github

import (
	"context"
	"net/http"

	"github.com/google/go-github/v39/github"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/aspain/sweatyboot/pkg/gitservice"
	"github.com/aspain/sweatyboot/pkg/repo"
)

type githubService struct {
	client *github.Client
}

// New wraps an existing go-github client. Used by tests to point the
// service at a fake API server.
func New(client *github.Client) gitservice.Service {
	return &githubService{client: client}
}

// NewWithToken creates a github service authenticated with token. An empty
// token yields an anonymous client, enough for public repository lookups.
func NewWithToken(ctx context.Context, token string) gitservice.Service {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		hc = oauth2.NewClient(ctx, ts)
		hc.Transport = newRateLimitTransport(hc.Transport)
	} else {
		hc = &http.Client{Transport: newRateLimitTransport(http.DefaultTransport)}
	}

	return &githubService{client: github.NewClient(hc)}
}

func (ghs *githubService) AuthenticatedLogin(ctx context.Context) (string, error) {
	user, _, err := ghs.client.Users.Get(ctx, "")
	if err != nil {
		return "", err
	}
	return user.GetLogin(), nil
}

// ListOwnedForks lists login's repositories and resolves the parent of each
// fork. The repository list endpoint does not include parents, so every
// fork costs one extra Get; lookups that fail are skipped.
func (ghs *githubService) ListOwnedForks(ctx context.Context, login string) ([]gitservice.Fork, error) {
	var forks []gitservice.Fork

	opt := &github.RepositoryListOptions{
		Type:        "owner",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		repos, resp, err := ghs.client.Repositories.List(ctx, login, opt)
		if err != nil {
			return nil, err
		}

		for _, r := range repos {
			if !r.GetFork() {
				continue
			}
			full, _, err := ghs.client.Repositories.Get(ctx, r.GetOwner().GetLogin(), r.GetName())
			if err != nil {
				log.Debug().Err(err).Str("repo", r.GetFullName()).
					Msg("skipping fork, parent lookup failed")
				continue
			}
			parent := full.GetParent()
			if parent == nil {
				continue
			}
			forks = append(forks, gitservice.Fork{
				Slug:   repo.Slug{Owner: full.GetOwner().GetLogin(), Name: full.GetName()},
				Parent: repo.Slug{Owner: parent.GetOwner().GetLogin(), Name: parent.GetName()},
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return forks, nil
}

func (ghs *githubService) ListForks(ctx context.Context, upstream repo.Slug) ([]gitservice.Fork, error) {
	var forks []gitservice.Fork

	opt := &github.RepositoryListForksOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		repos, resp, err := ghs.client.Repositories.ListForks(ctx, upstream.Owner, upstream.Name, opt)
		if err != nil {
			return nil, err
		}

		for _, r := range repos {
			forks = append(forks, gitservice.Fork{
				Slug:   repo.Slug{Owner: r.GetOwner().GetLogin(), Name: r.GetName()},
				Parent: upstream,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return forks, nil
}

// CreateFork requests a fork of upstream. GitHub forks asynchronously, so a
// 202 Accepted counts as success. When name differs from the upstream name
// the new fork is renamed; a failed rename is non-fatal since the follow-up
// locator pass decides whether the fork is usable.
func (ghs *githubService) CreateFork(ctx context.Context, upstream repo.Slug, login, name string) error {
	_, _, err := ghs.client.Repositories.CreateFork(ctx, upstream.Owner, upstream.Name, nil)
	if err != nil {
		if _, accepted := err.(*github.AcceptedError); !accepted {
			return err
		}
	}

	if name != "" && name != upstream.Name {
		_, _, err := ghs.client.Repositories.Edit(ctx, login, upstream.Name, &github.Repository{
			Name: github.String(name),
		})
		if err != nil {
			log.Warn().Err(err).Str("name", name).Msg("could not rename fork")
		}
	}

	return nil
}

func (ghs *githubService) RepositoryExists(ctx context.Context, slug repo.Slug) (bool, error) {
	_, resp, err := ghs.client.Repositories.Get(ctx, slug.Owner, slug.Name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (ghs *githubService) DefaultBranch(ctx context.Context, slug repo.Slug) (string, error) {
	r, _, err := ghs.client.Repositories.Get(ctx, slug.Owner, slug.Name)
	if err != nil {
		return "", err
	}
	return r.GetDefaultBranch(), nil
}
