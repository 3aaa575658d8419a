package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/aspain/sweatyboot/pkg/execx"
	"github.com/aspain/sweatyboot/pkg/repo"
)

// runOnline runs the setup script against a GitHub repository without a
// local clone: resolve a target slug (fork-first), fetch the script from
// the upstream's raw-content URL into a scratch directory and execute it
// with --repo. The script's exit status is propagated; the scratch
// directory is removed on every exit path.
func (o *Orchestrator) runOnline(ctx context.Context) error {
	target, err := o.resolveOnlineTarget(ctx)
	if err != nil {
		return err
	}
	if target.IsZero() {
		// operator cancelled
		return nil
	}

	branch := o.upstreamDefaultBranch(ctx)

	tmpDir, err := os.MkdirTemp(o.tempRoot, "sweatyboot-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	scriptURL := fmt.Sprintf("%s/%s/%s/%s", o.config.RawBaseURL, o.upstream, branch, o.config.SetupScript)
	scriptPath := filepath.Join(tmpDir, filepath.Base(o.config.SetupScript))
	if err := o.download(ctx, scriptURL, scriptPath); err != nil {
		return fmt.Errorf("failed to download setup script: %w", err)
	}

	args := append([]string{scriptPath, "--repo", target.String()}, o.args...)
	code, err := o.runner.RunInteractive(ctx, tmpDir, o.config.Interpreter, args...)
	if err != nil {
		return fmt.Errorf("failed to run the setup script: %w", err)
	}
	if code != 0 {
		return &execx.ExitStatusError{Code: code}
	}
	return nil
}

// resolveOnlineTarget picks the repository the setup script should operate
// on: the operator's fork when they want one, a directly entered slug
// otherwise. A zero slug means cancellation.
func (o *Orchestrator) resolveOnlineTarget(ctx context.Context) (repo.Slug, error) {
	if o.prompt.YesNo("Fork the repo to your GitHub account first?", true) {
		svc, login, err := o.ensureService(ctx)
		if err != nil {
			return repo.Slug{}, err
		}
		return o.ensureFork(ctx, svc, login)
	}

	// direct entry; anonymous API access is enough to validate a public repo
	svc := o.service
	if svc == nil {
		token, _ := o.sessionToken(ctx)
		svc = o.newService(ctx, token)
		o.service = svc
	}

	for {
		answer := o.prompt.Line("Target repository (OWNER/NAME):")
		if answer == "" {
			o.prompt.Say("No repository given, stopping.")
			return repo.Slug{}, nil
		}
		slug, err := repo.ParseSlug(answer)
		if err != nil {
			o.prompt.Say("%v", err)
			continue
		}
		if ok, err := svc.RepositoryExists(ctx, slug); err != nil || !ok {
			o.prompt.Say("Repository %s is not accessible.", slug)
			continue
		}
		return slug, nil
	}
}

// upstreamDefaultBranch resolves the upstream's default branch, falling
// back to main when the lookup fails.
func (o *Orchestrator) upstreamDefaultBranch(ctx context.Context) string {
	svc := o.service
	if svc == nil {
		token, _ := o.sessionToken(ctx)
		svc = o.newService(ctx, token)
		o.service = svc
	}

	branch, err := svc.DefaultBranch(ctx, o.upstream)
	if err != nil || branch == "" {
		log.Warn().Err(err).Msg("could not resolve the upstream default branch, assuming main")
		return "main"
	}
	return branch
}

func (o *Orchestrator) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return err
	}
	return nil
}
