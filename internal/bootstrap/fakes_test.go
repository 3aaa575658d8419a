package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aspain/sweatyboot/pkg/execx"
	"github.com/aspain/sweatyboot/pkg/gitservice"
	"github.com/aspain/sweatyboot/pkg/repo"
)

// fakeRunner records every invocation and lets tests script responses.
type fakeRunner struct {
	runCalls         []string
	interactiveCalls []string
	missing          map[string]bool
	onRun            func(dir, name string, args []string) (execx.Result, error)
	onInteractive    func(dir, name string, args []string) (int, error)
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) (execx.Result, error) {
	f.runCalls = append(f.runCalls, name+" "+strings.Join(args, " "))
	if f.onRun != nil {
		return f.onRun(dir, name, args)
	}
	return execx.Result{}, nil
}

func (f *fakeRunner) RunInteractive(_ context.Context, dir, name string, args ...string) (int, error) {
	f.interactiveCalls = append(f.interactiveCalls, fmt.Sprintf("%s|%s %s", dir, name, strings.Join(args, " ")))
	if f.onInteractive != nil {
		return f.onInteractive(dir, name, args)
	}
	return 0, nil
}

func (f *fakeRunner) LookPath(name string) error {
	if f.missing[name] {
		return errors.New("not found")
	}
	return nil
}

func (f *fakeRunner) calledWithPrefix(prefix string) bool {
	for _, call := range f.runCalls {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}

// fakeService is a scriptable gitservice.Service.
type fakeService struct {
	login         string
	owned         []gitservice.Fork
	upstreamForks []gitservice.Fork
	exists        map[string]bool
	branch        string
	createCalls   int
	createName    string
	createErr     error
	onCreate      func(name string)
}

func (f *fakeService) AuthenticatedLogin(context.Context) (string, error) {
	if f.login == "" {
		return "", errors.New("no login")
	}
	return f.login, nil
}

func (f *fakeService) ListOwnedForks(context.Context, string) ([]gitservice.Fork, error) {
	return f.owned, nil
}

func (f *fakeService) ListForks(context.Context, repo.Slug) ([]gitservice.Fork, error) {
	return f.upstreamForks, nil
}

func (f *fakeService) CreateFork(_ context.Context, _ repo.Slug, _, name string) error {
	f.createCalls++
	f.createName = name
	if f.onCreate != nil {
		f.onCreate(name)
	}
	return f.createErr
}

func (f *fakeService) RepositoryExists(_ context.Context, slug repo.Slug) (bool, error) {
	return f.exists[slug.String()], nil
}

func (f *fakeService) DefaultBranch(context.Context, repo.Slug) (string, error) {
	if f.branch == "" {
		return "", errors.New("no branch")
	}
	return f.branch, nil
}

func testConfig() *Config {
	return &Config{
		UpstreamRepo: "aspain/git-sweaty",
		SetupScript:  "scripts/setup_auth.py",
		Interpreter:  "python3",
		RawBaseURL:   "https://raw.githubusercontent.com",
		WSLMountRoot: "/mnt",
	}
}
