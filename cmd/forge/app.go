// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/invowk/forge/internal/config"
	"github.com/invowk/forge/internal/issue"
	"github.com/invowk/forge/internal/localrepo"
	"github.com/invowk/forge/internal/project"
	"github.com/invowk/forge/internal/reactor"
	"github.com/invowk/forge/internal/scope"
	"github.com/invowk/forge/pkg/repository"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. Every command handler
	// receives it.
	App struct {
		Config ConfigProvider
		Fs     afero.Fs
		stdout io.Writer
		stderr io.Writer

		// Set by the root command's persistent flags.
		verbose    bool
		configPath string
	}

	// Dependencies are the injection points of NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config ConfigProvider
		Fs     afero.Fs
		Stdout io.Writer
		Stderr io.Writer
	}

	// buildSession is everything one invocation needs to prepare a reactor.
	buildSession struct {
		reactor *reactor.Reactor
		builder *reactor.Builder
		caches  *project.Caches
		config  *config.Config
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider(deps.Fs)
	}
	return &App{Config: deps.Config, Fs: deps.Fs, stdout: deps.Stdout, stderr: deps.Stderr}
}

// logger returns a slog logger backed by a charmbracelet/log handler
// writing to stderr. --verbose enables debug records.
func (a *App) logger() *slog.Logger {
	level := log.WarnLevel
	if a.verbose {
		level = log.DebugLevel
	}
	return slog.New(log.NewWithOptions(a.stderr, log.Options{
		Level:  level,
		Prefix: config.AppName,
	}))
}

// loadConfig loads the configuration named by --config, rendering the
// configuration guidance on failure.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		a.renderIssue(issue.ConfigLoadFailedId)
		return nil, err
	}
	return cfg, nil
}

// openSession loads the reactor rooted at dir and wires the resolution
// services of one build session. policy overrides the configured merge
// policy when not empty.
func (a *App) openSession(cfg *config.Config, dir string, policy repository.MergePolicy) (*buildSession, error) {
	if policy == "" {
		policy = cfg.RepositoryMerging
	}

	session, err := cfg.Session(config.AppName + "-" + strconv.FormatInt(time.Now().UnixNano(), 36))
	if err != nil {
		return nil, err
	}

	logger := a.logger()
	system := localrepo.New(a.Fs, localrepo.WithLogger(logger))
	remote, err := buildRepositories(system, cfg.RemoteRepositories())
	if err != nil {
		return nil, err
	}
	plugins, err := buildRepositories(system, cfg.PluginRepositoryDeclarations())
	if err != nil {
		return nil, err
	}

	r, err := reactor.Load(a.Fs, dir, nil)
	if err != nil {
		return nil, issue.WrapWithContext(err, "load build descriptors", dir)
	}

	world := scope.NewWorld(a.Fs, scope.WithLogger(logger))
	caches := project.NewCaches()
	return &buildSession{
		reactor: r,
		caches:  caches,
		config:  cfg,
		builder: &reactor.Builder{
			System: system,
			Fs:     a.Fs,
			World:  world,
			Helper: project.NewHelper(system, world, a.Fs, caches, project.WithHelperLogger(logger)),
			Request: &project.BuildingRequest{
				Session:            session,
				Policy:             policy,
				RemoteRepositories: remote,
				PluginRepositories: plugins,
			},
			MaxParallel: cfg.MaxParallel,
			Logger:      logger,
		},
	}, nil
}

// build prepares every project and tears the session caches down afterwards.
func (s *buildSession) build(ctx context.Context) (reactor.Results, error) {
	defer s.caches.Flush()
	return s.builder.Build(ctx, s.reactor)
}

func buildRepositories(system *localrepo.System, decls []repository.Declaration) ([]*repository.Repository, error) {
	out := make([]*repository.Repository, 0, len(decls))
	for _, d := range decls {
		r, err := system.BuildRepository(d)
		if err != nil {
			return nil, fmt.Errorf("configured repository: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
