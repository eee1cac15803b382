package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"radiosim/internal/config"
	"radiosim/internal/logging"
	"radiosim/internal/settings"
	"radiosim/internal/settingsfile"
	"radiosim/internal/settingsstore"
	"radiosim/internal/simschema"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	profileFlag  *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag, profileFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		profileFlag:  profileFlag,
	}
}

func flagValue(flag *string) string {
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(*flag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if level := flagValue(c.logLevelFlag); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if profile := flagValue(c.profileFlag); profile != "" {
			cfg.Settings.Profile = profile
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger once. Every line carries a session
// id so one invocation can be picked out of radiosim.log.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger.With(logging.String(logging.FieldSessionID, uuid.NewString()))
	})
	return c.logger, c.loggerErr
}

// session is a loaded settings tree bound to the configured backend.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	tree    *settings.Tree
	store   *settingsstore.Store
	invalid []settings.Invalid
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// target names the file or profile the session reads and writes.
func (s *session) target() string {
	if s.store != nil {
		return fmt.Sprintf("%s (profile %s)", s.store.Path(), s.store.Profile())
	}
	return s.cfg.Paths.SettingsFile
}

// save persists the tree unless write-through already did. A failed
// write-through leaves the tree modified, so the write is retried here and
// its error reaches the caller.
func (s *session) save() error {
	if s.cfg.Settings.WriteThrough && !s.tree.IsModified() {
		return nil
	}
	return s.tree.Save("")
}

func (c *commandContext) openSession() (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, logger: logger}
	var handler settings.FileHandler
	switch cfg.Settings.Backend {
	case config.BackendSQLite:
		store, err := settingsstore.Open(cfg.Paths.StorePath,
			settingsstore.WithProfile(cfg.Settings.Profile),
			settingsstore.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("open settings store: %w", err)
		}
		s.store = store
		handler = store
	default:
		handler = settingsfile.New(cfg.Paths.SettingsFile,
			settingsfile.WithLogger(logger),
			settingsfile.WithBackup(true),
		)
	}

	s.tree = settings.New(
		settings.WithSeparator(cfg.SeparatorRune()),
		settings.WithLogger(logger),
		settings.WithFileHandler(handler),
	)
	if err := simschema.Apply(s.tree); err != nil {
		_ = s.Close()
		return nil, err
	}
	invalid, err := s.tree.Load("")
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.invalid = invalid
	return s, nil
}

func (c *commandContext) withSession(fn func(*session) error) error {
	s, err := c.openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
