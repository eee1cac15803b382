package config

const (
	defaultConfigPath   = "~/.config/radiosim/config.toml"
	projectConfigName   = "radiosim.toml"
	defaultSettingsFile = "~/.config/radiosim/settings.toml"
	defaultStorePath    = "~/.local/share/radiosim/settings.db"
	defaultLogDir       = "~/.local/share/radiosim/logs"
	defaultProfile      = "default"
	defaultSeparator    = "/"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"

	// SettingsFileEnv overrides paths.settings_file when the config leaves
	// it at its default.
	SettingsFileEnv = "RADIOSIM_SETTINGS_FILE"
)

// Backend names accepted in [settings].backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SettingsFile: defaultSettingsFile,
			StorePath:    defaultStorePath,
			LogDir:       defaultLogDir,
		},
		Settings: Settings{
			Backend:      BackendFile,
			Profile:      defaultProfile,
			Separator:    defaultSeparator,
			WriteThrough: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
