package server

import "fmt"

// LogServerConfig controls the application logger. Output goes to stdout
// unless no_terminal is set; file enables rotated output via lumberjack.
type LogServerConfig struct {
	Level      string                  `mapstructure:"level"       yaml:"level"`
	TimeFormat string                  `mapstructure:"time_format" yaml:"time_format"`
	File       string                  `mapstructure:"file"        yaml:"file"`
	NoColor    bool                    `mapstructure:"no_color"    yaml:"no_color"`
	JSON       bool                    `mapstructure:"json"        yaml:"json"`
	NoTerminal bool                    `mapstructure:"no_terminal" yaml:"no_terminal"`
	Rotation   LogServerRotationConfig `mapstructure:"rotation"    yaml:"rotation"`
}

// LogServerRotationConfig mirrors the lumberjack settings. Sizes are in
// megabytes, ages in days; zero keeps lumberjack's own default.
type LogServerRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"     yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"  yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"      yaml:"max_age"`
	Compress   bool `mapstructure:"compress"     yaml:"compress"`
}

func (cfg LogServerConfig) Validate() error {
	if cfg.NoTerminal && cfg.File == "" {
		return fmt.Errorf("log.no_terminal requires log.file to be set")
	}

	r := cfg.Rotation
	if r.MaxSize < 0 || r.MaxBackups < 0 || r.MaxAge < 0 {
		return fmt.Errorf("log.rotation values must not be negative")
	}
	return nil
}
