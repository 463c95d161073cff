// Package config loads process configuration from an optional TOML file and
// MUDRA_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds process configuration. Recognizer thresholds are not part of
// it; they live in stored definitions.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Camera    CameraConfig    `mapstructure:"camera"`
	Detection DetectionConfig `mapstructure:"detection"`
	Plugins   PluginsConfig   `mapstructure:"plugins"`
	Log       LogConfig       `mapstructure:"log"`
	Tray      TrayConfig      `mapstructure:"tray"`
	Web       WebConfig       `mapstructure:"web"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type CameraConfig struct {
	Device int `mapstructure:"device"`
	FPS    int `mapstructure:"fps"`
}

// DetectionConfig controls the recognizer runtime.
type DetectionConfig struct {
	// FrameRate is the number of frame ticks per second for motion watchers.
	FrameRate int  `mapstructure:"frame_rate"`
	Enabled   bool `mapstructure:"enabled"`
}

// FrameInterval converts FrameRate to a tick interval.
func (d DetectionConfig) FrameInterval() time.Duration {
	if d.FrameRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(d.FrameRate)
}

type PluginsConfig struct {
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
	Workers int           `mapstructure:"workers"`
	Queue   int           `mapstructure:"queue"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TrayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// WebConfig points at the static UI. An empty Dir is auto-detected.
type WebConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads configuration from file and env. Env var overrides use prefix
// MUDRA_, with dots in keys replaced by underscores.
func Load() (Config, error) {
	home := os.Getenv("HOME")
	dataDir := filepath.Join(home, ".mudra")

	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", filepath.Join(dataDir, "mudra.db"))
	v.SetDefault("camera.device", 0)
	v.SetDefault("camera.fps", 30)
	v.SetDefault("detection.frame_rate", 60)
	v.SetDefault("detection.enabled", true)
	v.SetDefault("plugins.dir", filepath.Join(dataDir, "plugins"))
	v.SetDefault("plugins.timeout", 5*time.Second)
	v.SetDefault("plugins.workers", 2)
	v.SetDefault("plugins.queue", 32)
	v.SetDefault("log.level", "info")
	v.SetDefault("tray.enabled", false)
	v.SetDefault("web.dir", "")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("MUDRA_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "mudra"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MUDRA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit file that cannot be read is an error; a missing default is not.
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
