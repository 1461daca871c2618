// Copyright (C) 2021 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package directory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coreos/go-semver/semver"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	// SettingsPathEnv if set, will load the settings from that path.
	SettingsPathEnv = "BOARDTEST_SETTINGS_PATH"
	settingsFile    = "settings.toml"

	// VersionKey holds the optional schema version of the settings file.
	VersionKey = "version"
)

// SupportedVersion is the settings schema this build understands. Files with
// another major version are rejected.
var SupportedVersion = semver.New("1.0.0")

// GetSettingsPath returns the flag value if given, then the environment
// override, then the settings file in the working directory.
func GetSettingsPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path, ok := os.LookupEnv(SettingsPathEnv); ok {
		return path
	}
	return settingsFile
}

func newSettings(path string) *viper.Viper {
	cfg := viper.New()
	cfg.SetConfigType("toml")
	cfg.SetConfigFile(path)
	return cfg
}

// GetSettings reads the settings file. Unlike user configuration the file
// must exist: every device test is configured from it.
func GetSettings(path string) (*viper.Viper, error) {
	cfg := newSettings(path)
	if err := cfg.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("the settings file '%s' does not exist", path)
		}
		return nil, fmt.Errorf("failed to read settings '%s': %w", path, err)
	}
	if err := CheckVersion(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CheckVersion rejects settings written for another major schema version.
func CheckVersion(cfg *viper.Viper) error {
	if !cfg.IsSet(VersionKey) {
		return nil
	}
	raw := cfg.GetString(VersionKey)
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("invalid settings version '%s': %w", raw, err)
	}
	if v.Major != SupportedVersion.Major {
		return fmt.Errorf("settings version %s is not supported, expected %d.x", v, SupportedVersion.Major)
	}
	return nil
}

func WriteSettings(cfg *viper.Viper) error {
	file := cfg.ConfigFileUsed()
	dir := filepath.Dir(file)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmpFile := filepath.Join(dir, ".settings.tmp.toml")
	if err := cfg.WriteConfigAs(tmpFile); err != nil {
		return err
	}
	defer os.Remove(tmpFile)

	return os.Rename(tmpFile, file)
}

// WatchSettings calls onChange with the freshly read settings, or the error
// reading them, every time the settings file is written or replaced. It
// returns when ctx is done.
func WatchSettings(ctx context.Context, path string, onChange func(*viper.Viper, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	// Watch the directory; editors and WriteSettings replace the file.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			onChange(GetSettings(path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
