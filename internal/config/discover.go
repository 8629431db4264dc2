package config

import (
	"os"
	"os/exec"
	"path/filepath"
)

// EnvAdbPath overrides discovery without touching the config file.
const EnvAdbPath = "SNAPO_ADB_PATH"

// FindAdb locates the adb binary. The search order is: the configured
// path, the SNAPO_ADB_PATH environment variable, $PATH, and finally
// the well-known SDK install locations. Returns the empty string when
// nothing is found; callers decide how loudly to complain, since a
// missing binary only matters once the server needs restarting.
func FindAdb(cfg *Config) string {
	if cfg != nil && cfg.Adb.Path != "" {
		return cfg.Adb.Path
	}
	if p := os.Getenv(EnvAdbPath); p != "" {
		return p
	}
	if p, err := exec.LookPath("adb"); err == nil {
		return p
	}
	for _, dir := range sdkCandidates() {
		p := filepath.Join(dir, "platform-tools", "adb")
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// sdkCandidates lists the roots an Android SDK usually lands in.
func sdkCandidates() []string {
	var dirs []string
	if p := os.Getenv("ANDROID_HOME"); p != "" {
		dirs = append(dirs, p)
	}
	if p := os.Getenv("ANDROID_SDK_ROOT"); p != "" {
		dirs = append(dirs, p)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, "Library", "Android", "sdk"),
			filepath.Join(home, "Android", "Sdk"),
		)
	}
	return dirs
}
