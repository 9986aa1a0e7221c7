package app

import (
	"strings"

	"github.com/charlesng35/investorportal/pkg/logger"
)

// ConfigureLogging initialises the global logger from the server section,
// defaulting to info and adding a rotated file sink when a path is set.
func ConfigureLogging(cfg ServerConfig) error {
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}
	return logger.InitWithFile(level, logger.FileOptions{
		Path:       strings.TrimSpace(cfg.LogFile.Path),
		MaxSizeMB:  cfg.LogFile.MaxSizeMB,
		MaxBackups: cfg.LogFile.MaxBackups,
		MaxAgeDays: cfg.LogFile.MaxAgeDays,
		Compress:   cfg.LogFile.Compress,
	})
}
