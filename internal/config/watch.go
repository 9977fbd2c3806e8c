package config

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch re-reads the config file whenever it is written and calls onChange.
// It returns false when no config file is in use and nothing is watched.
func (c *Config) Watch(logger *zap.Logger, onChange func(*Config)) bool {
	file := c.v.ConfigFileUsed()
	if file == "" {
		return false
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		// Editors often save via rename, so a create counts as a write.
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logger.Info("Configuration file changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		onChange(c)
	})
	c.v.WatchConfig()

	logger.Info("Watching configuration file", zap.String("file", file))
	return true
}
