package config

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// SetupLogger configure the global logrus logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) SetupLogger() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	if c.LogFormat == "text" {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		return
	}
	log.SetFormatter(&log.JSONFormatter{})
}
