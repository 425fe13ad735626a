package logging

import (
	"strings"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	l := Logger()
	l.Warn().Str("component", "gorm").Msgf(strings.TrimSpace(format), args...)
}

// GormLogger routes gorm's SQL logging through zerolog.
// level is one of silent, error, warn, info.
func GormLogger(level string) gormlogger.Interface {
	lvl := gormlogger.Warn
	switch strings.ToLower(level) {
	case "silent":
		lvl = gormlogger.Silent
	case "error":
		lvl = gormlogger.Error
	case "info":
		lvl = gormlogger.Info
	}
	return gormlogger.New(gormWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
