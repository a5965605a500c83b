package game

import (
	"io"
	"log"
	"os"
	"time"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Config carries the tunables of one interpreter instance.
type Config struct {
	// EmbeddedTimeout is the hard wall-clock budget for one script{} block.
	EmbeddedTimeout time.Duration
	// CompileCacheSize and CompileCacheTTL bound the source-hash compile
	// cache used on script re-saves.
	CompileCacheSize int
	CompileCacheTTL  time.Duration
	// ErrorLogPath, when set, routes handler errors to a rotating log file
	// instead of stderr.
	ErrorLogPath       string
	ErrorLogMaxSizeMB  int
	ErrorLogMaxBackups int
}

func DefaultConfig() Config {
	return Config{
		EmbeddedTimeout:    200 * time.Millisecond,
		CompileCacheSize:   256,
		CompileCacheTTL:    time.Hour,
		ErrorLogMaxSizeMB:  10,
		ErrorLogMaxBackups: 3,
	}
}

func (c Config) errorLogger() *log.Logger {
	var sink io.Writer = os.Stderr
	if c.ErrorLogPath != "" {
		sink = &lumberjack.Logger{
			Filename:   c.ErrorLogPath,
			MaxSize:    c.ErrorLogMaxSizeMB,
			MaxBackups: c.ErrorLogMaxBackups,
		}
	}
	return log.New(sink, "", log.LstdFlags)
}
