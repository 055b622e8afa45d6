package core

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var once sync.Once

type logger struct {
	*log.Logger
	file *lumberjack.Logger
}

var singleton *logger

// LogOptions controls the engine logger. A zero value logs debug output to stderr.
type LogOptions struct {
	Level string
	// File, when set, receives a copy of every line through a rotating writer.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func getLogger() *logger {
	if singleton == nil {
		once.Do(
			func() {
				singleton = &logger{Logger: newLogger(os.Stderr)}
				singleton.SetLevel(log.DebugLevel)
			})
	}
	return singleton
}

func newLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "Volchara 🌋 ",
		CallerOffset:    1,
	})
}

// LogConfigure swaps the output and level of the engine logger.
func LogConfigure(opts LogOptions) error {
	l := getLogger()

	level := log.DebugLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		level = parsed
	}

	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}

	var out io.Writer = os.Stderr
	if opts.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		out = io.MultiWriter(os.Stderr, l.file)
	}
	l.SetOutput(out)
	l.SetLevel(level)
	return nil
}

// LogClose flushes and closes the rotating file sink, if any.
func LogClose() error {
	l := getLogger()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.SetOutput(os.Stderr)
	return err
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
