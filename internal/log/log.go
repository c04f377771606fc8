package log

import (
	"io"
	"log"
	"os"
)

type Level int

const (
	LevelInfo Level = iota
	LevelDebug
)

// Logger is a minimal leveled logger. Debug lines are dropped unless the
// logger was created with LevelDebug.
type Logger struct {
	level Level
	out   *log.Logger
}

func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{level: level, out: log.New(out, "", log.LstdFlags)}
}

// Discard returns a logger that writes nothing, for tests.
func Discard() *Logger {
	return New(LevelInfo, io.Discard)
}

func (l *Logger) Infof(format string, args ...any) {
	l.out.Printf("INFO: "+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.level >= LevelDebug {
		l.out.Printf("DEBUG: "+format, args...)
	}
}

func (l *Logger) Level() Level {
	return l.level
}
