// Package logger is a thin zerolog wrapper.
//
// Every component gets a child logger with its name in the m field:
//
//	log.Extend(log.With().Str("m", "exchange"))
package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Level int8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
	PanicLevel
	NoLevel
	Disabled
	TraceLevel Level = -1
)

func (l Level) String() string {
	if l == Disabled {
		return "disabled"
	}
	if l < TraceLevel || l > NoLevel {
		return strconv.Itoa(int(l))
	}
	return zerolog.Level(l).String()
}

type Logger struct {
	logger *zerolog.Logger
}

// NewConsole makes the human-readable logger of the viewer.
// The s field is a short tag of the process or session,
// the m field is the component.
func NewConsole(isDebug bool, tag string, noColor bool) *Logger {
	setLevel(isDebug)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	out := zerolog.ConsoleWriter{
		Out:           os.Stdout,
		TimeFormat:    "15:04:05.000",
		NoColor:       noColor,
		PartsOrder:    []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, "s", "m", zerolog.MessageFieldName},
		FieldsExclude: []string{"s", "m", "session"},
	}
	if noColor {
		out.FormatMessage = func(i any) string {
			if i == nil {
				return ""
			}
			return fmt.Sprint(i)
		}
	}
	l := zerolog.New(out).With().Str("s", tag).Str("m", "").Timestamp().Logger()
	return &Logger{logger: &l}
}

// NewWriter makes a JSON logger for w without touching the global level.
func NewWriter(w io.Writer) *Logger {
	l := zerolog.New(w).With().Timestamp().Logger()
	return &Logger{logger: &l}
}

// Nop writes nothing.
func Nop() *Logger {
	l := zerolog.Nop()
	return &Logger{logger: &l}
}

// Default is the zerolog global logger, usable before the config is read.
func Default() *Logger { return &Logger{logger: &log.Logger} }

func setLevel(isDebug bool) {
	if isDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func (l *Logger) GetLevel() Level       { return Level(l.logger.GetLevel()) }
func (l *Logger) With() zerolog.Context { return l.logger.With() }
func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.logger.Fatal() }

// Extend makes a child logger from a context made with With.
func (l *Logger) Extend(ctx zerolog.Context) *Logger {
	child := ctx.Logger()
	return &Logger{logger: &child}
}

// Sample makes a child logger that lets through up to n messages
// every period, for the messages of the render loop.
func (l *Logger) Sample(n uint32, period time.Duration) *Logger {
	child := l.logger.Sample(&zerolog.BurstSampler{Burst: n, Period: period})
	return &Logger{logger: &child}
}
