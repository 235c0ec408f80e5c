package consoles

import (
	"strings"

	"github.com/pkg/errors"
)

type Console interface {
	Printf(format string, a ...any)

	Debugf(format string, a ...any)
	Infof(format string, a ...any)
	Warnf(format string, a ...any)
	Errorf(format string, a ...any)

	PushPrefix(format string, a ...any)
	PopPrefix()
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

var ErrUnknownLevel = errors.New("unknown log level")

func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.Wrapf(ErrUnknownLevel, "'%v'", name)
	}
}

// Log sends message to the method of console matching level.
func Log(console Console, level Level, message string) {
	switch level {
	case LevelDebug:
		console.Debugf("%v", message)
	case LevelInfo:
		console.Infof("%v", message)
	case LevelWarn:
		console.Warnf("%v", message)
	default:
		console.Errorf("%v", message)
	}
}
