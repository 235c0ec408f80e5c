package consoles

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type stdoutConsole struct {
	mutex    sync.Mutex
	out      io.Writer
	level    Level
	prefixes []string
}

func NewStdOutConsole(level Level) Console {
	return NewWriterConsole(os.Stdout, level)
}

func NewWriterConsole(out io.Writer, level Level) Console {
	return &stdoutConsole{
		out:   out,
		level: level,
	}
}

func (o *stdoutConsole) Printf(format string, a ...any) {
	o.write("", format, a...)
}

func (o *stdoutConsole) Debugf(format string, a ...any) {
	o.log(LevelDebug, format, a...)
}

func (o *stdoutConsole) Infof(format string, a ...any) {
	o.log(LevelInfo, format, a...)
}

func (o *stdoutConsole) Warnf(format string, a ...any) {
	o.log(LevelWarn, format, a...)
}

func (o *stdoutConsole) Errorf(format string, a ...any) {
	o.log(LevelError, format, a...)
}

func (o *stdoutConsole) log(level Level, format string, a ...any) {
	if level < o.level {
		return
	}

	o.write(strings.ToUpper(level.String()), format, a...)
}

func (o *stdoutConsole) write(tag string, format string, a ...any) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	builder := strings.Builder{}
	builder.WriteString("[")
	builder.WriteString(time.Now().Format("15:04:05"))
	builder.WriteString("] ")
	if tag != "" {
		builder.WriteString(tag)
		builder.WriteString(" ")
	}
	for _, prefix := range o.prefixes {
		builder.WriteString(prefix)
	}
	builder.WriteString(fmt.Sprintf(format, a...))
	if !strings.HasSuffix(builder.String(), "\n") {
		builder.WriteString("\n")
	}

	_, _ = io.WriteString(o.out, builder.String())
}

func (o *stdoutConsole) PushPrefix(format string, a ...any) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.prefixes = append(o.prefixes, fmt.Sprintf(format, a...))
}

func (o *stdoutConsole) PopPrefix() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if len(o.prefixes) > 0 {
		o.prefixes = o.prefixes[:len(o.prefixes)-1]
	}
}

// Prefix returns the current prefix stack, used to prefix output of child processes.
func Prefix(console Console) string {
	c, ok := console.(*stdoutConsole)
	if !ok {
		return ""
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	return strings.Join(c.prefixes, "")
}
