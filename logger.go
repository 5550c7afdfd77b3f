package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strconv"
	"sync"
	"text/template"
	"time"
)

// Logger is a structured logger, adapted from air's logger.go: each line is
// rendered from a text/template whose output is a JSON object, with the log
// message spliced in before the closing brace.
type Logger struct {
	AppName string
	Enabled bool
	Format  string
	Output  io.Writer

	template   *template.Template
	bufferPool *sync.Pool
	mutex      sync.Mutex
}

type loggerLevel uint8

const (
	lvlDebug loggerLevel = iota
	lvlInfo
	lvlWarn
	lvlError
	lvlFatal
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// DefaultLogFormat matches air.go's default shape: app_name, an RFC3339
// time, the level, and the caller's short file and line.
const DefaultLogFormat = `{"app_name":"{{.app_name}}","time":"{{.time_rfc3339}}",` +
	`"level":"{{.level}}","file":"{{.short_file}}","line":"{{.line}}"}`

// NewLogger returns an enabled Logger writing to os.Stdout in
// DefaultLogFormat.
func NewLogger(appName string) *Logger {
	return &Logger{
		AppName: appName,
		Enabled: true,
		Format:  DefaultLogFormat,
		Output:  os.Stdout,
		bufferPool: &sync.Pool{
			New: func() interface{} { return bytes.NewBuffer(make([]byte, 0, 256)) },
		},
	}
}

func (l *Logger) Print(args ...interface{}) { fmt.Fprintln(l.Output, args...) }
func (l *Logger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(l.Output, format+"\n", args...)
}

func (l *Logger) Debug(args ...interface{})                 { l.log(lvlDebug, "", args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(lvlDebug, format, args...) }
func (l *Logger) Info(args ...interface{})                  { l.log(lvlInfo, "", args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(lvlInfo, format, args...) }
func (l *Logger) Warn(args ...interface{})                  { l.log(lvlWarn, "", args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(lvlWarn, format, args...) }
func (l *Logger) Error(args ...interface{})                 { l.log(lvlError, "", args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(lvlError, format, args...) }

func (l *Logger) Fatal(args ...interface{}) {
	l.log(lvlFatal, "", args...)
	os.Exit(1)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log(lvlFatal, format, args...)
	os.Exit(1)
}

// log renders one log line, per air's logger.go log method: the caller's
// file/line is captured two frames up, the message is spliced into the
// rendered JSON header just before its closing brace.
func (l *Logger) log(lvl loggerLevel, format string, args ...interface{}) {
	if !l.Enabled {
		return
	}
	if l.template == nil {
		l.template = template.Must(template.New("logger").Parse(l.Format))
	}

	message := fmt.Sprint(args...)
	if format != "" {
		message = fmt.Sprintf(format, args...)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	buf, _ := l.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		l.bufferPool.Put(buf)
	}()

	_, file, line, _ := runtime.Caller(2)
	data := map[string]interface{}{
		"app_name":     l.AppName,
		"time_rfc3339": time.Now().Format(time.RFC3339),
		"level":        levelNames[lvl],
		"short_file":   path.Base(file),
		"long_file":    file,
		"line":         strconv.Itoa(line),
	}

	if err := l.template.Execute(buf, data); err != nil {
		return
	}

	s := buf.Bytes()
	if len(s) > 0 && s[len(s)-1] == '}' {
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(',')
		mb, _ := json.Marshal(message)
		buf.WriteString(`"message":`)
		buf.Write(mb)
		buf.WriteByte('}')
	} else {
		buf.WriteByte(' ')
		buf.WriteString(message)
	}
	buf.WriteByte('\n')

	l.Output.Write(buf.Bytes())
}
