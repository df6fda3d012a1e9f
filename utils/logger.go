/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const loggerNameField = "logger"

var (
	defaultLevel     = ParseLogLevel(EnvDefaultString("LOG_LEVEL", "info"))
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
	consoleLogFormat = EnvDefaultString("CONSOLE_LOG_FORMAT", "text")
	consoleOutput    io.Writer = os.Stdout
)

// ConfigureConsoleLogFormat switches newly created loggers between the colored
// text layout and JSON lines.
func ConfigureConsoleLogFormat(format string) {
	f := "text"
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		f = "json"
	}
	loggerRegistryMu.Lock()
	consoleLogFormat = f
	loggerRegistryMu.Unlock()
}

// ConfigureConsoleOutput redirects every registered logger, and the ones
// created afterwards, to w.
func ConfigureConsoleOutput(w io.Writer) {
	if w == nil {
		return
	}
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	consoleOutput = w
	for _, lg := range loggerRegistry {
		lg.SetOutput(w)
	}
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func RegisterLogger(name string, l *logrus.Logger) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	loggerRegistry[name] = l
}

// GetRegisteredLogger returns the logger created under name, if any.
func GetRegisteredLogger(name string) (*logrus.Logger, bool) {
	loggerRegistryMu.RLock()
	defer loggerRegistryMu.RUnlock()
	l, ok := loggerRegistry[name]
	return l, ok
}

func SetLoggerLevel(name string, lvlStr string) bool {
	lvl := ParseLogLevel(lvlStr)
	loggerRegistryMu.RLock()
	lg, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if !ok {
		return false
	}
	lg.SetLevel(lvl)
	return true
}

// ConfigureLogLevel sets the level of every registered logger and the default
// for loggers created later.
func ConfigureLogLevel(levelStr string) {
	lvl := ParseLogLevel(levelStr)
	loggerRegistryMu.Lock()
	defaultLevel = lvl
	for _, lg := range loggerRegistry {
		lg.SetLevel(lvl)
	}
	loggerRegistryMu.Unlock()
	logrus.SetLevel(lvl)
}

// NewLogger creates (or returns the already registered) logger for name.
func NewLogger(name string) *logrus.Logger {
	if l, ok := GetRegisteredLogger(name); ok {
		return l
	}
	l := logrus.New()
	loggerRegistryMu.RLock()
	l.SetOutput(consoleOutput)
	l.SetLevel(defaultLevel)
	format := consoleLogFormat
	loggerRegistryMu.RUnlock()
	l.SetReportCaller(true)
	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
			},
		})
		l.AddHook(&nameHook{name: name})
	} else {
		l.SetFormatter(&Log4jColorFormatter{
			LoggerName:      name,
			TimestampFormat: "2006-01-02 15:04:05.000",
			NameWidth:       10,
			CallerWidth:     25,
		})
	}
	RegisterLogger(name, l)
	return l
}

// nameHook stamps JSON entries with the logger name.
type nameHook struct {
	name string
}

func (h *nameHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *nameHook) Fire(e *logrus.Entry) error {
	e.Data[loggerNameField] = h.name
	return nil
}

type Log4jColorFormatter struct {
	LoggerName      string
	TimestampFormat string
	NameWidth       int
	CallerWidth     int
}

func (f *Log4jColorFormatter) tsFormat() string {
	if f.TimestampFormat != "" {
		return f.TimestampFormat
	}
	return "2006-01-02 15:04:05.000"
}

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	ts := entry.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	lvl := colorLevel(padLeft(strings.ToUpper(entry.Level.String()), 7), entry.Level)
	pid := magenta.Sprintf("%-6d", os.Getpid())
	name := cyan.Sprint(padLeft(limitRunes(f.LoggerName, f.NameWidth), f.NameWidth))

	callerInfo := ""
	if entry.Caller != nil {
		fileLine := fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
		if f.CallerWidth > 0 {
			fileLine = padLeft(limitRunes(fileLine, f.CallerWidth), f.CallerWidth)
		}
		callerInfo = faint.Sprint(" " + fileLine)
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var fields strings.Builder
	for _, k := range keys {
		fields.WriteString(fmt.Sprintf(" %s=%v", k, entry.Data[k]))
	}

	line := fmt.Sprintf("%s %s %s - %s%s %s %s%s\n",
		ts.Format(f.tsFormat()), lvl, pid, name, callerInfo, faint.Sprint(":"), entry.Message, fields.String())
	return []byte(line), nil
}

func padLeft(s string, width int) string { return fmt.Sprintf("%"+strconv.Itoa(width)+"s", s) }

func limitRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

var (
	faint   = color.New(color.Faint)
	magenta = color.New(color.FgMagenta)
	cyan    = color.New(color.FgCyan)

	levelColors = map[logrus.Level]*color.Color{
		logrus.PanicLevel: color.New(color.FgRed, color.Bold),
		logrus.FatalLevel: color.New(color.FgRed, color.Bold),
		logrus.ErrorLevel: color.New(color.FgRed),
		logrus.WarnLevel:  color.New(color.FgYellow),
		logrus.InfoLevel:  color.New(color.FgGreen),
		logrus.DebugLevel: color.New(color.FgBlue),
		logrus.TraceLevel: magenta,
	}
)

func colorLevel(s string, level logrus.Level) string {
	if c, ok := levelColors[level]; ok {
		return c.Sprint(s)
	}
	return s
}

func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
