// pkg/logger/log.go
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	SUCCESS
	WARNING
	ERROR
	FATAL
)

// MinLevel 低于该级别的日志不会输出
var MinLevel = INFO

func (l Level) String() string {
	return []string{"D", "I", "✓", "!", "!!", "FATAL"}[l]
}

func (l Level) color() *color.Color {
	return []*color.Color{
		color.New(color.FgWhite, color.Italic),
		color.New(color.FgWhite),
		color.New(color.FgHiGreen),
		color.New(color.FgYellow),
		color.New(color.FgHiRed, color.Bold),
		color.New(color.FgHiRed, color.Bold, color.Underline),
	}[l]
}

// Logger 是带名字的日志器，每个组件持有一个
type Logger interface {
	Emit(level Level, format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Successf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

type manager struct {
	mu     sync.Mutex
	out    io.Writer
	offset int
}

var mgr = &manager{out: os.Stdout}

// SetOutput 替换日志输出目标（测试中使用）
func SetOutput(w io.Writer) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.out = w
}

// Get 返回指定名字的日志器
func Get(name string) Logger {
	return &named{name: name}
}

func (m *manager) emit(level Level, name, format string, args ...interface{}) {
	if level < MinLevel {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(name) > m.offset {
		m.offset = len(name)
	}
	padding := strings.Repeat(" ", m.offset-len(name))
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] %s(%s) %s\n", time.Now().Format("2006/01/02 15:04:05"), name, padding, level, msg)

	level.color().Fprint(m.out, line)
}

type named struct {
	name string
}

func (n *named) Emit(level Level, format string, args ...interface{}) {
	mgr.emit(level, n.name, format, args...)
}

func (n *named) Debugf(format string, args ...interface{})   { n.Emit(DEBUG, format, args...) }
func (n *named) Infof(format string, args ...interface{})    { n.Emit(INFO, format, args...) }
func (n *named) Successf(format string, args ...interface{}) { n.Emit(SUCCESS, format, args...) }
func (n *named) Warnf(format string, args ...interface{})    { n.Emit(WARNING, format, args...) }
func (n *named) Errorf(format string, args ...interface{})   { n.Emit(ERROR, format, args...) }

// Fatalf 输出日志后退出进程
func (n *named) Fatalf(format string, args ...interface{}) {
	n.Emit(FATAL, format, args...)
	os.Exit(1)
}
