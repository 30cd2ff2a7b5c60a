package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared pipeline logger.
var Log *logrus.Logger

func init() {
	// Usable before InitLogger runs, e.g. in tests.
	Log = logrus.New()
	Log.SetFormatter(&lineFormatter{})
}

// lineFormatter renders [TIME] [LEVEL] [FILE:LINE] MSG lines.
type lineFormatter struct{}

func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var fileLine string
	if entry.HasCaller() {
		fileLine = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	timeStr := entry.Time.Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf("[%s] [%s] [%s] %s\n", timeStr, level, fileLine, entry.Message)
	return []byte(msg), nil
}

// InitLogger configures level and output. When filePath is non-empty the log is
// written to both stdout and the file.
func InitLogger(levelStr string, filePath string) error {
	Log.SetReportCaller(true)

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	writers := []io.Writer{os.Stdout}
	if filePath != "" {
		logDir := filepath.Dir(filePath)
		if logDir != "." {
			if err := os.MkdirAll(logDir, 0o755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}

		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}
	Log.SetOutput(io.MultiWriter(writers...))

	return nil
}
