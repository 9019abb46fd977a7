package job

import (
	"fmt"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
)

// LogEntry is one line of a job log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Logger appends to a job log and forwards every entry to the process logger
// prefixed with the job id.
type Logger struct {
	job *Job
}

func (l Logger) Debug(format string, args ...any) { l.append(logger.LevelDebug, format, args...) }
func (l Logger) Info(format string, args ...any)  { l.append(logger.LevelInfo, format, args...) }
func (l Logger) Warn(format string, args ...any)  { l.append(logger.LevelWarn, format, args...) }
func (l Logger) Error(format string, args ...any) { l.append(logger.LevelError, format, args...) }

func (l Logger) append(level logger.Level, format string, args ...any) {
	message := fmt.Sprintf(format, args...)

	j := l.job
	j.mu.Lock()
	j.log = append(j.log, LogEntry{Time: time.Now(), Level: level.String(), Message: message})
	id := j.id
	j.mu.Unlock()

	logger.Log(level, "[job %s] %s", id, message)
}
