package logging

import "time"

type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

var levelRanks = map[Level]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarning,
	"warning": LevelWarning,
	"error":   LevelError,
}

// Entry is one recorded log line.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Fields  map[string]string
}
