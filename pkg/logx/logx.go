// Package logx configures the process-wide logger.
package logx

import (
	"github.com/pkg/errors"
	"github.com/toolkits/pkg/logger"
)

type Config struct {
	Dir        string `default:"logs"`
	Level      string `default:"INFO"`
	Output     string `default:"stderr"`
	KeepHours  uint
	RotateNum  int
	RotateSize uint64
}

// Init sets up logging and returns a function that flushes it.
func Init(c Config) (func(), error) {
	switch c.Output {
	case "stderr", "":
		logger.SetSeverity(c.Level)
		logger.LogToStderr()
	case "file":
		if c.KeepHours == 0 && c.RotateNum == 0 {
			return nil, errors.New("logx: KeepHours and RotateNum are both 0")
		}
		lb, err := logger.NewFileBackend(c.Dir)
		if err != nil {
			return nil, errors.WithMessage(err, "logx: NewFileBackend failed")
		}
		if c.KeepHours != 0 {
			lb.SetRotateByHour(true)
			lb.SetKeepHours(c.KeepHours)
		} else {
			lb.Rotate(c.RotateNum, c.RotateSize*1024*1024)
		}
		logger.SetLogging(c.Level, lb)
	default:
		return nil, errors.Errorf("logx: unknown output %q", c.Output)
	}

	return logger.Close, nil
}
