package config

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// NewLogger builds the process logger from the log section.
func NewLogger(c LogConfig, w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	formatter := log.TextFormatter
	if c.Format == "json" {
		formatter = log.JSONFormatter
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          AppName,
		Level:           level,
		ReportTimestamp: true,
		Formatter:       formatter,
	}), nil
}
