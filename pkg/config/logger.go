package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// NewLogger creates the logger writing to the file, usually os.Stderr.
func NewLogger(cfg LogConfig, f *os.File) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf(`log.level "%s" is not valid: %w`, cfg.Level, err)
	}

	var w io.Writer
	switch cfg.Format {
	case LogFormatJSON:
		w = f
	case LogFormatConsole:
		w = ConsoleWriter(f)
	case LogFormatAuto, "":
		if isTerminal(f) {
			w = ConsoleWriter(f)
		} else {
			w = f
		}
	default:
		return zerolog.Nop(), fmt.Errorf(`log.format "%s" is not valid, expected one of: auto, console, json`, cfg.Format)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ConsoleWriter returns a human-readable zerolog writer, colors are used only on a terminal.
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isTerminal(f)
	w := zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}
	w.FormatPrepare = func(m map[string]any) error {
		// one line per processed request
		if m["message"] == "http request processed" {
			m["message"] = fmt.Sprintf("%v %-6v %v", m["status"], m["method"], m["url"])
			delete(m, "method")
			delete(m, "status")
			delete(m, "url")
		}
		return nil
	}
	return w
}
