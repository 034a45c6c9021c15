package log

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
)

// Config declares a logger.
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // text|json
	// Outputs: "stderr", "stdout", "null" or a file path. Defaults to stderr.
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Redact  []string `json:"redact,omitempty" yaml:"redact,omitempty"`
	// SampleInitial/SampleThereafter enable per-message sampling when
	// SampleThereafter > 0.
	SampleInitial    int `json:"sampleInitial,omitempty" yaml:"sampleInitial,omitempty"`
	SampleThereafter int `json:"sampleThereafter,omitempty" yaml:"sampleThereafter,omitempty"`
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := []LoggerOption{WithLevel(level)}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		opts = append(opts, WithFormatter(&TextFormatter{}))
	case "json":
		opts = append(opts, WithFormatter(&JSONFormatter{}))
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}
	for _, o := range cfg.Outputs {
		switch o {
		case "", "stderr":
			opts = append(opts, WithOutput(NewConsoleOutput()))
		case "stdout":
			opts = append(opts, WithOutput(NewWriterOutput(os.Stdout)))
		case "null":
			opts = append(opts, WithOutput(NullOutput{}))
		default:
			f, err := os.OpenFile(o, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("log: open output %s: %w", o, err)
			}
			opts = append(opts, WithOutput(&fileOutput{ConsoleOutput: ConsoleOutput{w: f}, f: f}))
		}
	}
	if len(cfg.Redact) > 0 {
		opts = append(opts, WithRedaction(cfg.Redact...))
	}
	if cfg.SampleThereafter > 0 {
		opts = append(opts, WithSampling(cfg.SampleInitial, cfg.SampleThereafter))
	}
	return NewLogger(opts...), nil
}

type fileOutput struct {
	ConsoleOutput
	f *os.File
}

func (o *fileOutput) Close() error { return o.f.Close() }

// RedirectStdLog sends output of the standard library logger (used by
// Pebble's default logger) to l at info level.
func RedirectStdLog(l Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(stdWriter{l: l})
}

// ToStdLogger returns a *log.Logger that writes to l.
func ToStdLogger(l Logger) *stdlog.Logger {
	return stdlog.New(stdWriter{l: l}, "", 0)
}

type stdWriter struct{ l Logger }

func (w stdWriter) Write(p []byte) (int, error) {
	w.l.Info(strings.TrimRight(string(p), "\n"), Component("stdlog"))
	return len(p), nil
}
