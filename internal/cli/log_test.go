package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/genelim/pkg/io"
	"github.com/matzehuels/genelim/pkg/locate"
	"github.com/matzehuels/genelim/pkg/pipeline"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	logger.Info("locus done", "locus", "M1", "consistent", true)

	if !bytes.Contains(buf.Bytes(), []byte("locus=M1")) {
		t.Errorf("logger output = %q", buf.String())
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "locus done at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("locus done", "locus", "M1") },
			wantLog: true,
		},
		{
			name:    "component done hidden at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("component done", "locus", "M1", "component", 0) },
			wantLog: false,
		},
		{
			name:    "component done at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("component done", "locus", "M1", "component", 0) },
			wantLog: true,
		},
		{
			name:    "inconsistent locus at warn level",
			level:   log.WarnLevel,
			logFunc: func(l *log.Logger) { l.Warn("inconsistent locus", "locus", "M2", "family", "f x m") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestRunLogsDiagnosis(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	ds, err := io.ReadJSON(strings.NewReader(`{"name": "trio", ` + pedigreeJSON + `, "loci": [` + locusBad + `]}`))
	if err != nil {
		t.Fatal(err)
	}
	ctx := withLogger(context.Background(), logger)
	r := pipeline.NewRunner(nil, nil, loggerFromContext(ctx))
	if _, err := r.Run(ctx, ds, pipeline.Options{Diagnose: true}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"inconsistent locus", "blanked", "locus=M2"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	if prog == nil {
		t.Fatal("newProgress() returned nil")
	}

	time.Sleep(10 * time.Millisecond)
	prog.done("Checked 3 loci")

	if !bytes.Contains(buf.Bytes(), []byte("Checked 3 loci (")) {
		t.Errorf("progress.done() output = %q", buf.String())
	}
}

func TestLogLocate(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.DebugLevel)
	onProgress := logLocate(logger, 10)

	onProgress("M2", locate.Progress{Pass: 1, Checks: 3})
	if buf.Len() != 0 {
		t.Errorf("logged between intervals: %q", buf.String())
	}
	onProgress("M2", locate.Progress{Pass: 2, Checks: 20, Blanked: 1})
	if !bytes.Contains(buf.Bytes(), []byte("locus=M2")) {
		t.Errorf("progress not logged: %q", buf.String())
	}

	buf.Reset()
	logLocate(newLogger(&buf, log.InfoLevel), 0)("M2", locate.Progress{Checks: 1})
	if buf.Len() != 0 {
		t.Error("locator progress should only log at debug level")
	}
}

func TestWithLogger(t *testing.T) {
	ctx := context.Background()
	logger := log.Default()

	ctxWithLogger := withLogger(ctx, logger)

	retrieved := loggerFromContext(ctxWithLogger)
	if retrieved != logger {
		t.Error("loggerFromContext should return the same logger")
	}
}

func TestLoggerFromContextDefault(t *testing.T) {
	ctx := context.Background()

	logger := loggerFromContext(ctx)
	if logger == nil {
		t.Error("loggerFromContext should return default logger when none set")
	}
}

func TestLoggerFromContextWithValue(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	customLogger := newLogger(&buf, log.InfoLevel)

	ctx = withLogger(ctx, customLogger)
	retrieved := loggerFromContext(ctx)

	if retrieved != customLogger {
		t.Error("loggerFromContext should return the custom logger")
	}

	retrieved.Info("run started", "dataset", "trio")
	if buf.Len() == 0 {
		t.Error("custom logger should write to buffer")
	}
}
