package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("Built %d of %d sheets", 2, 3)

	out := buf.String()
	for _, want := range []string{"Built 2 of 3 sheets", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestProgressHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.WarnLevel)).done("Built 1 of 1 sheets")
	if buf.Len() != 0 {
		t.Errorf("summary should be suppressed below info level, got %q", buf.String())
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("resolved images")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %q", buf.String())
	}
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("resolved images", "images", 2)
	if !strings.Contains(buf.String(), "images=2") {
		t.Errorf("debug line missing after SetLogLevel: %q", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	custom := newLogger(&bytes.Buffer{}, log.InfoLevel)
	var nilCtx context.Context

	tests := []struct {
		name string
		ctx  context.Context
		want *log.Logger
	}{
		{"nil context", nilCtx, log.Default()},
		{"no logger", context.Background(), log.Default()},
		{"attached", withLogger(context.Background(), custom), custom},
		{"attached to nil context", withLogger(nilCtx, custom), custom},
		{"nil logger attached", withLogger(context.Background(), nil), log.Default()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loggerFromContext(tt.ctx); got != tt.want {
				t.Errorf("loggerFromContext() = %p, want %p", got, tt.want)
			}
		})
	}
}

func TestRootCommandCarriesLogger(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()

	var got *log.Logger
	root.AddCommand(&cobra.Command{
		Use: "inspect",
		Run: func(cmd *cobra.Command, args []string) {
			got = loggerFromContext(cmd.Context())
		},
	})
	root.SetArgs([]string{"inspect"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got != c.Logger {
		t.Error("subcommands should see the CLI logger in their context")
	}
}
