package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pixveltest "github.com/dandibbert/pixvel/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestNewRunner(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		if runner.config == nil {
			t.Error("expected a default config")
		}
		if runner.logger == nil {
			t.Error("expected a default logger")
		}
		if runner.output == nil {
			t.Error("expected a default output writer")
		}
		if runner.httpClient == nil {
			t.Error("expected a default http client")
		}
	})
}

func TestRegister(t *testing.T) {
	runner := NewRunner(RunnerOpts{})
	commands := runner.register()

	if len(commands) == 0 {
		t.Fatal("expected at least one command to be registered")
	}
	for i, cmd := range commands {
		if cmd.Name == "" {
			t.Errorf("command %d has no name", i)
		}
	}
}

func TestWritePlain(t *testing.T) {
	t.Run("writes formatted output", func(t *testing.T) {
		var buf bytes.Buffer
		runner := NewRunner(RunnerOpts{Output: &buf})

		if err := runner.writePlain("hello %s\n", "world"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != "hello world\n" {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("handles write failure", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &pixveltest.FWriter{}})

		err := runner.writePlain("test")
		if err == nil {
			t.Fatal("expected error from failing writer")
		}
		if !strings.Contains(err.Error(), "failed to write output") {
			t.Errorf("expected write error, got %v", err)
		}
	})
}

func TestSetupConfig(t *testing.T) {
	command := func(r *Runner, path string) *cli.Command {
		return &cli.Command{
			Flags:  []cli.Flag{&cli.StringFlag{Name: "config", Value: path}},
			Action: r.SetupConfig,
		}
	}

	t.Run("writes the template and reports the path", func(t *testing.T) {
		var buf bytes.Buffer
		runner := NewRunner(RunnerOpts{Output: &buf})
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := command(runner, path).Run(context.Background(), []string{"config"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Errorf("config file not created: %v", err)
		}
		if !strings.Contains(buf.String(), path) {
			t.Errorf("output %q does not mention the config path", buf.String())
		}
	})

	t.Run("handles write failure", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &pixveltest.FWriter{}})
		path := filepath.Join(t.TempDir(), "config.toml")

		err := command(runner, path).Run(context.Background(), []string{"config"})
		if err == nil {
			t.Fatal("expected error from failing writer")
		}
		if !strings.Contains(err.Error(), "failed to write output") {
			t.Errorf("expected write error, got %v", err)
		}
	})
}
