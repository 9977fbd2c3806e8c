package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/anomaly-classifier/internal/adapters/cli"
	"github.com/mikey/anomaly-classifier/internal/config"
	"github.com/mikey/anomaly-classifier/internal/ports"
)

func TestBuildContainer_ResolvesFrontends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  listen_address: 127.0.0.1:0
smtp:
  enabled: true
  listen_address: 127.0.0.1:0
  exempt_domains: [trusted.example]
logging:
  format: console
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	container, err := BuildContainer(path)
	if err != nil {
		t.Fatalf("BuildContainer: %v", err)
	}

	err = container.Invoke(func(frontends []ports.Frontend, classifier ports.RecordClassifier) {
		if len(frontends) != 2 {
			t.Errorf("frontends: got %d, want 2", len(frontends))
		}
		if classifier == nil {
			t.Error("classifier not provided")
		}
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
}

func TestBuildContainer_MissingConfigFile(t *testing.T) {
	container, err := BuildContainer(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("BuildContainer: %v", err)
	}
	if err := container.Invoke(func(*config.Config) {}); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestBuildCLIContainer(t *testing.T) {
	flags := &CLIFlags{Format: cli.FormatJSON, Workers: 4, Exempt: "a.example, b.example"}

	container, err := BuildCLIContainer(flags)
	if err != nil {
		t.Fatalf("BuildCLIContainer: %v", err)
	}

	err = container.Invoke(func(d *cli.Detector, cfg *config.Config) {
		if d == nil {
			t.Error("detector not provided")
		}
		if w := cfg.GetClassifier().Workers; w != 4 {
			t.Errorf("workers: got %d, want 4", w)
		}
		if got := cfg.GetSMTP().ExemptDomains; len(got) != 2 || got[1] != "b.example" {
			t.Errorf("exempt domains: got %v", got)
		}
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
}

func TestBuildCLIContainer_BadFormat(t *testing.T) {
	container, err := BuildCLIContainer(&CLIFlags{Format: "xml"})
	if err != nil {
		t.Fatalf("BuildCLIContainer: %v", err)
	}
	if err := container.Invoke(func(*cli.Detector) {}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
