package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fulmenhq/cachebust/pkg/buildinfo"
)

func TestRunVersion(t *testing.T) {
	cmd := newVersionCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := runVersion(cmd, nil); err != nil {
		t.Fatalf("runVersion() failed: %v", err)
	}
	if got := buf.String(); got != "cachebust "+buildinfo.BinaryVersion+"\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestRunVersionExtended(t *testing.T) {
	cmd := newVersionCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	_ = cmd.Flags().Set("extended", "true")

	if err := runVersion(cmd, nil); err != nil {
		t.Fatalf("runVersion() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "go") {
		t.Errorf("extended output should include the Go version: %q", buf.String())
	}
}

func TestRunVersionJSON(t *testing.T) {
	cmd := newVersionCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	_ = cmd.Flags().Set("format", "json")

	if err := runVersion(cmd, nil); err != nil {
		t.Fatalf("runVersion() failed: %v", err)
	}
	var info map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &info); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if info["version"] != buildinfo.BinaryVersion {
		t.Errorf("version = %v", info["version"])
	}
}
