package config_test

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/louisbranch/tabletop.run/internal/platform/config"
)

const exitHelperEnv = "TABLETOP_RUN_TEST_EXITF"

// os.Exit cannot be observed in-process, so the test re-runs itself.
func TestExitfWritesAndExits(t *testing.T) {
	if os.Getenv(exitHelperEnv) == "1" {
		config.Exitf("Error: %s", "journal missing")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExitfWritesAndExits$")
	cmd.Env = append(os.Environ(), exitHelperEnv+"=1")
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %T %v, want *exec.ExitError", err, err)
	}
	if exitErr.ExitCode() != 1 {
		t.Fatalf("exit code = %d, want 1", exitErr.ExitCode())
	}
	if !strings.Contains(string(out), "Error: journal missing\n") {
		t.Fatalf("output = %q", out)
	}
}
