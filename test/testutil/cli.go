// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package testutil

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const modulePath = "github.com/sirseerhq/tutils"

var (
	buildOnce  sync.Once
	binaryPath string
	buildErr   error
)

// BuildBinary compiles cmd/tutils into a temp directory the first time it is
// called and returns the cached path afterwards.
func BuildBinary(t *testing.T) string {
	t.Helper()

	buildOnce.Do(func() {
		root, err := moduleRoot()
		if err != nil {
			buildErr = err
			return
		}
		// Outlives any single test, so not t.TempDir.
		dir, err := os.MkdirTemp("", "tutils-bin")
		if err != nil {
			buildErr = err
			return
		}
		binaryPath = filepath.Join(dir, "tutils")

		build := exec.Command("go", "build", "-o", binaryPath, "./cmd/tutils")
		build.Dir = root
		if out, err := build.CombinedOutput(); err != nil {
			buildErr = errors.New(err.Error() + ": " + string(out))
		}
	})

	if buildErr != nil {
		t.Fatalf("Failed to build tutils: %v", buildErr)
	}
	return binaryPath
}

// CLIResult is the outcome of one tutils invocation.
type CLIResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Process is a tutils invocation started with StartCLI.
type Process struct {
	Cmd    *exec.Cmd
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// Wait blocks until the process exits and collects its result.
func (p *Process) Wait() CLIResult {
	err := p.Cmd.Wait()
	return CLIResult{
		ExitCode: exitCode(err),
		Stdout:   p.stdout.String(),
		Stderr:   p.stderr.String(),
		Err:      err,
	}
}

// command prepares a tutils run with home as both HOME and the working
// directory. The environment is minimal so TUTILS_* variables of the host
// cannot leak in.
func command(t *testing.T, home string, args []string, env map[string]string) *exec.Cmd {
	t.Helper()

	cmd := exec.Command(BuildBinary(t), args...)
	cmd.Dir = home
	cmd.Env = []string{"PATH=" + os.Getenv("PATH"), "HOME=" + home}
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	return cmd
}

// RunCLI runs tutils to completion.
func RunCLI(t *testing.T, home string, args []string, env map[string]string) CLIResult {
	t.Helper()

	p := &Process{Cmd: command(t, home, args, env)}
	p.Cmd.Stdout = &p.stdout
	p.Cmd.Stderr = &p.stderr
	if err := p.Cmd.Start(); err != nil {
		return CLIResult{ExitCode: -1, Err: err}
	}
	return p.Wait()
}

// StartCLI starts tutils without waiting, for tests that signal the process.
func StartCLI(t *testing.T, home string, args []string, env map[string]string) *Process {
	t.Helper()

	p := &Process{Cmd: command(t, home, args, env)}
	p.Cmd.Stdout = &p.stdout
	p.Cmd.Stderr = &p.stderr
	if err := p.Cmd.Start(); err != nil {
		t.Fatalf("Failed to start tutils: %v", err)
	}
	t.Cleanup(func() {
		if p.Cmd.ProcessState == nil {
			_ = p.Cmd.Process.Kill()
			_, _ = p.Cmd.Process.Wait()
		}
	})
	return p
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// AssertCLISuccess fails the test unless the command exited 0.
func AssertCLISuccess(t *testing.T, result CLIResult) {
	t.Helper()

	if result.Err != nil {
		t.Fatalf("tutils failed (exit %d): %v\nStderr: %s", result.ExitCode, result.Err, result.Stderr)
	}
}

// AssertCLIError fails the test if the command succeeded or if wantStderr is
// set and missing from stderr.
func AssertCLIError(t *testing.T, result CLIResult, wantStderr string) {
	t.Helper()

	if result.Err == nil {
		t.Fatalf("tutils succeeded, expected failure\nStdout: %s", result.Stdout)
	}
	if wantStderr != "" && !strings.Contains(result.Stderr, wantStderr) {
		t.Errorf("stderr does not contain %q:\n%s", wantStderr, result.Stderr)
	}
}

// AssertExitCode compares the exit status.
func AssertExitCode(t *testing.T, result CLIResult, want int) {
	t.Helper()

	if result.ExitCode != want {
		t.Errorf("exit code = %d, want %d\nStderr: %s", result.ExitCode, want, result.Stderr)
	}
}

// moduleRoot walks up from the working directory to the go.mod that declares
// this module.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if declaresModule(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod for " + modulePath + " not found")
		}
		dir = parent
	}
}

func declaresModule(gomod string) bool {
	f, err := os.Open(gomod)
	if err != nil {
		return false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); strings.HasPrefix(line, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "module")) == modulePath
		}
	}
	return false
}
