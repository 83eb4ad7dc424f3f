package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

const (
	// DefaultBinary is the gpg executable resolved from PATH.
	DefaultBinary = "gpg"
	// DefaultFormatMarker is the artifact prefix checked after a successful
	// decryption. The check is advisory; exit status stays authoritative.
	DefaultFormatMarker = "%PDF"
	// DefaultTimeout bounds a single gpg invocation.
	DefaultTimeout = 15 * time.Second

	maxDiagnosticRunes = 200
)

// GPG verifies candidates by running `gpg --batch --yes --passphrase <c> -o
// <artifact> -d <target>`. Exit status zero is success; non-zero is a
// rejection carrying a bounded stderr excerpt; anything that keeps the
// process from completing is an error outcome.
type GPG struct {
	// Binary is the gpg executable. Defaults to DefaultBinary.
	Binary string
	// TargetPath is the encrypted file every candidate is tested against.
	TargetPath string
	// Timeout bounds each invocation. Defaults to DefaultTimeout.
	Timeout time.Duration
	// FormatMarker is the expected artifact prefix. Empty disables the
	// advisory sniff.
	FormatMarker string
	// ArtifactDir receives decryption artifacts. Empty means the system
	// temporary directory.
	ArtifactDir string
}

// NewGPG returns a gpg oracle for the target with defaults applied.
func NewGPG(targetPath string, timeout time.Duration) *GPG {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GPG{
		Binary:       DefaultBinary,
		TargetPath:   targetPath,
		Timeout:      timeout,
		FormatMarker: DefaultFormatMarker,
	}
}

// Try runs one gpg invocation for the candidate. The artifact file survives
// only on success; on every other outcome it is removed best effort.
func (g *GPG) Try(ctx context.Context, candidate string) Outcome {
	artifact, err := g.createArtifact()
	if err != nil {
		return Outcome{Status: StatusError, Diagnostic: fmt.Sprintf("create artifact: %v", err)}
	}

	binary := g.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary,
		"--batch", "--yes",
		"--passphrase", candidate,
		"-o", artifact,
		"-d", g.TargetPath,
	)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	switch {
	case runErr == nil:
		g.sniff(artifact)
		return Outcome{Status: StatusSuccess, ArtifactPath: artifact}

	case runCtx.Err() == context.DeadlineExceeded:
		discard(artifact)
		return Outcome{Status: StatusError, Diagnostic: fmt.Sprintf("timed out after %s", timeout)}

	case runCtx.Err() != nil:
		discard(artifact)
		return Outcome{Status: StatusError, Diagnostic: "invocation cancelled"}

	default:
		discard(artifact)
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return Outcome{Status: StatusRejected, Diagnostic: truncate(stderr.String(), maxDiagnosticRunes)}
		}
		return Outcome{Status: StatusError, Diagnostic: fmt.Sprintf("run %s: %v", binary, runErr)}
	}
}

// createArtifact reserves the output file gpg will overwrite.
func (g *GPG) createArtifact() (string, error) {
	f, err := os.CreateTemp(g.ArtifactDir, "keysweep-*.out")
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		discard(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// sniff compares the artifact's leading bytes against the expected marker.
// An unreadable artifact counts as matching. The result never changes the
// classification.
func (g *GPG) sniff(artifact string) {
	if g.FormatMarker == "" {
		return
	}
	f, err := os.Open(artifact)
	if err != nil {
		return
	}
	defer f.Close()

	head := make([]byte, len(g.FormatMarker))
	if _, err := io.ReadFull(f, head); err != nil {
		return
	}
	if string(head) != g.FormatMarker {
		slog.Debug("Artifact does not start with expected marker; accepting anyway",
			"artifact", artifact, "marker", g.FormatMarker)
	}
}

func discard(path string) {
	_ = os.Remove(path)
}

// truncate bounds s to max runes without splitting a character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
