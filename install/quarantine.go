package install

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// quarantineAttr is the macOS extended attribute Gatekeeper applies to
// downloaded files.
const quarantineAttr = "com.apple.quarantine"

// clearQuarantine removes the quarantine attribute recursively from the
// install directory. run may be nil, in which case the command executes
// for real.
func clearQuarantine(ctx context.Context, dir string, run CommandRunner) error {
	if run == nil {
		run = execRunner
	}
	return run(ctx, "xattr", "-r", "-d", quarantineAttr, dir)
}

// execRunner is the real CommandRunner. xattr exits non-zero when the
// attribute is absent on some files; stderr is folded into the error so
// genuine failures stay diagnosable.
func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
