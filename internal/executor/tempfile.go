package executor

import (
	"fmt"
	"os"
)

// scopedTempFile creates a randomized temp file in dir (empty dir uses the
// OS default) and returns it along with a cleanup func that unlinks it on
// all exit paths, ported from the teacher's executeDownload .partial-file
// pattern (executor.go) generalized to any transfer direction.
func scopedTempFile(dir, pattern string) (*os.File, func(), error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("executor: create temp file: %w", err)
	}

	cleanup := func() {
		f.Close()
		os.Remove(f.Name())
	}

	return f, cleanup, nil
}
