package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Summary renders a one-paragraph human-readable digest of rep, in the
// style of a CLI completion banner.
func Summary(rep SyncReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %d files synced, %d failed, %d skipped, %d conflicts",
		strings.ToUpper(string(rep.Status)), rep.FilesSynced, rep.FilesFailed, rep.FilesSkipped, rep.Conflicts)

	fmt.Fprintf(&b, " (%s transferred in %s, avg %s/s)",
		humanize.Bytes(uint64(rep.TransferredBytes)),
		rep.Duration.Round(1_000_000), // round to millisecond precision
		humanize.Bytes(uint64(rep.AvgBytesPerSec)))

	if rep.EncryptedFiles > 0 {
		fmt.Fprintf(&b, ", %d encrypted", rep.EncryptedFiles)
	}

	if rep.VerifiedFiles > 0 {
		fmt.Fprintf(&b, ", %d verified (%d failed)", rep.VerifiedFiles, rep.VerificationFailed)
	}

	return b.String()
}

// FormatErrors renders rep's flattened error list, one line per entry,
// capped at limit lines with a trailing "... and N more" marker.
func FormatErrors(rep SyncReport, limit int) string {
	if len(rep.Errors) == 0 {
		return ""
	}

	var b strings.Builder

	n := len(rep.Errors)
	if limit <= 0 || limit > n {
		limit = n
	}

	for _, e := range rep.Errors[:limit] {
		fmt.Fprintf(&b, "%s [%s]: %s\n", e.Path, e.Code, e.Msg)
	}

	if n > limit {
		fmt.Fprintf(&b, "... and %d more\n", n-limit)
	}

	return b.String()
}
