package icepeak

import (
	"github.com/pkg/errors"
)

// error kinds, not types: callers compare with errors.Is against these
// sentinels and get a stack trace from errors.Wrap at the point a kind
// is first attached.
var (
	// ErrSnapshotRead: missing, unreadable, or undecodable snapshot.
	// fatal at startup.
	ErrSnapshotRead = errors.New("snapshot read error")

	// ErrJournalOpen: cannot open the journal file for read+write.
	// fatal at startup.
	ErrJournalOpen = errors.New("journal open error")

	// ErrJournalWrite: write/flush failure during runtime. the
	// modification is not applied to memory; the caller sees this error.
	ErrJournalWrite = errors.New("journal write error")

	// ErrSnapshotWrite: temp-file write or rename failure during sync.
	// Sync re-sets dirty before returning it, so the next tick retries.
	ErrSnapshotWrite = errors.New("snapshot write error")

	// ErrClientInput: malformed JSON body or invalid path. no state change.
	ErrClientInput = errors.New("client input error")

	// ErrAuth: bearer token missing, invalid, or not covering the
	// requested path prefix.
	ErrAuth = errors.New("auth error")
)

// journalParseError is logged and skipped during recovery; it never
// aborts Load, so it is not one of the sentinels above.
type journalParseError struct {
	line int
	err  error
}

func (self *journalParseError) Error() string {
	return errors.Wrapf(self.err, "journal line %d", self.line).Error()
}

func (self *journalParseError) Unwrap() error {
	return self.err
}
