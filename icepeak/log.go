package icepeak

import (
	"github.com/golang/glog"
)

// Logging convention in this package, a three-tier split backed by
// glog verbosity levels:
//
// Info (glog.Infof):
//     essential events for abnormal behavior. Silent on normal
//     operation, with the exception of one-time initialization data
//     useful for monitoring. Includes: snapshot/journal recovery
//     summaries, sync completion, subscriber connect/disconnect.
// Error (glog.Errorf):
//     unrecoverable or durability-threatening failures. Includes:
//     ErrSnapshotRead, ErrJournalOpen (fatal at startup),
//     ErrJournalWrite, ErrSnapshotWrite (retried, but always logged).
// Debug (glog.V(debugVerbosity).Infof):
//     key events for trace debugging and statistics. Includes:
//     per-modification journal/apply timing, per-broadcast fan-out
//     counts. Frequent events are expected here, not at Info.

const debugVerbosity glog.Level = 2

func logDebugf(format string, args ...any) {
	if glog.V(debugVerbosity) {
		glog.Infof(format, args...)
	}
}
