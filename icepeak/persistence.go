package icepeak

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Config configures a Persistence instance. A zero-value JournalFile
// disables journaling: the document only persists at the periodic
// snapshot interval, with no crash recovery of writes since the last
// sync.
type Config struct {
	DataFile    string
	JournalFile string

	// JournalBackup, when true, gzip-compresses the journal's bytes to
	// JournalFile+".bak.gz" immediately before each sync truncates it.
	// Off by default; purely an operator forensics aid, not required
	// for correctness.
	JournalBackup bool
}

// Persistence owns the on-disk snapshot and journal and the in-memory
// live value. Exactly one goroutine (the Coordinator) is expected to
// call Apply/Sync; readers call Value concurrently via an atomic
// pointer and never block on the writer.
type Persistence struct {
	config  Config
	metrics *Metrics

	value atomic.Pointer[Value]
	dirty atomic.Bool

	journal       *os.File
	journalWriter *bufio.Writer
	journalBytes  int64
}

// Load reads the snapshot (or starts from null if absent), opens and
// replays the journal, syncs to materialize the recovered state, and
// truncates the journal.
func Load(config Config, metrics *Metrics) (*Persistence, error) {
	p := &Persistence{
		config:  config,
		metrics: metrics,
	}

	initial, err := loadSnapshot(config.DataFile)
	if err != nil {
		return nil, errors.Wrap(ErrSnapshotRead, err.Error())
	}
	p.value.Store(&initial)

	if config.JournalFile != "" {
		journal, err := os.OpenFile(config.JournalFile, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return nil, errors.Wrap(ErrJournalOpen, err.Error())
		}
		p.journal = journal

		mods, failures, err := readJournal(journal)
		if err != nil {
			journal.Close()
			return nil, errors.Wrap(ErrJournalOpen, err.Error())
		}
		if failures > 0 {
			glog.Infof("icepeak: journal replay skipped %d malformed entries", failures)
		}

		current := *p.value.Load()
		for _, mod := range mods {
			current = Apply(current, mod)
		}
		p.value.Store(&current)
		p.dirty.Store(true)

		if _, err := journal.Seek(0, io.SeekStart); err != nil {
			journal.Close()
			return nil, errors.Wrap(ErrJournalOpen, err.Error())
		}
		p.journalWriter = bufio.NewWriter(journal)

		glog.Infof("icepeak: recovered %d journal entries (%d skipped)", len(mods), failures)

		if err := p.Sync(); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func loadSnapshot(dataFile string) (Value, error) {
	data, err := os.ReadFile(dataFile)
	if err != nil {
		if os.IsNotExist(err) {
			// First start with no prior snapshot: begin from null, not
			// an error.
			glog.Infof("icepeak: no snapshot at %s, starting from null", dataFile)
			return nil, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return UnmarshalValue(data)
}

// readJournal streams the journal line-by-line rather than loading it
// whole, decoding each line as a Modification. Malformed lines are
// counted in failures and skipped; they never abort recovery.
func readJournal(journal *os.File) (mods []Modification, failures int, err error) {
	scanner := bufio.NewScanner(journal)
	// snapshots/journal entries can legitimately carry large embedded
	// documents; grow past bufio's default 64KiB token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		mod, decodeErr := UnmarshalJournalLine(raw)
		if decodeErr != nil {
			failures++
			glog.Errorf("icepeak: %s", (&journalParseError{line: line, err: decodeErr}).Error())
			continue
		}
		mods = append(mods, mod)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return mods, failures, scanErr
	}
	return mods, failures, nil
}

// Value returns the current live document. The returned Value must
// not be mutated by the caller: it may be shared with the in-memory
// tree and with concurrent readers.
func (self *Persistence) Value() Value {
	return *self.value.Load()
}

// Apply appends mod to the journal (if enabled) and then applies it to
// the in-memory value. The journal write happens first and must
// succeed before the in-memory state changes: on journal failure, the
// modification is not applied and the caller receives ErrJournalWrite.
func (self *Persistence) Apply(mod Modification) error {
	if self.journalWriter != nil {
		lineBytes, err := MarshalJournalLine(mod)
		if err != nil {
			return errors.Wrap(ErrJournalWrite, err.Error())
		}
		lineBytes = append(lineBytes, '\n')
		if _, err := self.journalWriter.Write(lineBytes); err != nil {
			return errors.Wrap(ErrJournalWrite, err.Error())
		}
		if err := self.journalWriter.Flush(); err != nil {
			return errors.Wrap(ErrJournalWrite, err.Error())
		}
		self.journalBytes += int64(len(lineBytes))
		self.metrics.JournalWrittenBytesTotal.Add(float64(len(lineBytes)))
		self.metrics.JournalBytes.Set(float64(self.journalBytes))
	}

	next := Apply(self.Value(), mod)
	self.value.Store(&next)
	self.dirty.Store(true)
	return nil
}

// Sync atomically snapshots the current value and truncates the
// journal. A crash between the temp-file write and the rename leaves
// the prior snapshot intact; Sync is a no-op when not dirty.
func (self *Persistence) Sync() error {
	if !self.dirty.Load() {
		return nil
	}
	value := self.Value()
	self.dirty.Store(false)

	data, err := MarshalValue(value)
	if err != nil {
		self.dirty.Store(true)
		return errors.Wrap(ErrSnapshotWrite, err.Error())
	}

	tmpPath := self.config.DataFile + ".new"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		self.dirty.Store(true)
		return errors.Wrap(ErrSnapshotWrite, err.Error())
	}
	if err := os.Rename(tmpPath, self.config.DataFile); err != nil {
		self.dirty.Store(true)
		return errors.Wrap(ErrSnapshotWrite, err.Error())
	}

	self.metrics.DataFileBytes.Set(float64(len(data)))
	self.metrics.DataWrittenBytesTotal.Add(float64(len(data)))

	if self.journal != nil {
		if self.config.JournalBackup {
			if err := self.backupJournal(); err != nil {
				glog.Errorf("icepeak: journal backup failed: %v", err)
			}
		}
		if err := self.truncateJournal(); err != nil {
			self.dirty.Store(true)
			return errors.Wrap(ErrSnapshotWrite, err.Error())
		}
	}

	return nil
}

func (self *Persistence) truncateJournal() error {
	if err := self.journal.Truncate(0); err != nil {
		return err
	}
	if _, err := self.journal.Seek(0, io.SeekStart); err != nil {
		return err
	}
	self.journalWriter = bufio.NewWriter(self.journal)
	self.journalBytes = 0
	self.metrics.JournalBytes.Set(0)
	return nil
}

func (self *Persistence) backupJournal() error {
	if _, err := self.journal.Seek(0, io.SeekStart); err != nil {
		return err
	}
	raw, err := io.ReadAll(self.journal)
	if err != nil {
		return err
	}
	if _, err := self.journal.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	backupPath := self.config.JournalFile + ".bak.gz"
	f, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	if _, err := gw.Write(raw); err != nil {
		return err
	}
	return gw.Close()
}

// Close closes the journal handle, as part of a coordinated
// final-sync-then-close shutdown. Apply flushes after every write, so
// no journal bytes are left buffered at this point.
func (self *Persistence) Close() error {
	if self.journal == nil {
		return nil
	}
	return self.journal.Close()
}
