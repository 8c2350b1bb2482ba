package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

const (
	backupSuffix    = ".backup"
	tempSuffix      = ".tmp"
	emergencySuffix = ".emergency_"

	emergencyTimeFormat = "20060102_150405"
)

// SafetyConfig controls when a save is considered dangerous relative to the
// cache document already on disk.
type SafetyConfig struct {
	// MinSizeRatio is the smallest allowed candidate/existing byte-size
	// ratio. A candidate below it is rejected.
	MinSizeRatio float64

	// MaxRecordLoss is the largest allowed drop in record count. A candidate
	// losing more than this many records is rejected.
	MaxRecordLoss int
}

// DefaultSafetyConfig returns the thresholds used for all dataset families
// unless overridden: reject saves that shrink the file by more than 10% or
// drop more than 5 records.
func DefaultSafetyConfig() SafetyConfig {
	return SafetyConfig{
		MinSizeRatio:  0.9,
		MaxRecordLoss: 5,
	}
}

// Writer persists dataset cache documents with a guarded, atomic save
// protocol. A candidate document is staged to a temp file beside the target,
// checked against the existing document, and only then swapped into place in
// a single rename. The replaced document is kept at <path>.backup; blocked
// dangerous saves leave the existing file untouched and preserve a
// timestamped emergency snapshot of it.
//
// A Writer assumes it is the only writer for a given path during a call.
type Writer struct {
	safety SafetyConfig

	// Seams for tests; default to time.Now and os.Rename.
	now    func() time.Time
	rename func(oldpath, newpath string) error
}

// NewWriter creates a Writer with the given safety thresholds.
func NewWriter(safety SafetyConfig) *Writer {
	return &Writer{
		safety: safety,
		now:    time.Now,
		rename: os.Rename,
	}
}

// Save persists records (with freshly built metadata) to path if the update
// is judged safe. It returns true only when the new document is in place.
//
// All failures are handled locally and logged; the boolean result is the only
// signal to the caller. On failure path is left exactly as it was, except
// that a blocked dangerous save also leaves an emergency snapshot beside it.
func (w *Writer) Save(path string, records []Record, builder MetadataBuilder) bool {
	if len(records) == 0 {
		log.Printf("WARN: refusing to save %s: no records supplied (empty fetch?)", path)
		return false
	}

	doc := Document{
		Metadata: builder.Build(records),
		Records:  records,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Printf("ERROR: failed to serialize cache document for %s: %v", path, err)
		return false
	}

	existingSize, existingCount, existed := inspectExisting(path)

	// Failures from here up to the final rename leave path untouched, so
	// cleanup is limited to the temp file. Restoring from backup before the
	// swap would roll path back a generation.
	tmpPath := path + tempSuffix
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		log.Printf("ERROR: save failed for %s: staging candidate: %v", path, err)
		removeTemp(tmpPath)
		return false
	}

	candidateSize := int64(len(data))
	candidateCount := len(records)

	// The safety checks only apply when there is a prior document of
	// non-zero size to compare against.
	if existed && existingSize > 0 {
		reasons := w.dangerReasons(existingSize, existingCount, candidateSize, candidateCount)
		if len(reasons) > 0 {
			for _, r := range reasons {
				log.Printf("WARN: dangerous save blocked for %s: %s", path, r)
			}
			w.snapshotExisting(path)
			removeTemp(tmpPath)
			return false
		}
	}

	if existed {
		if err := copyFile(path, path+backupSuffix); err != nil {
			log.Printf("ERROR: save failed for %s: backing up existing cache: %v", path, err)
			removeTemp(tmpPath)
			return false
		}
	}

	if err := w.rename(tmpPath, path); err != nil {
		w.restore(path, tmpPath, fmt.Errorf("swapping in new cache: %w", err))
		return false
	}

	log.Printf("INFO: saved %s: %d records, %d bytes", path, candidateCount, candidateSize)
	return true
}

// Load reads and parses the cache document at path.
func (w *Writer) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing cache document %s: %w", path, err)
	}
	return &doc, nil
}

// dangerReasons returns one human-readable reason per tripped threshold.
// Both thresholds are evaluated so the caller learns about every violation.
func (w *Writer) dangerReasons(existingSize int64, existingCount int, candidateSize int64, candidateCount int) []string {
	var reasons []string

	ratio := float64(candidateSize) / float64(existingSize)
	if ratio < w.safety.MinSizeRatio {
		reasons = append(reasons, fmt.Sprintf(
			"candidate is %.1f%% of existing size (%d -> %d bytes, minimum ratio %.2f)",
			ratio*100, existingSize, candidateSize, w.safety.MinSizeRatio))
	}

	if loss := existingCount - candidateCount; loss > w.safety.MaxRecordLoss {
		reasons = append(reasons, fmt.Sprintf(
			"%d records would be lost (%d -> %d, maximum loss %d)",
			loss, existingCount, candidateCount, w.safety.MaxRecordLoss))
	}

	return reasons
}

// snapshotExisting copies the current document to a uniquely named emergency
// file so repeated blocked attempts never overwrite each other's evidence.
func (w *Writer) snapshotExisting(path string) {
	snapPath := path + emergencySuffix + w.now().UTC().Format(emergencyTimeFormat)
	for i := 1; ; i++ {
		if _, err := os.Stat(snapPath); os.IsNotExist(err) {
			break
		}
		snapPath = fmt.Sprintf("%s%s%s_%d", path, emergencySuffix, w.now().UTC().Format(emergencyTimeFormat), i)
	}
	if err := copyFile(path, snapPath); err != nil {
		log.Printf("ERROR: failed to write emergency snapshot %s: %v", snapPath, err)
		return
	}
	log.Printf("INFO: existing cache preserved at %s", snapPath)
}

// restore cleans up after a failed final swap. Only at that stage may path
// be in doubt, and only there does the backup hold the document that was
// current when the call began. The restore is staged through a temp copy and
// rename so a failing restore can never leave path truncated.
func (w *Writer) restore(path, tmpPath string, cause error) {
	log.Printf("ERROR: save failed for %s: %v", path, cause)

	removeTemp(tmpPath)

	backupPath := path + backupSuffix
	if _, err := os.Stat(backupPath); err != nil {
		return
	}
	if err := copyFile(backupPath, tmpPath); err != nil {
		log.Printf("ERROR: failed to stage backup restore for %s: %v", path, err)
		removeTemp(tmpPath)
		return
	}
	if err := w.rename(tmpPath, path); err != nil {
		log.Printf("ERROR: failed to restore %s from backup: %v", path, err)
		removeTemp(tmpPath)
		return
	}
	log.Printf("INFO: restored %s from backup", path)
}

func removeTemp(tmpPath string) {
	if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN: failed to remove temp file %s: %v", tmpPath, err)
	}
}

// inspectExisting reports the byte size and record count of the document
// currently at path. A file that exists but cannot be parsed is tolerated:
// its record count is treated as unknown (zero) while its byte size still
// participates in the shrinkage check. Prior-file corruption must not turn a
// protective save into a fatal error.
func inspectExisting(path string) (size int64, count int, existed bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, false
	}
	size = info.Size()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("WARN: existing cache %s is unreadable (%v); treating prior record count as unknown", path, err)
		return size, 0, true
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("WARN: existing cache %s is not a valid document (%v); treating prior record count as unknown", path, err)
		return size, 0, true
	}
	return size, len(doc.Records), true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
