package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testBuilder = MetadataBuilderFunc(func(records []Record) Metadata {
	return Metadata{
		"source":       "test",
		"record_count": len(records),
	}
})

// makeRecords builds n records padded to roughly padding bytes each so tests
// can steer the serialized size independently of the record count.
func makeRecords(n, padding int) []Record {
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, Record{
			"year":  1958 + i/12,
			"month": i%12 + 1,
			"value": 300.0 + float64(i)*0.1,
			"pad":   strings.Repeat("x", padding),
		})
	}
	return records
}

func cachePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "co2.json")
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}

func emergencySnapshots(t *testing.T, path string) []string {
	t.Helper()
	matches, err := filepath.Glob(path + emergencySuffix + "*")
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	return matches
}

func TestSaveBootstrap(t *testing.T) {
	path := cachePath(t)
	w := NewWriter(DefaultSafetyConfig())

	if !w.Save(path, makeRecords(10, 20), testBuilder) {
		t.Fatal("first save with no prior file should succeed unconditionally")
	}

	doc, err := w.Load(path)
	if err != nil {
		t.Fatalf("failed to load saved document: %v", err)
	}
	if len(doc.Records) != 10 {
		t.Errorf("expected 10 records, got %d", len(doc.Records))
	}
	if doc.Metadata["record_count"] != float64(10) {
		t.Errorf("expected record_count 10 in metadata, got %v", doc.Metadata["record_count"])
	}

	// No prior document existed, so no backup generation may appear.
	if _, err := os.Stat(path + backupSuffix); !os.IsNotExist(err) {
		t.Error("bootstrap save must not create a backup file")
	}
	if _, err := os.Stat(path + tempSuffix); !os.IsNotExist(err) {
		t.Error("temp file must not survive a completed save")
	}
}

func TestSaveEmptyRecords(t *testing.T) {
	path := cachePath(t)
	w := NewWriter(DefaultSafetyConfig())

	if w.Save(path, nil, testBuilder) {
		t.Fatal("save with zero records must fail")
	}

	// Zero side effects: nothing at all in the directory.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files after empty-input save, found %d", len(entries))
	}
}

func TestSaveIdempotentResave(t *testing.T) {
	path := cachePath(t)
	w := NewWriter(DefaultSafetyConfig())

	records := makeRecords(50, 20)
	if !w.Save(path, records, testBuilder) {
		t.Fatal("initial save failed")
	}
	if !w.Save(path, records, testBuilder) {
		t.Fatal("re-saving identical records must never be rejected")
	}
	if len(emergencySnapshots(t, path)) != 0 {
		t.Error("identical re-save must not produce emergency snapshots")
	}
}

func TestSaveShrinkageRejected(t *testing.T) {
	path := cachePath(t)
	w := NewWriter(DefaultSafetyConfig())

	if !w.Save(path, makeRecords(50, 200), testBuilder) {
		t.Fatal("initial save failed")
	}
	before := mustRead(t, path)

	// Same record count, drastically smaller serialization.
	if w.Save(path, makeRecords(50, 1), testBuilder) {
		t.Fatal("save shrinking bytes by more than 10% must be rejected")
	}

	if string(mustRead(t, path)) != string(before) {
		t.Error("rejected save must leave the existing document byte-identical")
	}
	if snaps := emergencySnapshots(t, path); len(snaps) != 1 {
		t.Errorf("expected exactly one emergency snapshot, got %d", len(snaps))
	} else if string(mustRead(t, snaps[0])) != string(before) {
		t.Error("emergency snapshot must be a byte-identical copy of the existing document")
	}
	if _, err := os.Stat(path + tempSuffix); !os.IsNotExist(err) {
		t.Error("temp file must be removed after a rejected save")
	}
}

func TestSaveRecordLossBoundary(t *testing.T) {
	const existing = 100

	cases := []struct {
		name     string
		count    int
		accepted bool
	}{
		{"loss of exactly 5 accepted", existing - 5, true},
		{"loss of 6 rejected", existing - 6, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := cachePath(t)
			w := NewWriter(DefaultSafetyConfig())

			if !w.Save(path, makeRecords(existing, 20), testBuilder) {
				t.Fatal("initial save failed")
			}

			// Padding keeps the byte-size ratio above 0.9 so only the
			// record-loss check is in play.
			got := w.Save(path, makeRecords(tc.count, 20), testBuilder)
			if got != tc.accepted {
				t.Fatalf("save with %d of %d records: got %v, want %v",
					tc.count, existing, got, tc.accepted)
			}
		})
	}
}

func TestSaveBothThresholdsReported(t *testing.T) {
	w := NewWriter(DefaultSafetyConfig())

	// Candidate is both far smaller and missing many records.
	reasons := w.dangerReasons(90000, 800, 500, 3)
	if len(reasons) != 2 {
		t.Fatalf("expected both threshold violations reported, got %d: %v", len(reasons), reasons)
	}
}

func TestSaveBackupRotation(t *testing.T) {
	path := cachePath(t)
	w := NewWriter(DefaultSafetyConfig())

	builderFor := func(tag string) MetadataBuilder {
		return MetadataBuilderFunc(func(records []Record) Metadata {
			return Metadata{"generation": tag, "record_count": len(records)}
		})
	}

	if !w.Save(path, makeRecords(50, 20), builderFor("A")) {
		t.Fatal("save A failed")
	}
	if !w.Save(path, makeRecords(52, 20), builderFor("B")) {
		t.Fatal("save B failed")
	}
	contentB := mustRead(t, path)

	if !w.Save(path, makeRecords(54, 20), builderFor("C")) {
		t.Fatal("save C failed")
	}

	backup := mustRead(t, path+backupSuffix)
	if string(backup) != string(contentB) {
		t.Error("backup must hold exactly the document replaced by the last save")
	}

	doc, err := w.Load(path)
	if err != nil {
		t.Fatalf("failed to load current document: %v", err)
	}
	if doc.Metadata["generation"] != "C" {
		t.Errorf("main path should hold generation C, got %v", doc.Metadata["generation"])
	}
}

func TestSaveAtomicityOnRenameFailure(t *testing.T) {
	path := cachePath(t)
	w := NewWriter(DefaultSafetyConfig())

	if !w.Save(path, makeRecords(50, 20), testBuilder) {
		t.Fatal("initial save failed")
	}
	before := mustRead(t, path)

	w.rename = func(oldpath, newpath string) error {
		return errors.New("injected rename failure")
	}

	if w.Save(path, makeRecords(52, 20), testBuilder) {
		t.Fatal("save must report failure when the final swap fails")
	}
	if string(mustRead(t, path)) != string(before) {
		t.Error("interrupted save must leave the original document byte-identical")
	}
	if _, err := os.Stat(path + tempSuffix); !os.IsNotExist(err) {
		t.Error("temp file must be cleaned up after a failed swap")
	}
}

func TestSaveStagingFailureKeepsCurrentGeneration(t *testing.T) {
	path := cachePath(t)
	w := NewWriter(DefaultSafetyConfig())

	// Two accepted generations: the backup now holds the older one.
	if !w.Save(path, makeRecords(50, 20), testBuilder) {
		t.Fatal("save of first generation failed")
	}
	if !w.Save(path, makeRecords(52, 20), testBuilder) {
		t.Fatal("save of second generation failed")
	}
	backupBefore := mustRead(t, path+backupSuffix)
	current := mustRead(t, path)

	// Make staging the candidate fail while path is still untouched.
	if err := os.Mkdir(path+tempSuffix, 0755); err != nil {
		t.Fatalf("failed to block temp path: %v", err)
	}

	if w.Save(path, makeRecords(54, 20), testBuilder) {
		t.Fatal("save must fail when the temp file cannot be written")
	}

	// path must hold the current generation, not the backup's older one.
	if string(mustRead(t, path)) != string(current) {
		t.Error("failed staging must leave the current document byte-identical, not roll back to the backup")
	}
	if string(mustRead(t, path+backupSuffix)) != string(backupBefore) {
		t.Error("failed staging must not touch the backup generation")
	}
}

func TestSaveUnreadablePrior(t *testing.T) {
	t.Run("shrinkage check still applies by byte size", func(t *testing.T) {
		path := cachePath(t)
		w := NewWriter(DefaultSafetyConfig())

		// A large prior file that is not a valid document.
		garbage := strings.Repeat("not json ", 10000)
		if err := os.WriteFile(path, []byte(garbage), 0644); err != nil {
			t.Fatalf("failed to seed garbage file: %v", err)
		}

		if w.Save(path, makeRecords(3, 1), testBuilder) {
			t.Fatal("tiny candidate must still trip the shrinkage check against an unreadable prior file")
		}
	})

	t.Run("record loss is vacuous against an unreadable prior", func(t *testing.T) {
		path := cachePath(t)
		w := NewWriter(DefaultSafetyConfig())

		// A small unparseable prior file: candidate is larger, so the size
		// check passes, and an unknown prior count cannot trigger loss.
		if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
			t.Fatalf("failed to seed garbage file: %v", err)
		}

		if !w.Save(path, makeRecords(10, 20), testBuilder) {
			t.Fatal("save over a small unreadable prior file should succeed")
		}
	})
}

func TestSaveEmergencySnapshotsAccumulate(t *testing.T) {
	path := cachePath(t)
	w := NewWriter(DefaultSafetyConfig())

	// Freeze the clock so both blocked attempts contend for the same name.
	fixed := time.Date(2026, 2, 11, 10, 30, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	if !w.Save(path, makeRecords(50, 200), testBuilder) {
		t.Fatal("initial save failed")
	}

	for i := 0; i < 2; i++ {
		if w.Save(path, makeRecords(50, 1), testBuilder) {
			t.Fatal("dangerous save should be rejected")
		}
	}

	if snaps := emergencySnapshots(t, path); len(snaps) != 2 {
		t.Errorf("each blocked attempt must leave its own snapshot, got %d", len(snaps))
	}
}

func TestSaveEndToEndScenario(t *testing.T) {
	path := cachePath(t)
	w := NewWriter(DefaultSafetyConfig())

	// Prior cache: a healthy full fetch.
	if !w.Save(path, makeRecords(800, 90), testBuilder) {
		t.Fatal("initial save of 800 records failed")
	}
	content800 := mustRead(t, path)

	// A slightly larger fetch is accepted; the 800-record document rotates
	// into the backup slot.
	if !w.Save(path, makeRecords(805, 90), testBuilder) {
		t.Fatal("save of 805 records should be accepted")
	}
	content805 := mustRead(t, path)
	if string(mustRead(t, path+backupSuffix)) != string(content800) {
		t.Error("backup should hold the 800-record document")
	}

	// A faulty fetch returning almost nothing is blocked.
	if w.Save(path, makeRecords(3, 1), testBuilder) {
		t.Fatal("save of 3 records should be rejected")
	}
	if string(mustRead(t, path)) != string(content805) {
		t.Error("main path must still hold the 805-record document")
	}
	if len(emergencySnapshots(t, path)) != 1 {
		t.Error("blocked save should leave one emergency snapshot")
	}
}

func TestLoadMissingFile(t *testing.T) {
	w := NewWriter(DefaultSafetyConfig())

	_, err := w.Load(filepath.Join(t.TempDir(), "absent.json"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}

func TestSafetyConfigTunable(t *testing.T) {
	path := cachePath(t)

	// A writer tuned for a small dataset family tolerates no record loss.
	w := NewWriter(SafetyConfig{MinSizeRatio: 0.9, MaxRecordLoss: 0})

	if !w.Save(path, makeRecords(20, 50), testBuilder) {
		t.Fatal("initial save failed")
	}
	if w.Save(path, makeRecords(19, 50), testBuilder) {
		t.Fatal("loss of one record must be rejected when MaxRecordLoss is 0")
	}
	if !w.Save(path, makeRecords(20, 50), testBuilder) {
		t.Fatal("equal record count must still be accepted")
	}
}

func TestWriterExample(t *testing.T) {
	// Sanity check that the documented file layout holds after a mixed
	// sequence of saves.
	path := cachePath(t)
	w := NewWriter(DefaultSafetyConfig())

	if !w.Save(path, makeRecords(30, 40), testBuilder) {
		t.Fatal("save failed")
	}
	if !w.Save(path, makeRecords(31, 40), testBuilder) {
		t.Fatal("save failed")
	}
	if w.Save(path, makeRecords(2, 1), testBuilder) {
		t.Fatal("dangerous save unexpectedly accepted")
	}

	for _, want := range []string{
		path,
		path + backupSuffix,
	} {
		if _, err := os.Stat(want); err != nil {
			t.Errorf("expected %s to exist: %v", want, err)
		}
	}
	if n := len(emergencySnapshots(t, path)); n != 1 {
		t.Errorf("expected 1 emergency snapshot, got %d", n)
	}
	if _, err := os.Stat(path + tempSuffix); !os.IsNotExist(err) {
		t.Error("no temp file may exist between calls")
	}
}
