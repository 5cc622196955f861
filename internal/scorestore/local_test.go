package scorestore

import (
	"path/filepath"
	"testing"
)

func TestChecksumDeterministic(t *testing.T) {
	c1 := Checksum("Tom", 123456)
	c2 := Checksum("Tom", 123456)
	if c1 != c2 {
		t.Fatalf("checksum not deterministic: %d vs %d", c1, c2)
	}
	if Checksum("Ada", 1) == Checksum("Tom", 1) {
		t.Errorf("expected different names to (almost always) produce different checksums")
	}
}

func TestFileStoreSubmitAndRetrieve(t *testing.T) {
	dir := t.TempDir()
	fs, err := newFileStore(filepath.Join(dir, "scores.dat"))
	if err != nil {
		t.Fatalf("newFileStore: %v", err)
	}

	for i, name := range []string{"A", "B", "C"} {
		accepted, _, err := fs.Submit(name, uint64(100*(i+1)))
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if !accepted {
			t.Fatalf("expected %s to be accepted into a non-full table", name)
		}
	}

	table, err := fs.RetrieveTop10()
	if err != nil {
		t.Fatalf("RetrieveTop10: %v", err)
	}
	if len(table) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(table))
	}
	if table[0].Name != "C" || table[0].Score != 300 {
		t.Errorf("expected highest score first, got %+v", table[0])
	}
}

func TestFileStoreRejectsLowerScoreOnFullTable(t *testing.T) {
	dir := t.TempDir()
	fs, err := newFileStore(filepath.Join(dir, "scores.dat"))
	if err != nil {
		t.Fatalf("newFileStore: %v", err)
	}
	for i := 0; i < TableSize; i++ {
		if _, _, err := fs.Submit("P", uint64(1000+i)); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	accepted, _, err := fs.Submit("Low", 1)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if accepted {
		t.Errorf("expected a score below the current lowest to be rejected")
	}

	accepted, _, err = fs.Submit("High", 999999)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !accepted {
		t.Errorf("expected a score above the current lowest to be accepted")
	}
}
