package scorestore

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// fileStore is the local fallback used when no database is configured. It
// stores the top-10 table as a plain text file, three lines per entry
// (name, score, checksum), mirroring the original's local score file
// exactly so the format is debuggable by hand.
type fileStore struct {
	mu   sync.Mutex
	path string
}

func newFileStore(path string) (*fileStore, error) {
	fs := &fileStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := fs.save(nil); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func (fs *fileStore) RetrieveTop10() ([]Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.load()
}

func (fs *fileStore) Submit(name string, score uint64) (bool, int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	table, err := fs.load()
	if err != nil {
		return false, -1, err
	}
	accepted, rank, next := rankInsert(table, name, score)
	if !accepted {
		return false, -1, nil
	}
	if err := fs.save(next); err != nil {
		return false, -1, err
	}
	return true, rank, nil
}

// load reads the three-lines-per-entry file, discarding any entry whose
// checksum doesn't match (treated as corruption, not a fatal error).
func (fs *fileStore) load() ([]Entry, error) {
	f, err := os.Open(fs.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	var table []Entry
	for i := 0; i+2 < len(lines); i += 3 {
		name := lines[i]
		score, err := strconv.ParseUint(strings.TrimSpace(lines[i+1]), 10, 64)
		if err != nil {
			continue
		}
		wantChecksum, err := strconv.Atoi(strings.TrimSpace(lines[i+2]))
		if err != nil {
			continue
		}
		if Checksum(name, score) != wantChecksum {
			continue
		}
		if name == SentinelEntry.Name && score == SentinelEntry.Score {
			continue
		}
		table = append(table, Entry{Name: name, Score: score})
	}
	return table, nil
}

// save rewrites the file from scratch with exactly TableSize rows (30
// lines), padding past len(table) with SentinelEntry so the file always has
// its full, fixed shape regardless of how many real scores exist yet.
func (fs *fileStore) save(table []Entry) error {
	if len(table) > TableSize {
		table = table[:TableSize]
	}
	f, err := os.Create(fs.path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := 0; i < TableSize; i++ {
		e := SentinelEntry
		if i < len(table) {
			e = table[i]
		}
		fmt.Fprintln(w, e.Name)
		fmt.Fprintln(w, e.Score)
		fmt.Fprintln(w, Checksum(e.Name, e.Score))
	}
	return w.Flush()
}
