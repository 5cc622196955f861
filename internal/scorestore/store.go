// Package scorestore persists the Blue Tetris high score table, backed by
// either a Postgres database or a local checksummed file, selected by
// whether a database URL is configured.
package scorestore

import "github.com/bluetetris/server/internal/protocol"

// TableSize is the number of ranked entries kept (top 10).
const TableSize = 10

// Entry is one ranked high score.
type Entry = protocol.ScoreEntry

// SentinelEntry marks an unused table row: the original always kept 10
// rows in both the local file and the wire ScoreList, padding past however
// many real entries existed with ("No Entry", 0).
var SentinelEntry = protocol.SentinelEntry

// Store ranks and persists high scores.
type Store interface {
	// RetrieveTop10 returns the current table, highest score first.
	RetrieveTop10() ([]Entry, error)
	// Submit records a new score if it beats the current lowest of the
	// top 10 (or the table isn't full yet), returning whether it was
	// accepted and its resulting rank (0-indexed) when it was.
	Submit(name string, score uint64) (accepted bool, rank int, err error)
}

// NewStore selects a database-backed store when dbURL is non-empty,
// otherwise a local checksummed file store, matching the original's
// silent fallback to local scores when no SQL connection is configured.
func NewStore(dbURL, filePath string) (Store, error) {
	if dbURL != "" {
		return newDBStore(dbURL)
	}
	return newFileStore(filePath)
}

// rankInsert computes where score would land in a descending-sorted table
// and whether it displaces the current last entry. Shared by both backends
// so their replacement policy can't drift apart.
func rankInsert(table []Entry, name string, score uint64) (accepted bool, rank int, next []Entry) {
	if len(table) < TableSize {
		next = insertSorted(table, Entry{Name: name, Score: score})
		return true, indexOf(next, name, score), next
	}
	lowest := table[len(table)-1]
	if score <= lowest.Score {
		return false, -1, table
	}
	trimmed := table[:len(table)-1]
	next = insertSorted(trimmed, Entry{Name: name, Score: score})
	return true, indexOf(next, name, score), next
}

func insertSorted(table []Entry, e Entry) []Entry {
	out := make([]Entry, 0, len(table)+1)
	inserted := false
	for _, existing := range table {
		if !inserted && e.Score > existing.Score {
			out = append(out, e)
			inserted = true
		}
		out = append(out, existing)
	}
	if !inserted {
		out = append(out, e)
	}
	return out
}

func indexOf(table []Entry, name string, score uint64) int {
	for i, e := range table {
		if e.Name == name && e.Score == score {
			return i
		}
	}
	return -1
}
