package scorestore

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// dbStore persists the high score table in a Postgres `scores` table
// (player text, score bigint), the schema the original's SQLConnection.h
// queried over ODBC. Connection pooling and retries are left to
// database/sql's own defaults; this store only shapes the ranking query.
type dbStore struct {
	db *sql.DB
}

func newDBStore(dsn string) (*dbStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS scores (
			id    SERIAL PRIMARY KEY,
			player TEXT NOT NULL,
			score  BIGINT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, err
	}
	return &dbStore{db: db}, nil
}

func (s *dbStore) RetrieveTop10() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT player, score FROM scores ORDER BY score DESC LIMIT $1`, TableSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var table []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Score); err != nil {
			return nil, err
		}
		table = append(table, e)
	}
	return table, rows.Err()
}

// Submit replaces the lowest-ranked entry when score beats it (or the table
// isn't full yet), matching the original's submitScore behavior.
func (s *dbStore) Submit(name string, score uint64) (bool, int, error) {
	table, err := s.RetrieveTop10()
	if err != nil {
		return false, -1, err
	}
	accepted, rank, _ := rankInsert(table, name, score)
	if !accepted {
		return false, -1, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, -1, err
	}
	defer tx.Rollback()

	if len(table) >= TableSize {
		lowest := table[len(table)-1]
		if _, err := tx.Exec(`DELETE FROM scores WHERE player = $1 AND score = $2`, lowest.Name, lowest.Score); err != nil {
			return false, -1, err
		}
	}
	if _, err := tx.Exec(`INSERT INTO scores (player, score) VALUES ($1, $2)`, name, score); err != nil {
		return false, -1, err
	}
	if err := tx.Commit(); err != nil {
		return false, -1, err
	}
	return true, rank, nil
}
