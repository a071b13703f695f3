// Package storage persists the header chain and wallet records to a
// local sqlite3 database, so a restart resumes from the last accepted
// header instead of re-downloading the chain from genesis.
package storage

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/nyxchain/spvnode/node"
	"github.com/nyxchain/spvnode/wire"
)

// Store wraps a sqlite3 connection holding this node's persisted
// headers and wallets.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite3 database at path and
// ensures its tables exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite3 database")
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	if err := s.createHeadersTable(); err != nil {
		return err
	}
	return s.createWalletsTable()
}

func (s *Store) createHeadersTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS headers (
			height INTEGER PRIMARY KEY,
			hash   TEXT NOT NULL,
			raw    BLOB NOT NULL
		);
	`)
	return err
}

func (s *Store) createWalletsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS wallets (
			name     TEXT PRIMARY KEY,
			pubkey   TEXT NOT NULL,
			privkey  TEXT NOT NULL
		);
	`)
	return err
}

// StoreHeaders appends a page of headers starting at startHeight,
// within a single transaction so a crash mid-page leaves no partial
// page committed.
func (s *Store) StoreHeaders(startHeight int, headers []*wire.BlockHeader) error {
	if len(headers) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning headers transaction")
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO headers (height, hash, raw) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "preparing header insert")
	}
	defer stmt.Close()

	for i, h := range headers {
		hash := h.Hash()
		if _, err := stmt.Exec(startHeight+i, hash.String(), h.Serialize()); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "storing header at height %d", startHeight+i)
		}
	}

	return tx.Commit()
}

// LoadHeaders returns every persisted header ordered by height,
// reconstructing the chain a NodeState was tracking before restart.
func (s *Store) LoadHeaders() ([]*wire.BlockHeader, error) {
	rows, err := s.db.Query(`SELECT raw FROM headers ORDER BY height ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying headers")
	}
	defer rows.Close()

	var headers []*wire.BlockHeader
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(err, "scanning header row")
		}
		h, err := wire.ParseBlockHeader(raw, false)
		if err != nil {
			return nil, errors.Wrap(err, "parsing stored header")
		}
		headers = append(headers, h)
	}
	return headers, rows.Err()
}

// StoreWallet inserts or replaces a wallet record by name.
func (s *Store) StoreWallet(w *node.Wallet) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO wallets (name, pubkey, privkey) VALUES (?, ?, ?)`,
		w.Name, w.PubKey, w.PrivKey,
	)
	return errors.Wrap(err, "storing wallet")
}

// LoadWallets returns every persisted wallet record.
func (s *Store) LoadWallets() ([]*node.Wallet, error) {
	rows, err := s.db.Query(`SELECT name, pubkey, privkey FROM wallets`)
	if err != nil {
		return nil, errors.Wrap(err, "querying wallets")
	}
	defer rows.Close()

	var wallets []*node.Wallet
	for rows.Next() {
		var name, pubkey, privkey string
		if err := rows.Scan(&name, &pubkey, &privkey); err != nil {
			return nil, errors.Wrap(err, "scanning wallet row")
		}
		wallets = append(wallets, node.NewWallet(name, pubkey, privkey))
	}
	return wallets, rows.Err()
}
