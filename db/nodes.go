package db

import (
	"database/sql"

	"github.com/deemkeen/mammut/domain"
)

// Remote node queries
const (
	sqlInsertNode = `INSERT INTO remote_nodes(id, url, username, password, token, active, created_at)
	                 VALUES (?, ?, ?, ?, ?, ?, ?)
	                 ON CONFLICT(url) DO UPDATE SET username = excluded.username, password = excluded.password, token = excluded.token, active = 1`
	sqlSelectNode           = `SELECT id, url, username, password, token, active, created_at FROM remote_nodes`
	sqlSelectNodeByURL      = sqlSelectNode + ` WHERE url = ?`
	sqlSelectNodeByUsername = sqlSelectNode + ` WHERE username = ? AND active = 1`
	sqlSelectActiveNodes    = sqlSelectNode + ` WHERE active = 1 ORDER BY created_at ASC`
	sqlSelectAllNodes       = sqlSelectNode + ` ORDER BY created_at ASC`
	sqlUpdateNodeToken      = `UPDATE remote_nodes SET token = ? WHERE url = ?`
	sqlUpdateNodeActive     = `UPDATE remote_nodes SET active = ? WHERE url = ?`
)

// UpsertRemoteNode inserts or refreshes a peer keyed by URL, reporting
// whether the record is new.
func (db *DB) UpsertRemoteNode(node *domain.RemoteNode) (error, bool) {
	err, existing := db.ReadNodeByURL(node.URL)
	if err != nil && err != domain.ErrNotFound {
		return err, false
	}
	created := existing == nil
	if existing != nil {
		node.Id = existing.Id
	}
	werr := db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertNode,
			node.Id.String(),
			node.URL,
			node.Username,
			node.Password,
			node.Token,
			node.Active,
			node.CreatedAt,
		)
		return err
	})
	if werr != nil {
		return werr, false
	}
	return nil, created
}

func (db *DB) scanNode(row *sql.Row) (error, *domain.RemoteNode) {
	var node domain.RemoteNode
	var idStr string
	err := row.Scan(&idStr, &node.URL, &node.Username, &node.Password, &node.Token, &node.Active, &node.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	node.Id = parseUUID(idStr)
	return nil, &node
}

func (db *DB) ReadNodeByURL(url string) (error, *domain.RemoteNode) {
	return db.scanNode(db.db.QueryRow(sqlSelectNodeByURL, url))
}

// ReadNodeByUsername finds the active peer owning the given Basic-auth
// username, for inbound verification.
func (db *DB) ReadNodeByUsername(username string) (error, *domain.RemoteNode) {
	return db.scanNode(db.db.QueryRow(sqlSelectNodeByUsername, username))
}

func (db *DB) ReadActiveNodes() (error, *[]domain.RemoteNode) {
	return db.queryNodes(sqlSelectActiveNodes)
}

func (db *DB) ReadAllNodes() (error, *[]domain.RemoteNode) {
	return db.queryNodes(sqlSelectAllNodes)
}

func (db *DB) UpdateNodeToken(url, token string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdateNodeToken, token, url)
		return err
	})
}

func (db *DB) SetNodeActive(url string, active bool) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdateNodeActive, active, url)
		return err
	})
}

func (db *DB) queryNodes(query string, args ...any) (error, *[]domain.RemoteNode) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var nodes []domain.RemoteNode
	for rows.Next() {
		var node domain.RemoteNode
		var idStr string
		if err := rows.Scan(&idStr, &node.URL, &node.Username, &node.Password, &node.Token, &node.Active, &node.CreatedAt); err != nil {
			return err, &nodes
		}
		node.Id = parseUUID(idStr)
		nodes = append(nodes, node)
	}
	if err = rows.Err(); err != nil {
		return err, &nodes
	}
	return nil, &nodes
}
