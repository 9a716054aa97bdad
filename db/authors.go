package db

import (
	"database/sql"

	"github.com/deemkeen/mammut/domain"
	"github.com/google/uuid"
)

// Author queries
const (
	sqlInsertAuthor = `INSERT INTO authors(id, fqid, host, username, display_name, github, profile_image, page, api_token, created_at)
	                   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sqlSelectAuthor           = `SELECT id, fqid, host, username, display_name, github, profile_image, page, api_token, created_at FROM authors`
	sqlSelectAuthorByFqid     = sqlSelectAuthor + ` WHERE fqid = ?`
	sqlSelectAuthorById       = sqlSelectAuthor + ` WHERE id = ?`
	sqlSelectAuthorByUsername = sqlSelectAuthor + ` WHERE username = ?`
	sqlSelectAuthorByToken    = sqlSelectAuthor + ` WHERE api_token = ?`
	sqlSelectAllAuthors       = sqlSelectAuthor + ` ORDER BY created_at ASC LIMIT ? OFFSET ?`
	sqlUpdateAuthorProfile    = `UPDATE authors SET display_name = ?, github = ?, profile_image = ? WHERE id = ?`
)

func (db *DB) CreateAuthor(author *domain.Author) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		return insertAuthor(tx, author)
	})
}

func insertAuthor(tx *sql.Tx, author *domain.Author) error {
	_, err := tx.Exec(sqlInsertAuthor,
		author.Id.String(),
		author.Fqid,
		author.Host,
		author.Username,
		author.DisplayName,
		author.Github,
		author.ProfileImage,
		author.Page,
		author.ApiToken,
		author.CreatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

func (db *DB) scanAuthor(row *sql.Row) (error, *domain.Author) {
	var author domain.Author
	var idStr string
	err := row.Scan(
		&idStr,
		&author.Fqid,
		&author.Host,
		&author.Username,
		&author.DisplayName,
		&author.Github,
		&author.ProfileImage,
		&author.Page,
		&author.ApiToken,
		&author.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	author.Id = parseUUID(idStr)
	return nil, &author
}

func (db *DB) ReadAuthorByFqid(fqid string) (error, *domain.Author) {
	return db.scanAuthor(db.db.QueryRow(sqlSelectAuthorByFqid, fqid))
}

func (db *DB) ReadAuthorById(id uuid.UUID) (error, *domain.Author) {
	return db.scanAuthor(db.db.QueryRow(sqlSelectAuthorById, id.String()))
}

func (db *DB) ReadAuthorByUsername(username string) (error, *domain.Author) {
	return db.scanAuthor(db.db.QueryRow(sqlSelectAuthorByUsername, username))
}

func (db *DB) ReadAuthorByToken(token string) (error, *domain.Author) {
	return db.scanAuthor(db.db.QueryRow(sqlSelectAuthorByToken, token))
}

func (db *DB) ReadAllAuthors(limit, offset int) (error, *[]domain.Author) {
	rows, err := db.db.Query(sqlSelectAllAuthors, limit, offset)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var authors []domain.Author
	for rows.Next() {
		var author domain.Author
		var idStr string
		if err := rows.Scan(&idStr, &author.Fqid, &author.Host, &author.Username, &author.DisplayName,
			&author.Github, &author.ProfileImage, &author.Page, &author.ApiToken, &author.CreatedAt); err != nil {
			return err, &authors
		}
		author.Id = parseUUID(idStr)
		authors = append(authors, author)
	}
	if err = rows.Err(); err != nil {
		return err, &authors
	}
	return nil, &authors
}

func (db *DB) CountAuthors() (error, int) {
	var count int
	err := db.db.QueryRow(`SELECT COUNT(*) FROM authors`).Scan(&count)
	return err, count
}

func (db *DB) UpdateAuthorProfile(author *domain.Author) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdateAuthorProfile,
			author.DisplayName,
			author.Github,
			author.ProfileImage,
			author.Id.String(),
		)
		return err
	})
}
