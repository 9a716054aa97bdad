package db

import (
	"database/sql"

	"github.com/deemkeen/mammut/domain"
	"github.com/google/uuid"
)

// Comment queries
const (
	sqlInsertComment = `INSERT INTO comments(id, fqid, post_id, author_id, comment, content_type, published)
	                    VALUES (?, ?, ?, ?, ?, ?, ?)`
	sqlSelectCommentsByPost = `SELECT id, fqid, post_id, author_id, comment, content_type, published
	                           FROM comments WHERE post_id = ? ORDER BY published DESC, id ASC`
)

// Like queries. UNIQUE(author_id, object) makes re-likes a no-op insert.
const (
	sqlInsertLike = `INSERT INTO likes(id, fqid, author_id, object, published) VALUES (?, ?, ?, ?, ?)
	                 ON CONFLICT(author_id, object) DO NOTHING`
	sqlSelectLike          = `SELECT id, fqid, author_id, object, published FROM likes WHERE author_id = ? AND object = ?`
	sqlCountLikesOfObject  = `SELECT COUNT(*) FROM likes WHERE object = ?`
	sqlSelectLikesOfObject = `SELECT id, fqid, author_id, object, published FROM likes WHERE object = ? ORDER BY published DESC, id ASC`
)

func (db *DB) CreateComment(comment *domain.Comment) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertComment,
			comment.Id.String(),
			comment.Fqid,
			comment.PostId.String(),
			comment.AuthorId.String(),
			comment.Comment,
			comment.ContentType,
			comment.Published,
		)
		if err != nil && isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	})
}

func (db *DB) ReadCommentsByPost(postId uuid.UUID) (error, *[]domain.Comment) {
	rows, err := db.db.Query(sqlSelectCommentsByPost, postId.String())
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		var idStr, postStr, authorStr string
		if err := rows.Scan(&idStr, &comment.Fqid, &postStr, &authorStr,
			&comment.Comment, &comment.ContentType, &comment.Published); err != nil {
			return err, &comments
		}
		comment.Id = parseUUID(idStr)
		comment.PostId = parseUUID(postStr)
		comment.AuthorId = parseUUID(authorStr)
		comments = append(comments, comment)
	}
	if err = rows.Err(); err != nil {
		return err, &comments
	}
	return nil, &comments
}

// GetOrCreateLike inserts a like for (author, object) or returns the
// existing one, reporting whether a row was created now.
func (db *DB) GetOrCreateLike(like *domain.Like) (error, *domain.Like, bool) {
	var created bool
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlInsertLike,
			like.Id.String(),
			like.Fqid,
			like.AuthorId.String(),
			like.Object,
			like.Published,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0
		return nil
	})
	if err != nil {
		return err, nil, false
	}
	if created {
		return nil, like, true
	}
	err, existing := db.ReadLike(like.AuthorId, like.Object)
	return err, existing, false
}

func (db *DB) ReadLike(authorId uuid.UUID, object string) (error, *domain.Like) {
	row := db.db.QueryRow(sqlSelectLike, authorId.String(), object)
	var like domain.Like
	var idStr, authorStr string
	err := row.Scan(&idStr, &like.Fqid, &authorStr, &like.Object, &like.Published)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	like.Id = parseUUID(idStr)
	like.AuthorId = parseUUID(authorStr)
	return nil, &like
}

func (db *DB) CountLikesOfObject(object string) (error, int) {
	var count int
	err := db.db.QueryRow(sqlCountLikesOfObject, object).Scan(&count)
	return err, count
}

func (db *DB) ReadLikesOfObject(object string) (error, *[]domain.Like) {
	rows, err := db.db.Query(sqlSelectLikesOfObject, object)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var likes []domain.Like
	for rows.Next() {
		var like domain.Like
		var idStr, authorStr string
		if err := rows.Scan(&idStr, &like.Fqid, &authorStr, &like.Object, &like.Published); err != nil {
			return err, &likes
		}
		like.Id = parseUUID(idStr)
		like.AuthorId = parseUUID(authorStr)
		likes = append(likes, like)
	}
	if err = rows.Err(); err != nil {
		return err, &likes
	}
	return nil, &likes
}
