package db

import (
	"database/sql"

	"github.com/deemkeen/mammut/domain"
)

// Combined ingestion operations. Inbound delivery may materialize a shadow
// author alongside the record that references it; both writes share one
// transaction so a failed delivery never leaves a dangling author.

// CreatePostWithAuthor inserts the post and, when shadow is non-nil, the
// shadow author in the same transaction.
func (db *DB) CreatePostWithAuthor(shadow *domain.Author, post *domain.Post) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		if shadow != nil {
			if err := insertAuthor(tx, shadow); err != nil {
				return err
			}
		}
		return insertPost(tx, post)
	})
}

// GetOrCreateFollowWithAuthor inserts the shadow author (when non-nil) and
// get-or-creates the REQUESTED edge, all in one transaction.
func (db *DB) GetOrCreateFollowWithAuthor(shadow *domain.Author, follow *domain.Follow) (error, *domain.Follow, bool) {
	var created bool
	result := follow
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		if shadow != nil {
			if err := insertAuthor(tx, shadow); err != nil {
				return err
			}
		}
		res, err := tx.Exec(sqlInsertFollow,
			follow.Id.String(),
			follow.UserId.String(),
			follow.FollowerId.String(),
			follow.Status,
			follow.CreatedAt,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0
		if !created {
			row := tx.QueryRow(sqlSelectFollow, follow.UserId.String(), follow.FollowerId.String())
			var existing domain.Follow
			var idStr, userStr, followerStr string
			if err := row.Scan(&idStr, &userStr, &followerStr, &existing.Status, &existing.CreatedAt); err != nil {
				return err
			}
			existing.Id = parseUUID(idStr)
			existing.UserId = parseUUID(userStr)
			existing.FollowerId = parseUUID(followerStr)
			result = &existing
		}
		return nil
	})
	if err != nil {
		return err, nil, false
	}
	return nil, result, created
}

// GetOrCreateLikeWithAuthor inserts the shadow author (when non-nil) and
// get-or-creates the like keyed on (author, object), in one transaction.
func (db *DB) GetOrCreateLikeWithAuthor(shadow *domain.Author, like *domain.Like) (error, *domain.Like, bool) {
	var created bool
	result := like
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		if shadow != nil {
			if err := insertAuthor(tx, shadow); err != nil {
				return err
			}
		}
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
		if !created {
			row := tx.QueryRow(sqlSelectLike, like.AuthorId.String(), like.Object)
			var existing domain.Like
			var idStr, authorStr string
			if err := row.Scan(&idStr, &existing.Fqid, &authorStr, &existing.Object, &existing.Published); err != nil {
				return err
			}
			existing.Id = parseUUID(idStr)
			existing.AuthorId = parseUUID(authorStr)
			result = &existing
		}
		return nil
	})
	if err != nil {
		return err, nil, false
	}
	return nil, result, created
}

// CreateCommentWithAuthor inserts the comment and, when shadow is non-nil,
// the shadow author in the same transaction. Comments always append.
func (db *DB) CreateCommentWithAuthor(shadow *domain.Author, comment *domain.Comment) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		if shadow != nil {
			if err := insertAuthor(tx, shadow); err != nil {
				return err
			}
		}
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
