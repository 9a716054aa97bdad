package db

import (
	"database/sql"

	"github.com/deemkeen/mammut/domain"
	"github.com/google/uuid"
)

// Post queries
const (
	sqlInsertPost = `INSERT INTO posts(id, fqid, author_id, title, description, content_type, content, visibility, is_deleted, is_shared, original_post, published)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sqlSelectPost         = `SELECT id, fqid, author_id, title, description, content_type, content, visibility, is_deleted, is_shared, original_post, published FROM posts`
	sqlSelectPostByFqid   = sqlSelectPost + ` WHERE fqid = ?`
	sqlSelectPostById     = sqlSelectPost + ` WHERE id = ?`
	sqlUpdatePostContent  = `UPDATE posts SET title = ?, description = ?, content_type = ?, content = ? WHERE fqid = ?`
	sqlUpdatePostLocal    = `UPDATE posts SET title = ?, description = ?, content_type = ?, content = ?, visibility = ? WHERE id = ?`
	sqlTombstonePost      = `UPDATE posts SET is_deleted = 1 WHERE id = ?`
	sqlTombstoneShares    = `UPDATE posts SET is_deleted = 1 WHERE original_post = ?`
	sqlSelectPublicPosts  = sqlSelectPost + ` WHERE visibility = 'PUBLIC' AND is_deleted = 0 ORDER BY published DESC, id ASC LIMIT ? OFFSET ?`
	sqlCountPublicPosts   = `SELECT COUNT(*) FROM posts WHERE visibility = 'PUBLIC' AND is_deleted = 0`
	sqlSelectSharesOfPost = sqlSelectPost + ` WHERE original_post = ? AND is_deleted = 0 ORDER BY published DESC, id ASC`
)

// Stream queries. The three visibility rules are a single set union:
// public posts, unlisted posts from followed authors, and unlisted or
// friends-only posts from mutual friends. DISTINCT keeps a post that
// qualifies through several rules down to one row.
const (
	sqlSelectStream = `SELECT DISTINCT p.id, p.fqid, p.author_id, p.title, p.description, p.content_type, p.content, p.visibility, p.is_deleted, p.is_shared, p.original_post, p.published
		FROM posts p
		WHERE p.is_deleted = 0 AND (
			(p.visibility = 'PUBLIC' AND p.author_id != ?)
			OR (? AND p.visibility = 'UNLISTED' AND p.author_id IN (
				SELECT user_id FROM follows WHERE follower_id = ? AND status = 'FOLLOWED'))
			OR (? AND p.visibility IN ('UNLISTED', 'FRIENDS') AND p.author_id IN (
				SELECT f1.user_id FROM follows f1
				JOIN follows f2 ON f2.user_id = f1.follower_id AND f2.follower_id = f1.user_id
				WHERE f1.follower_id = ? AND f1.status = 'FOLLOWED' AND f2.status = 'FOLLOWED'))
		)
		ORDER BY p.published DESC, p.id ASC LIMIT ? OFFSET ?`

	sqlCountStream = `SELECT COUNT(DISTINCT p.id)
		FROM posts p
		WHERE p.is_deleted = 0 AND (
			(p.visibility = 'PUBLIC' AND p.author_id != ?)
			OR (? AND p.visibility = 'UNLISTED' AND p.author_id IN (
				SELECT user_id FROM follows WHERE follower_id = ? AND status = 'FOLLOWED'))
			OR (? AND p.visibility IN ('UNLISTED', 'FRIENDS') AND p.author_id IN (
				SELECT f1.user_id FROM follows f1
				JOIN follows f2 ON f2.user_id = f1.follower_id AND f2.follower_id = f1.user_id
				WHERE f1.follower_id = ? AND f1.status = 'FOLLOWED' AND f2.status = 'FOLLOWED'))
		)`
)

func (db *DB) CreatePost(post *domain.Post) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		return insertPost(tx, post)
	})
}

func insertPost(tx *sql.Tx, post *domain.Post) error {
	var original any
	if post.OriginalPost != nil {
		original = post.OriginalPost.String()
	}
	_, err := tx.Exec(sqlInsertPost,
		post.Id.String(),
		post.Fqid,
		post.AuthorId.String(),
		post.Title,
		post.Description,
		post.ContentType,
		post.Content,
		post.Visibility,
		post.IsDeleted,
		post.IsShared,
		original,
		post.Published,
	)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

func scanPost(row interface{ Scan(...any) error }) (error, *domain.Post) {
	var post domain.Post
	var idStr, authorStr string
	var original sql.NullString
	err := row.Scan(
		&idStr,
		&post.Fqid,
		&authorStr,
		&post.Title,
		&post.Description,
		&post.ContentType,
		&post.Content,
		&post.Visibility,
		&post.IsDeleted,
		&post.IsShared,
		&original,
		&post.Published,
	)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	post.Id = parseUUID(idStr)
	post.AuthorId = parseUUID(authorStr)
	if original.Valid {
		id := parseUUID(original.String)
		post.OriginalPost = &id
	}
	return nil, &post
}

func (db *DB) ReadPostByFqid(fqid string) (error, *domain.Post) {
	return scanPost(db.db.QueryRow(sqlSelectPostByFqid, fqid))
}

func (db *DB) ReadPostById(id uuid.UUID) (error, *domain.Post) {
	return scanPost(db.db.QueryRow(sqlSelectPostById, id.String()))
}

// UpdatePostContent overwrites the content fields of the post with the given
// fqid. Author and visibility are deliberately left untouched, matching the
// re-delivery contract.
func (db *DB) UpdatePostContent(fqid, title, description, contentType, content string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdatePostContent, title, description, contentType, content, fqid)
		return err
	})
}

// UpdatePost applies a local edit, visibility included.
func (db *DB) UpdatePost(post *domain.Post) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdatePostLocal,
			post.Title, post.Description, post.ContentType, post.Content, post.Visibility, post.Id.String())
		return err
	})
}

// TombstonePost flags the post deleted and cascades the flag to its shares.
// Content fields stay as they were.
func (db *DB) TombstonePost(id uuid.UUID) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(sqlTombstonePost, id.String()); err != nil {
			return err
		}
		_, err := tx.Exec(sqlTombstoneShares, id.String())
		return err
	})
}

func (db *DB) ReadPublicPosts(limit, offset int) (error, *[]domain.Post) {
	return db.queryPosts(sqlSelectPublicPosts, limit, offset)
}

func (db *DB) CountPublicPosts() (error, int) {
	var count int
	err := db.db.QueryRow(sqlCountPublicPosts).Scan(&count)
	return err, count
}

func (db *DB) ReadSharesOfPost(id uuid.UUID) (error, *[]domain.Post) {
	return db.queryPosts(sqlSelectSharesOfPost, id.String())
}

// ReadStreamPosts runs the visibility union for a viewer. authed toggles the
// relationship rules off for anonymous viewers.
func (db *DB) ReadStreamPosts(viewerId, excludeAuthorId uuid.UUID, authed bool, limit, offset int) (error, *[]domain.Post) {
	return db.queryPosts(sqlSelectStream,
		excludeAuthorId.String(),
		authed, viewerId.String(),
		authed, viewerId.String(),
		limit, offset,
	)
}

func (db *DB) CountStreamPosts(viewerId, excludeAuthorId uuid.UUID, authed bool) (error, int) {
	var count int
	err := db.db.QueryRow(sqlCountStream,
		excludeAuthorId.String(),
		authed, viewerId.String(),
		authed, viewerId.String(),
	).Scan(&count)
	return err, count
}

// ReadPostsByAuthor lists an author's live posts restricted to the given
// visibility values, newest first.
func (db *DB) ReadPostsByAuthor(authorId uuid.UUID, visibilities []string, limit, offset int) (error, *[]domain.Post) {
	query := sqlSelectPost + ` WHERE author_id = ? AND is_deleted = 0 AND visibility IN (`
	args := []any{authorId.String()}
	for i, v := range visibilities {
		if i > 0 {
			query += `, `
		}
		query += `?`
		args = append(args, v)
	}
	query += `) ORDER BY published DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	return db.queryPosts(query, args...)
}

func (db *DB) queryPosts(query string, args ...any) (error, *[]domain.Post) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		err, post := scanPost(rows)
		if err != nil {
			return err, &posts
		}
		posts = append(posts, *post)
	}
	if err = rows.Err(); err != nil {
		return err, &posts
	}
	return nil, &posts
}
