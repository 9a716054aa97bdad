package db

import (
	"database/sql"

	"github.com/deemkeen/mammut/domain"
	"github.com/google/uuid"
)

// Follow queries. The UNIQUE(user_id, follower_id) constraint keeps every
// ordered pair down to a single edge under concurrent delivery.
const (
	sqlInsertFollow = `INSERT INTO follows(id, user_id, follower_id, status, created_at) VALUES (?, ?, ?, ?, ?)
	                   ON CONFLICT(user_id, follower_id) DO NOTHING`
	sqlSelectFollow       = `SELECT id, user_id, follower_id, status, created_at FROM follows WHERE user_id = ? AND follower_id = ?`
	sqlUpdateFollowStatus = `UPDATE follows SET status = ? WHERE user_id = ? AND follower_id = ? AND status = ?`
	sqlDeleteFollow       = `DELETE FROM follows WHERE user_id = ? AND follower_id = ?`

	sqlCountFollowers = `SELECT COUNT(*) FROM follows WHERE user_id = ? AND status = 'FOLLOWED'`
	sqlCountFollowing = `SELECT COUNT(*) FROM follows WHERE follower_id = ? AND status = 'FOLLOWED'`

	sqlAreFriends = `SELECT COUNT(*) FROM follows f1
	                 JOIN follows f2 ON f1.user_id = f2.follower_id AND f1.follower_id = f2.user_id
	                 WHERE f1.user_id = ? AND f1.follower_id = ?
	                 AND f1.status = 'FOLLOWED' AND f2.status = 'FOLLOWED'`

	sqlSelectFriends = `SELECT a.id, a.fqid, a.host, a.username, a.display_name, a.github, a.profile_image, a.page, a.api_token, a.created_at
	                    FROM authors a
	                    JOIN follows f1 ON f1.user_id = a.id AND f1.follower_id = ? AND f1.status = 'FOLLOWED'
	                    JOIN follows f2 ON f2.follower_id = a.id AND f2.user_id = ? AND f2.status = 'FOLLOWED'`

	sqlSelectFollowers = `SELECT a.id, a.fqid, a.host, a.username, a.display_name, a.github, a.profile_image, a.page, a.api_token, a.created_at
	                      FROM authors a
	                      JOIN follows f ON f.follower_id = a.id
	                      WHERE f.user_id = ? AND f.status = ?`

	sqlSelectFollowing = `SELECT a.id, a.fqid, a.host, a.username, a.display_name, a.github, a.profile_image, a.page, a.api_token, a.created_at
	                      FROM authors a
	                      JOIN follows f ON f.user_id = a.id
	                      WHERE f.follower_id = ? AND f.status = 'FOLLOWED'`
)

// GetOrCreateFollow inserts a REQUESTED edge if the ordered pair has none,
// returning the edge and whether it was created now.
func (db *DB) GetOrCreateFollow(userId, followerId uuid.UUID) (error, *domain.Follow, bool) {
	follow := domain.NewFollow(userId, followerId)
	var created bool
	err := db.wrapTransaction(func(tx *sql.Tx) error {
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
		return nil
	})
	if err != nil {
		return err, nil, false
	}
	if created {
		return nil, follow, true
	}
	err, existing := db.ReadFollow(userId, followerId)
	return err, existing, false
}

func (db *DB) ReadFollow(userId, followerId uuid.UUID) (error, *domain.Follow) {
	row := db.db.QueryRow(sqlSelectFollow, userId.String(), followerId.String())
	var follow domain.Follow
	var idStr, userStr, followerStr string
	err := row.Scan(&idStr, &userStr, &followerStr, &follow.Status, &follow.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	follow.Id = parseUUID(idStr)
	follow.UserId = parseUUID(userStr)
	follow.FollowerId = parseUUID(followerStr)
	return nil, &follow
}

// AcceptFollow transitions a REQUESTED edge to FOLLOWED. The guarded UPDATE
// keeps concurrent accept/delete calls from resurrecting a removed edge.
func (db *DB) AcceptFollow(userId, followerId uuid.UUID) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlUpdateFollowStatus,
			domain.FollowAccepted, userId.String(), followerId.String(), domain.FollowRequested)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// DeleteFollow removes the edge. Deleting a missing edge is a no-op.
func (db *DB) DeleteFollow(userId, followerId uuid.UUID) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlDeleteFollow, userId.String(), followerId.String())
		return err
	})
}

func (db *DB) AreFriends(a, b uuid.UUID) (error, bool) {
	var count int
	err := db.db.QueryRow(sqlAreFriends, a.String(), b.String()).Scan(&count)
	if err != nil {
		return err, false
	}
	return nil, count > 0
}

func (db *DB) ReadFriendsOf(a uuid.UUID) (error, *[]domain.Author) {
	return db.queryAuthors(sqlSelectFriends, a.String(), a.String())
}

func (db *DB) ReadFollowers(userId uuid.UUID) (error, *[]domain.Author) {
	return db.queryAuthors(sqlSelectFollowers, userId.String(), domain.FollowAccepted)
}

// ReadFollowRequests lists authors with a pending request to follow userId.
func (db *DB) ReadFollowRequests(userId uuid.UUID) (error, *[]domain.Author) {
	return db.queryAuthors(sqlSelectFollowers, userId.String(), domain.FollowRequested)
}

func (db *DB) ReadFollowing(followerId uuid.UUID) (error, *[]domain.Author) {
	return db.queryAuthors(sqlSelectFollowing, followerId.String())
}

func (db *DB) CountFollowers(userId uuid.UUID) (error, int) {
	var count int
	err := db.db.QueryRow(sqlCountFollowers, userId.String()).Scan(&count)
	return err, count
}

func (db *DB) CountFollowing(followerId uuid.UUID) (error, int) {
	var count int
	err := db.db.QueryRow(sqlCountFollowing, followerId.String()).Scan(&count)
	return err, count
}

func (db *DB) queryAuthors(query string, args ...any) (error, *[]domain.Author) {
	rows, err := db.db.Query(query, args...)
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
