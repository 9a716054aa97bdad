package db

import (
	"database/sql"

	"github.com/deemkeen/mammut/domain"
)

// Github activity queries. The activity_id key makes re-imports of the
// same event a no-op.
const (
	sqlInsertGithubPost = `INSERT INTO github_posts(activity_id, post_id) VALUES (?, ?)
	                       ON CONFLICT(activity_id) DO NOTHING`
)

// CreateGithubPost inserts the post keyed by its github activity id,
// reporting whether the event was new. A previously imported activity id
// leaves the store untouched.
func (db *DB) CreateGithubPost(activityId string, post *domain.Post) (error, bool) {
	var created bool
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlInsertGithubPost, activityId, post.Id.String())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		created = true
		return insertPost(tx, post)
	})
	return err, created
}
