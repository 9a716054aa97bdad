package db

import (
	"database/sql"
	"log"
)

const (
	sqlCreateAuthorsTable = `CREATE TABLE IF NOT EXISTS authors (
		id TEXT NOT NULL PRIMARY KEY,
		fqid TEXT UNIQUE NOT NULL,
		host TEXT NOT NULL,
		username TEXT UNIQUE NOT NULL,
		display_name TEXT,
		github TEXT,
		profile_image TEXT,
		page TEXT,
		api_token TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	sqlCreateAuthorsIndices = `
		CREATE INDEX IF NOT EXISTS idx_authors_fqid ON authors(fqid);
		CREATE INDEX IF NOT EXISTS idx_authors_host ON authors(host);
	`

	sqlCreateFollowsTable = `CREATE TABLE IF NOT EXISTS follows (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL,
		follower_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'REQUESTED',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, follower_id)
	)`

	sqlCreateFollowsIndices = `
		CREATE INDEX IF NOT EXISTS idx_follows_user_id ON follows(user_id);
		CREATE INDEX IF NOT EXISTS idx_follows_follower_id ON follows(follower_id);
	`

	sqlCreatePostsTable = `CREATE TABLE IF NOT EXISTS posts (
		id TEXT NOT NULL PRIMARY KEY,
		fqid TEXT UNIQUE NOT NULL,
		author_id TEXT NOT NULL,
		title TEXT,
		description TEXT,
		content_type TEXT,
		content TEXT,
		visibility TEXT NOT NULL DEFAULT 'PUBLIC',
		is_deleted INTEGER DEFAULT 0,
		is_shared INTEGER DEFAULT 0,
		original_post TEXT,
		published TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	sqlCreatePostsIndices = `
		CREATE INDEX IF NOT EXISTS idx_posts_fqid ON posts(fqid);
		CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
		CREATE INDEX IF NOT EXISTS idx_posts_published ON posts(published DESC);
		CREATE INDEX IF NOT EXISTS idx_posts_visibility ON posts(visibility);
	`

	sqlCreateCommentsTable = `CREATE TABLE IF NOT EXISTS comments (
		id TEXT NOT NULL PRIMARY KEY,
		fqid TEXT UNIQUE NOT NULL,
		post_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		comment TEXT,
		content_type TEXT DEFAULT 'text/plain',
		published TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	sqlCreateCommentsIndices = `
		CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
	`

	sqlCreateLikesTable = `CREATE TABLE IF NOT EXISTS likes (
		id TEXT NOT NULL PRIMARY KEY,
		fqid TEXT UNIQUE NOT NULL,
		author_id TEXT NOT NULL,
		object TEXT NOT NULL,
		published TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(author_id, object)
	)`

	sqlCreateLikesIndices = `
		CREATE INDEX IF NOT EXISTS idx_likes_object ON likes(object);
	`

	sqlCreateGithubPostsTable = `CREATE TABLE IF NOT EXISTS github_posts (
		activity_id TEXT NOT NULL PRIMARY KEY,
		post_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	sqlCreateNodesTable = `CREATE TABLE IF NOT EXISTS remote_nodes (
		id TEXT NOT NULL PRIMARY KEY,
		url TEXT UNIQUE NOT NULL,
		username TEXT NOT NULL,
		password TEXT NOT NULL,
		token TEXT,
		active INTEGER DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
)

// RunMigrations creates all tables and indices. Safe to run repeatedly.
func (db *DB) RunMigrations() error {
	migrations := []struct {
		name string
		sql  string
	}{
		{"authors table", sqlCreateAuthorsTable},
		{"authors indices", sqlCreateAuthorsIndices},
		{"follows table", sqlCreateFollowsTable},
		{"follows indices", sqlCreateFollowsIndices},
		{"posts table", sqlCreatePostsTable},
		{"posts indices", sqlCreatePostsIndices},
		{"comments table", sqlCreateCommentsTable},
		{"comments indices", sqlCreateCommentsIndices},
		{"likes table", sqlCreateLikesTable},
		{"likes indices", sqlCreateLikesIndices},
		{"github_posts table", sqlCreateGithubPostsTable},
		{"remote_nodes table", sqlCreateNodesTable},
	}

	return db.wrapTransaction(func(tx *sql.Tx) error {
		for _, m := range migrations {
			if _, err := tx.Exec(m.sql); err != nil {
				log.Printf("Migration %q failed: %v", m.name, err)
				return err
			}
		}
		return nil
	})
}
