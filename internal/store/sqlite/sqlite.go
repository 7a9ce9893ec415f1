package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alphabot-ai/bloglist/internal/model"
	"github.com/alphabot-ai/bloglist/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	name TEXT NOT NULL,
	adult INTEGER NOT NULL DEFAULT 1,
	password_hash TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);

CREATE TABLE IF NOT EXISTS blogs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT,
	url TEXT NOT NULL,
	likes INTEGER NOT NULL DEFAULT 0,
	user_id TEXT,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_blogs (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	blog_id TEXT NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_user_blogs_user_id ON user_blogs(user_id);
`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

const blogColumns = `b.id, b.title, b.author, b.url, b.likes, b.user_id, u.username, u.name`

func (s *Store) InsertBlog(ctx context.Context, blog *model.Blog) error {
	id := model.NewID()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO blogs (id, title, author, url, likes, user_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, id.Hex(), blog.Title, nullIfEmpty(blog.Author), blog.URL, blog.Likes, nullableID(blog.UserID), time.Now().Unix())
	if err != nil {
		return err
	}
	blog.ID = id
	return nil
}

func (s *Store) GetBlog(ctx context.Context, id model.ID) (model.Blog, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+blogColumns+`
FROM blogs b
LEFT JOIN users u ON u.id = b.user_id
WHERE b.id = ?
LIMIT 1
`, id.Hex())
	return scanBlog(row)
}

func (s *Store) ListBlogs(ctx context.Context) ([]model.Blog, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+blogColumns+`
FROM blogs b
LEFT JOIN users u ON u.id = b.user_id
ORDER BY b.id ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []model.Blog{}
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}
	return blogs, rows.Err()
}

func (s *Store) UpdateBlog(ctx context.Context, id model.ID, patch model.BlogPatch) (model.Blog, error) {
	var sets []string
	var args []any
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Author != nil {
		sets = append(sets, "author = ?")
		args = append(args, nullIfEmpty(*patch.Author))
	}
	if patch.URL != nil {
		sets = append(sets, "url = ?")
		args = append(args, *patch.URL)
	}
	if patch.Likes != nil {
		sets = append(sets, "likes = ?")
		args = append(args, *patch.Likes)
	}
	if len(sets) == 0 {
		return s.GetBlog(ctx, id)
	}

	args = append(args, id.Hex())
	res, err := s.db.ExecContext(ctx, `UPDATE blogs SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return model.Blog{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Blog{}, store.ErrNotFound
	}
	return s.GetBlog(ctx, id)
}

func (s *Store) DeleteBlog(ctx context.Context, id model.ID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id.Hex())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) InsertUser(ctx context.Context, user *model.User) error {
	id := model.NewID()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, username, name, adult, password_hash, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, id.Hex(), user.Username, user.Name, boolToInt(user.Adult), user.PasswordHash, time.Now().Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateUsername
		}
		return err
	}
	user.ID = id
	user.Blogs = []model.ID{}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id model.ID) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, name, adult, password_hash
FROM users
WHERE id = ?
`, id.Hex())
	u, err := scanUser(row)
	if err != nil {
		return model.User{}, err
	}
	return s.withBlogs(ctx, u)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, name, adult, password_hash
FROM users
WHERE username = ?
`, username)
	u, err := scanUser(row)
	if err != nil {
		return model.User{}, err
	}
	return s.withBlogs(ctx, u)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, username, name, adult, password_hash
FROM users
ORDER BY id ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	owned, err := s.ownedBlogs(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if ids, ok := owned[users[i].ID]; ok {
			users[i].Blogs = ids
		}
	}
	return users, nil
}

func (s *Store) AppendUserBlog(ctx context.Context, userID, blogID model.ID) error {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO user_blogs (user_id, blog_id)
SELECT id, ? FROM users WHERE id = ?
`, blogID.Hex(), userID.Hex())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) withBlogs(ctx context.Context, u model.User) (model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT blog_id FROM user_blogs WHERE user_id = ? ORDER BY seq ASC`, u.ID.Hex())
	if err != nil {
		return model.User{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return model.User{}, err
		}
		id, err := model.ParseID(raw)
		if err != nil {
			return model.User{}, fmt.Errorf("user %s: blog id %q: %w", u.ID.Hex(), raw, err)
		}
		u.Blogs = append(u.Blogs, id)
	}
	return u, rows.Err()
}

func (s *Store) ownedBlogs(ctx context.Context) (map[model.ID][]model.ID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, blog_id FROM user_blogs ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owned := make(map[model.ID][]model.ID)
	for rows.Next() {
		var rawUser, rawBlog string
		if err := rows.Scan(&rawUser, &rawBlog); err != nil {
			return nil, err
		}
		userID, err := model.ParseID(rawUser)
		if err != nil {
			return nil, err
		}
		blogID, err := model.ParseID(rawBlog)
		if err != nil {
			return nil, err
		}
		owned[userID] = append(owned[userID], blogID)
	}
	return owned, rows.Err()
}

func scanBlog(scanner interface{ Scan(dest ...any) error }) (model.Blog, error) {
	var b model.Blog
	var rawID string
	var author sql.NullString
	var userID sql.NullString
	var username sql.NullString
	var name sql.NullString
	if err := scanner.Scan(&rawID, &b.Title, &author, &b.URL, &b.Likes, &userID, &username, &name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Blog{}, store.ErrNotFound
		}
		return model.Blog{}, err
	}
	id, err := model.ParseID(rawID)
	if err != nil {
		return model.Blog{}, err
	}
	b.ID = id
	if author.Valid {
		b.Author = author.String
	}
	if userID.Valid {
		uid, err := model.ParseID(userID.String)
		if err != nil {
			return model.Blog{}, err
		}
		b.UserID = &uid
		// The join misses when the referenced user is gone; keep the reference, drop the projection.
		if username.Valid {
			b.Owner = &model.Owner{ID: uid, Username: username.String, Name: name.String}
		}
	}
	return b, nil
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (model.User, error) {
	var u model.User
	var rawID string
	var adult int
	if err := scanner.Scan(&rawID, &u.Username, &u.Name, &adult, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	id, err := model.ParseID(rawID)
	if err != nil {
		return model.User{}, err
	}
	u.ID = id
	u.Adult = adult == 1
	u.Blogs = []model.ID{}
	return u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableID(id *model.ID) any {
	if id == nil {
		return nil
	}
	return id.Hex()
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
