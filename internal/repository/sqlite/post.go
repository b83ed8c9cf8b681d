package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/shaiq/auth-practice/internal/apperror"
	"github.com/shaiq/auth-practice/internal/model"
	"github.com/shaiq/auth-practice/internal/repository"
)

var (
	_ repository.PostRepository     = (*postRepo)(nil)
	_ repository.CategoryRepository = (*categoryRepo)(nil)
)

// DB already uses Create for users, so the post and category interfaces are
// implemented by small adapter types sharing the pool.
type postRepo struct{ db *DB }
type categoryRepo struct{ db *DB }

// Posts returns the post repository backed by this DB.
func (db *DB) Posts() repository.PostRepository { return &postRepo{db} }

// Categories returns the category repository backed by this DB.
func (db *DB) Categories() repository.CategoryRepository { return &categoryRepo{db} }

// Create inserts a post and its category links in one transaction.
func (r *postRepo) Create(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()

	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID, post.Title, post.Content, post.UserID, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting post: %w", err)
	}

	for _, cat := range post.Categories {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO post_categories (post_id, category_id) VALUES (?, ?)`,
			post.ID, cat.ID)
		if err != nil {
			return fmt.Errorf("sqlite: linking post %s to category %s: %w", post.ID, cat.ID, err)
		}
	}

	return tx.Commit()
}

// GetByID returns a post with its categories.
func (r *postRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, title, content, user_id, created_at, updated_at
		 FROM posts WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", "id "+id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}

	if p.Categories, err = r.db.categoriesOf(ctx, p.ID); err != nil {
		return nil, err
	}

	return &p, nil
}

// List returns posts ordered by creation time, newest first.
func (r *postRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, title, content, user_id, created_at, updated_at
		 FROM posts ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range posts {
		if posts[i].Categories, err = r.db.categoriesOf(ctx, posts[i].ID); err != nil {
			return nil, err
		}
	}

	return posts, nil
}

// Delete removes a post; category links cascade.
func (r *postRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	return requireRow(res, "post", id)
}

func (db *DB) categoriesOf(ctx context.Context, postID string) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.name FROM categories c
		 JOIN post_categories pc ON pc.category_id = c.id
		 WHERE pc.post_id = ? ORDER BY c.name`, postID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading categories for post %s: %w", postID, err)
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		cats = append(cats, c)
	}

	return cats, rows.Err()
}

// FindOrCreateByName returns the category with the given name, creating it
// on first use. A concurrent insert of the same name is absorbed by
// retrying the lookup after a unique-constraint failure.
func (r *categoryRepo) FindOrCreateByName(ctx context.Context, name string) (*model.Category, error) {
	cat, err := r.findByName(ctx, name)
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	created := &model.Category{ID: xid.New().String(), Name: name}
	_, err = r.db.conn.ExecContext(ctx,
		`INSERT INTO categories (id, name) VALUES (?, ?)`, created.ID, created.Name)
	if err != nil {
		if isUniqueViolation(err, "categories.name") {
			return r.findByName(ctx, name)
		}
		return nil, fmt.Errorf("sqlite: inserting category %q: %w", name, err)
	}

	return created, nil
}

func (r *categoryRepo) findByName(ctx context.Context, name string) (*model.Category, error) {
	var c model.Category
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, name FROM categories WHERE name = ?`, name,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("category", "name "+name)
		}
		return nil, fmt.Errorf("sqlite: finding category %q: %w", name, err)
	}
	return &c, nil
}

// List returns all categories ordered by name.
func (r *categoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		cats = append(cats, c)
	}

	return cats, rows.Err()
}
