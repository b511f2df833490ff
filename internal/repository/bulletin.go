package repository

import (
	"context"
	"fmt"

	"tenantsync/internal/models"
)

// CreatePost stores a post awaiting moderation.
func (s *Store) CreatePost(ctx context.Context, p *models.BulletinPost) (int, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO bulletin_posts (user_id, user_role, title, content, category, moderated)
		VALUES ($1, $2, $3, $4, $5, FALSE) RETURNING post_id, created_at`,
		p.UserID, string(p.UserRole), p.Title, p.Content, p.Category).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", mapError(err))
	}
	p.Moderated = false
	return p.ID, nil
}

func (s *Store) ListModeratedPosts(ctx context.Context) ([]models.BulletinPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT post_id, user_id, user_role, title, content, category, moderated, created_at
		FROM bulletin_posts WHERE moderated = TRUE
		ORDER BY created_at DESC, post_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.BulletinPost{}
	for rows.Next() {
		var p models.BulletinPost
		if err := rows.Scan(&p.ID, &p.UserID, &p.UserRole, &p.Title, &p.Content, &p.Category, &p.Moderated, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Store) ModeratePost(ctx context.Context, postID int, approved bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE bulletin_posts SET moderated = $1 WHERE post_id = $2", approved, postID)
	if err != nil {
		return fmt.Errorf("moderate post %d: %w", postID, mapError(err))
	}
	return affectedOrNotFound(res)
}

func (s *Store) AddComment(ctx context.Context, c *models.BulletinComment) (int, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO bulletin_comments (post_id, user_id, content)
		VALUES ($1, $2, $3) RETURNING comment_id, created_at`,
		c.PostID, c.UserID, c.Content).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", mapError(err))
	}
	return c.ID, nil
}

func (s *Store) ListComments(ctx context.Context, postID int) ([]models.BulletinComment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT comment_id, post_id, user_id, content, created_at
		FROM bulletin_comments WHERE post_id = $1
		ORDER BY created_at, comment_id`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.BulletinComment{}
	for rows.Next() {
		var c models.BulletinComment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
