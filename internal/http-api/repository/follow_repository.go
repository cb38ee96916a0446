package repository

import (
	"context"
	"fmt"

	"foodgram/internal/http-api/models"

	"gorm.io/gorm"
)

type FollowRepository interface {
	Add(ctx context.Context, userID, authorID string) error
	// Remove returns gorm.ErrRecordNotFound when userID does not follow authorID.
	Remove(ctx context.Context, userID, authorID string) error
	Exists(ctx context.Context, userID, authorID string) (bool, error)
	// Following reports which of authorIDs userID follows.
	Following(ctx context.Context, userID string, authorIDs []string) (map[string]bool, error)
	// ListAuthors pages through the users that userID follows.
	ListAuthors(ctx context.Context, userID string, page Page) ([]models.User, int64, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Add(ctx context.Context, userID, authorID string) error {
	follow := &models.Follow{UserID: userID, AuthorID: authorID}
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}

func (r *followRepository) Remove(ctx context.Context, userID, authorID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return fmt.Errorf("unfollow: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *followRepository) Following(ctx context.Context, userID string, authorIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(authorIDs))
	if userID == "" || len(authorIDs) == 0 {
		return out, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("lookup follows: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *followRepository) ListAuthors(ctx context.Context, userID string, page Page) ([]models.User, int64, error) {
	var (
		authors []models.User
		total   int64
	)
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count follows: %w", err)
	}
	q := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("users.username ASC")
	if err := page.apply(q).Find(&authors).Error; err != nil {
		return nil, 0, fmt.Errorf("list followed authors: %w", err)
	}
	return authors, total, nil
}
