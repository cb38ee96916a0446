package service

import (
	"context"

	"foodgram/internal/apperr"
	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/logging"
	"foodgram/internal/metrics"
	"foodgram/internal/shared"
)

type UserService interface {
	Get(ctx context.Context, viewer shared.Identity, id string) (*dto.UserResponse, error)
	Me(ctx context.Context, viewer shared.Identity) (*dto.UserResponse, error)
	List(ctx context.Context, viewer shared.Identity, page repository.Page) ([]dto.UserResponse, int64, error)
	Subscribe(ctx context.Context, viewer shared.Identity, authorID string, recipesLimit int) (*dto.SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, viewer shared.Identity, authorID string) error
	Subscriptions(ctx context.Context, viewer shared.Identity, page repository.Page, recipesLimit int) ([]dto.SubscriptionResponse, int64, error)
}

type userService struct {
	users     repository.UserRepository
	follows   repository.FollowRepository
	projector *Projector
}

func NewUserService(users repository.UserRepository, follows repository.FollowRepository, projector *Projector) UserService {
	return &userService{users: users, follows: follows, projector: projector}
}

func (s *userService) Get(ctx context.Context, viewer shared.Identity, id string) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, userNotFound(id))
	}
	return s.projector.User(ctx, viewer, user)
}

func (s *userService) Me(ctx context.Context, viewer shared.Identity) (*dto.UserResponse, error) {
	if err := requireIdentity(viewer); err != nil {
		return nil, err
	}
	return s.Get(ctx, viewer, viewer.UserID)
}

func (s *userService) List(ctx context.Context, viewer shared.Identity, page repository.Page) ([]dto.UserResponse, int64, error) {
	users, total, err := s.users.List(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.projector.Users(ctx, viewer, users)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *userService) Subscribe(ctx context.Context, viewer shared.Identity, authorID string, recipesLimit int) (*dto.SubscriptionResponse, error) {
	if err := requireIdentity(viewer); err != nil {
		return nil, err
	}
	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return nil, storeError(err, userNotFound(authorID))
	}
	if author.ID == viewer.UserID {
		s.count("add", "invalid")
		return nil, apperr.Validation("self_follow", "you cannot subscribe to yourself",
			apperr.Violation{Field: "author", Rule: "not_self", Message: "you cannot subscribe to yourself"})
	}

	exists, err := s.follows.Exists(ctx, viewer.UserID, author.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		s.count("add", "conflict")
		return nil, alreadySubscribed()
	}
	if err := s.follows.Add(ctx, viewer.UserID, author.ID); err != nil {
		if repository.IsDuplicate(err) {
			s.count("add", "conflict")
			return nil, alreadySubscribed()
		}
		s.count("add", "error")
		return nil, storeError(err, nil)
	}
	s.count("add", "success")
	logging.Ctx(ctx).Debug().Str("user_id", viewer.UserID).Str("author_id", author.ID).Msg("subscribed")

	subs, err := s.projector.Subscriptions(ctx, viewer, []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

func (s *userService) Unsubscribe(ctx context.Context, viewer shared.Identity, authorID string) error {
	if err := requireIdentity(viewer); err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, authorID); err != nil {
		return storeError(err, userNotFound(authorID))
	}
	if err := s.follows.Remove(ctx, viewer.UserID, authorID); err != nil {
		if repository.IsNotFound(err) {
			s.count("remove", "missing")
			return apperr.MissingRelation("not_subscribed", "you are not subscribed to this user")
		}
		s.count("remove", "error")
		return err
	}
	s.count("remove", "success")
	return nil
}

func (s *userService) Subscriptions(ctx context.Context, viewer shared.Identity, page repository.Page, recipesLimit int) ([]dto.SubscriptionResponse, int64, error) {
	if err := requireIdentity(viewer); err != nil {
		return nil, 0, err
	}
	authors, total, err := s.follows.ListAuthors(ctx, viewer.UserID, page)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.projector.Subscriptions(ctx, viewer, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *userService) count(action, outcome string) {
	metrics.RelationChangesTotal.WithLabelValues("follow", action, outcome).Inc()
}

func alreadySubscribed() error {
	return apperr.Conflict("already_subscribed", "you are already subscribed to this user")
}
