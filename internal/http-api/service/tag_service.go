package service

import (
	"context"
	"fmt"
	"strings"

	"foodgram/internal/apperr"
	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/shared"
	"foodgram/internal/validation"
)

type TagService interface {
	List(ctx context.Context) ([]models.Tag, error)
	Get(ctx context.Context, id int64) (*models.Tag, error)
	Create(ctx context.Context, viewer shared.Identity, req dto.TagRequest) (*models.Tag, error)
	// Import inserts tags that are not present yet and returns how many were new.
	Import(ctx context.Context, tags []dto.TagRequest) (int64, error)
}

type tagService struct {
	repo repository.TagRepository
}

func NewTagService(repo repository.TagRepository) TagService {
	return &tagService{repo: repo}
}

func (s *tagService) List(ctx context.Context) ([]models.Tag, error) {
	return s.repo.List(ctx)
}

func (s *tagService) Get(ctx context.Context, id int64) (*models.Tag, error) {
	tag, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, apperr.NotFound("tag_not_found", fmt.Sprintf("tag %d not found", id)))
	}
	return tag, nil
}

func (s *tagService) Create(ctx context.Context, viewer shared.Identity, req dto.TagRequest) (*models.Tag, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	tag, err := newTag(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, tag); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("tag_exists", "a tag with this name, color or slug already exists")
		}
		return nil, err
	}
	return tag, nil
}

func (s *tagService) Import(ctx context.Context, reqs []dto.TagRequest) (int64, error) {
	tags := make([]models.Tag, 0, len(reqs))
	for i, req := range reqs {
		tag, err := newTag(req)
		if err != nil {
			return 0, fmt.Errorf("tag #%d: %w", i+1, err)
		}
		tags = append(tags, *tag)
	}
	return s.repo.Upsert(ctx, tags)
}

func newTag(req dto.TagRequest) (*models.Tag, error) {
	fields := validation.TagFields{
		Name:  strings.TrimSpace(req.Name),
		Color: strings.ToUpper(strings.TrimSpace(req.Color)),
		Slug:  strings.TrimSpace(req.Slug),
	}
	if v := validation.TagCreate(fields); !v.OK() {
		return nil, v.Err("invalid_tag", "tag data is invalid")
	}
	return &models.Tag{Name: fields.Name, Color: fields.Color, Slug: fields.Slug}, nil
}

func requireAdmin(viewer shared.Identity) error {
	if err := requireIdentity(viewer); err != nil {
		return err
	}
	if !viewer.IsAdmin() {
		return apperr.Forbidden("only administrators can change the catalogue")
	}
	return nil
}
