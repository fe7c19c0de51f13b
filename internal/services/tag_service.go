package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"gorm.io/gorm"
)

// TagService manages the acting user's private tags.
type TagService struct {
	repos *repository.Repositories
}

func NewTagService(repos *repository.Repositories) *TagService {
	return &TagService{repos: repos}
}

// TagInput represents a tag create or update; nil leaves a field as is.
type TagInput struct {
	Name  *string
	Color *string
}

func duplicateName(err error, action string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateName
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func (s *TagService) List(ctx context.Context, actor *models.User) ([]models.Tag, error) {
	tags, err := s.repos.WithContext(ctx).Tags.ListByOwner(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) Create(ctx context.Context, actor *models.User, input TagInput) (*models.Tag, error) {
	if input.Name == nil {
		return nil, invalid("name", "is required")
	}
	name, err := requiredName("name", *input.Name, 50)
	if err != nil {
		return nil, err
	}
	color := ""
	if input.Color != nil {
		color = *input.Color
	}
	if color, err = validColor("color", color, constants.DefaultColor); err != nil {
		return nil, err
	}

	tag := &models.Tag{Name: name, Color: color, OwnerID: actor.ID}
	if err := s.repos.WithContext(ctx).Tags.Create(tag); err != nil {
		return nil, duplicateName(err, "create tag")
	}
	return tag, nil
}

func (s *TagService) findOwned(repos *repository.Repositories, actor *models.User, tagID uint64) (*models.Tag, error) {
	tag, err := repos.Tags.FindByID(tagID)
	if err != nil {
		return nil, notFound(err, ErrTagNotFound, "find tag")
	}
	if err := engine(repos).Require(actor, authz.TagResource(tag.OwnerID), authz.ActionUpdate); err != nil {
		return nil, ErrTagNotFound
	}
	return tag, nil
}

func (s *TagService) Update(ctx context.Context, actor *models.User, tagID uint64, input TagInput) (*models.Tag, error) {
	repos := s.repos.WithContext(ctx)
	if _, err := s.findOwned(repos, actor, tagID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Name != nil {
		name, err := requiredName("name", *input.Name, 50)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if input.Color != nil {
		color, err := validColor("color", *input.Color, constants.DefaultColor)
		if err != nil {
			return nil, err
		}
		fields["color"] = color
	}
	if len(fields) > 0 {
		if err := repos.Tags.Update(tagID, fields); err != nil {
			return nil, duplicateName(err, "update tag")
		}
	}
	return s.findOwned(repos, actor, tagID)
}

// Delete removes the tag and detaches it from every task.
func (s *TagService) Delete(ctx context.Context, actor *models.User, tagID uint64) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := s.findOwned(tx, actor, tagID); err != nil {
			return err
		}
		if err := tx.Tags.Delete(tagID); err != nil {
			return fmt.Errorf("failed to delete tag: %w", err)
		}
		return nil
	})
}

// CategoryService manages the acting user's private project categories.
type CategoryService struct {
	repos *repository.Repositories
}

func NewCategoryService(repos *repository.Repositories) *CategoryService {
	return &CategoryService{repos: repos}
}

// CategoryInput represents a category create or update; nil leaves a field as is.
type CategoryInput struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
}

func (s *CategoryService) List(ctx context.Context, actor *models.User) ([]models.Category, error) {
	categories, err := s.repos.WithContext(ctx).Categories.ListByOwner(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, actor *models.User, input CategoryInput) (*models.Category, error) {
	if input.Name == nil {
		return nil, invalid("name", "is required")
	}
	name, err := requiredName("name", *input.Name, 100)
	if err != nil {
		return nil, err
	}
	color := ""
	if input.Color != nil {
		color = *input.Color
	}
	if color, err = validColor("color", color, constants.DefaultColor); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, Color: color, OwnerID: actor.ID}
	if input.Description != nil {
		category.Description = *input.Description
	}
	if input.Icon != nil {
		category.Icon = strings.TrimSpace(*input.Icon)
	}
	if err := s.repos.WithContext(ctx).Categories.Create(category); err != nil {
		return nil, duplicateName(err, "create category")
	}
	return category, nil
}

func (s *CategoryService) findOwned(repos *repository.Repositories, actor *models.User, categoryID uint64) (*models.Category, error) {
	category, err := repos.Categories.FindByID(categoryID)
	if err != nil {
		return nil, notFound(err, ErrCategoryNotFound, "find category")
	}
	if err := engine(repos).Require(actor, authz.CategoryResource(category.OwnerID), authz.ActionUpdate); err != nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, actor *models.User, categoryID uint64, input CategoryInput) (*models.Category, error) {
	repos := s.repos.WithContext(ctx)
	if _, err := s.findOwned(repos, actor, categoryID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Name != nil {
		name, err := requiredName("name", *input.Name, 100)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Color != nil {
		color, err := validColor("color", *input.Color, constants.DefaultColor)
		if err != nil {
			return nil, err
		}
		fields["color"] = color
	}
	if input.Icon != nil {
		fields["icon"] = strings.TrimSpace(*input.Icon)
	}
	if len(fields) > 0 {
		if err := repos.Categories.Update(categoryID, fields); err != nil {
			return nil, duplicateName(err, "update category")
		}
	}
	return s.findOwned(repos, actor, categoryID)
}

// Delete removes the category. Its projects are kept without a category.
func (s *CategoryService) Delete(ctx context.Context, actor *models.User, categoryID uint64) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := s.findOwned(tx, actor, categoryID); err != nil {
			return err
		}
		if err := tx.Categories.Delete(categoryID); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
}
