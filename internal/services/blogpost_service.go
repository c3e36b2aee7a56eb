package services

import (
	"context"
	"errors"
	"time"

	"blogapi/internal/models"
	"blogapi/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Validation messages returned to callers.
const (
	MsgInvalidID          = "id should be in UUID format"
	MsgTitleRequired      = "title should be present"
	MsgDescriptionMissing = "description should be present"
	MsgPublisherMissing   = "publisher should be present"
	MsgAlreadyDeleted     = "blogpost already deleted"
)

var fieldMessages = map[string]string{
	"ID":          MsgInvalidID,
	"Title":       MsgTitleRequired,
	"Description": MsgDescriptionMissing,
}

// EventPublisher sends blogpost lifecycle events to interested consumers.
type EventPublisher interface {
	PublishBlogpostEvent(event models.BlogpostEvent) error
}

// BlogpostService handles business logic related to blogposts.
type BlogpostService struct {
	repo      repositories.BlogpostRepository
	publisher EventPublisher
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBlogpostService creates a new BlogpostService. publisher may be nil.
func NewBlogpostService(repo repositories.BlogpostRepository, publisher EventPublisher, logger *zap.Logger) *BlogpostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New()
	// Registration only fails for reserved tags.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("anyuuid", isUUID)

	return &BlogpostService{
		repo:      repo,
		publisher: publisher,
		validate:  v,
		logger:    logger,
		now:       time.Now,
	}
}

// FindAll returns every blogpost, or only those matching query when it is non-empty.
func (s *BlogpostService) FindAll(ctx context.Context, query string) ([]models.Blogpost, error) {
	if query == "" {
		return s.repo.FindAll(ctx)
	}
	return s.repo.Search(ctx, query)
}

// FindOne returns the blogpost with the given id, or nil if there is none.
func (s *BlogpostService) FindOne(ctx context.Context, id string) (*models.Blogpost, error) {
	post, err := s.repo.FindByID(ctx, canonicalID(id))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return post, nil
}

// Save validates post and stores it under a fresh id.
func (s *BlogpostService) Save(ctx context.Context, post models.Blogpost) (*models.Blogpost, error) {
	if err := s.Validate(&post); err != nil {
		return nil, err
	}

	created := post.Clone()
	created.ID = uuid.New().String()
	created.CreatedAt = s.now()
	created.UpdatedAt = nil
	created.Version = 1
	created.PublisherID = post.Publisher.ID

	if err := s.repo.Save(ctx, &created); err != nil {
		if errors.Is(err, repositories.ErrUnknownPublisher) {
			return nil, NewValidationError(MsgPublisherMissing)
		}
		return nil, err
	}
	s.publish(models.BlogpostCreated, &created)
	return &created, nil
}

// Update validates post under the path id and writes it.
//
// When the store reports the row as missing or stale, the current row is
// returned instead. If it is gone the call fails with MsgAlreadyDeleted.
func (s *BlogpostService) Update(ctx context.Context, id string, post models.Blogpost) (*models.Blogpost, error) {
	updated := post.Clone()
	updated.ID = id
	if err := s.Validate(&updated); err != nil {
		return nil, err
	}

	updated.ID = canonicalID(id)
	now := s.now()
	updated.UpdatedAt = &now
	updated.PublisherID = updated.Publisher.ID

	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, repositories.ErrUnknownPublisher) {
			return nil, NewValidationError(MsgPublisherMissing)
		}
		if !errors.Is(err, repositories.ErrNotFound) && !errors.Is(err, repositories.ErrVersionConflict) {
			return nil, err
		}
		s.logger.Info("blogpost update conflicted", zap.String("id", id), zap.Error(err))

		current, findErr := s.FindOne(ctx, updated.ID)
		if findErr != nil {
			return nil, findErr
		}
		if current == nil {
			return nil, NewValidationError(MsgAlreadyDeleted)
		}
		return current, nil
	}
	s.publish(models.BlogpostUpdated, &updated)
	return &updated, nil
}

// Delete removes the blogpost. Unknown ids are ignored and publish no event.
func (s *BlogpostService) Delete(ctx context.Context, id string) error {
	id = canonicalID(id)
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if deleted {
		s.publish(models.BlogpostDeleted, &models.Blogpost{ID: id})
	}
	return nil
}

// Validate reports the first problem found in post, checking id, title,
// description and publisher in that order.
func (s *BlogpostService) Validate(post *models.Blogpost) error {
	if err := s.validate.Struct(post); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return err
		}
		if msg, ok := fieldMessages[fieldErrs[0].StructField()]; ok {
			return NewValidationError(msg)
		}
		return NewValidationError(fieldErrs[0].Error())
	}
	if post.Publisher == nil || s.validate.Var(post.Publisher.ID, "notblank") != nil {
		return NewValidationError(MsgPublisherMissing)
	}
	return nil
}

// isUUID accepts anything uuid.Parse does, in either case.
func isUUID(fl validator.FieldLevel) bool {
	_, err := uuid.Parse(fl.Field().String())
	return err == nil
}

// canonicalID returns the lowercase hyphenated form of a UUID id. Other ids
// are returned unchanged.
func canonicalID(id string) string {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return parsed.String()
}

func (s *BlogpostService) publish(eventType string, post *models.Blogpost) {
	if s.publisher == nil {
		return
	}
	event := models.BlogpostEvent{
		Type:        eventType,
		BlogpostID:  post.ID,
		PublisherID: post.PublisherID,
		OccurredAt:  s.now(),
	}
	if err := s.publisher.PublishBlogpostEvent(event); err != nil {
		s.logger.Warn("failed to publish blogpost event",
			zap.String("type", eventType),
			zap.String("id", post.ID),
			zap.Error(err))
	}
}
