// Package service holds the business rules of the card builder.
//
// Handlers parse HTTP and call into these services with plain Go values;
// services validate, stamp timestamps and talk to a repository.DocumentStore.
// Neither layer knows about the other's concerns: services return apperror
// values, handlers turn them into status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/business-cards/internal/apperror"
	"github.com/sakif/business-cards/internal/model"
	"github.com/sakif/business-cards/internal/repository"
)

// Length limits, counted in runes.
const (
	MaxFieldLength       = 200
	MaxDescriptionLength = 2000
)

// IntakeService collects and stores the profile of a new card.
type IntakeService struct {
	store  repository.DocumentStore
	logger *slog.Logger
	now    func() time.Time
}

func NewIntakeService(store repository.DocumentStore, logger *slog.Logger) *IntakeService {
	return &IntakeService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Submit validates the intake fields and persists them as a new profile.
//
// Every field is trimmed first. Validation happens before the store is
// touched, so a rejected submission never produces a write. A failed write
// is reported as apperror.ErrPersistenceWrite and is not retried.
func (s *IntakeService) Submit(ctx context.Context, fields map[string]string) (*model.ProfileRecord, error) {
	trimmed := make(map[string]string, len(model.ProfileFields))
	for _, f := range model.ProfileFields {
		trimmed[f.Key] = strings.TrimSpace(fields[f.Key])
	}

	if err := ValidateProfile(trimmed); err != nil {
		return nil, err
	}

	record := model.ProfileFromFields(trimmed)
	record.CreatedAt = s.now().UTC()

	id, err := s.store.Create(ctx, repository.CollectionProfiles, record)
	if err != nil {
		s.logger.Error("failed to save profile",
			slog.String("business", record.BusinessName),
			slog.String("error", err.Error()),
		)
		return nil, apperror.WriteFailed(repository.CollectionProfiles, err)
	}
	record.ID = id

	s.logger.Info("profile saved",
		slog.String("id", record.ID),
		slog.String("business", record.BusinessName),
	)

	return &record, nil
}

// Get reads a stored profile back.
func (s *IntakeService) Get(ctx context.Context, id string) (*model.ProfileRecord, error) {
	var record model.ProfileRecord
	if err := s.store.Get(ctx, repository.CollectionProfiles, id, &record); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to load profile",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, apperror.ReadFailed(repository.CollectionProfiles, id, err)
	}
	record.ID = id
	return &record, nil
}

// ValidateProfile checks already-trimmed intake fields: required fields must
// be present and nothing may exceed its length limit. The first problem, in
// form order, is returned.
func ValidateProfile(fields map[string]string) error {
	for _, f := range model.ProfileFields {
		v := fields[f.Key]
		if f.Required && v == "" {
			return apperror.ValidationFailed(f.Key, fmt.Sprintf("%s is required", f.Label))
		}

		limit := MaxFieldLength
		if f.Key == model.FieldDescription {
			limit = MaxDescriptionLength
		}
		if utf8.RuneCountInString(v) > limit {
			return apperror.ValidationFailed(f.Key,
				fmt.Sprintf("%s must be %d characters or less", f.Label, limit))
		}
	}
	return nil
}
