package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/business-cards/internal/apperror"
	"github.com/sakif/business-cards/internal/model"
	"github.com/sakif/business-cards/internal/repository"
)

// CardService saves finished cards and loads them for the public viewer.
type CardService struct {
	store  repository.DocumentStore
	logger *slog.Logger
	now    func() time.Time
}

func NewCardService(store repository.DocumentStore, logger *slog.Logger) *CardService {
	return &CardService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Save writes one combined document holding the profile and the style.
//
// The style is normalized before it is stored. The profile is copied as-is,
// raw contact fields included; links are always derived at render time.
func (s *CardService) Save(ctx context.Context, profile model.ProfileRecord, style model.StyleConfig) (*model.SavedCard, error) {
	card := model.SavedCard{
		Profile:   profile,
		Style:     style.Normalize(),
		CreatedAt: s.now().UTC(),
	}

	id, err := s.store.Create(ctx, repository.CollectionCards, card)
	if err != nil {
		s.logger.Error("failed to save card",
			slog.String("profile_id", profile.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.WriteFailed(repository.CollectionCards, err)
	}
	card.ID = id

	s.logger.Info("card saved",
		slog.String("id", card.ID),
		slog.String("profile_id", profile.ID),
	)

	return &card, nil
}

// Load fetches a saved card by its locator.
//
// Absence is apperror.ErrNotFound; any other failure is
// apperror.ErrPersistenceRead. The returned style is normalized.
func (s *CardService) Load(ctx context.Context, id string) (*model.SavedCard, error) {
	if !repository.ValidID(id) {
		return nil, apperror.NotFound(repository.CollectionCards, id)
	}

	var card model.SavedCard
	if err := s.store.Get(ctx, repository.CollectionCards, id, &card); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Debug("card not found", slog.String("id", id))
			return nil, err
		}
		s.logger.Error("failed to load card",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, apperror.ReadFailed(repository.CollectionCards, id, err)
	}

	card.ID = id
	card.Style = card.Style.Normalize()
	return &card, nil
}
