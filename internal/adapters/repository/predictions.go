package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/pylon/internal/domain/model"
)

// PredictionStore holds the one immutable prediction per game. Once the
// underlying game is processed the row is compared against the actual
// result by the reporting collaborator; it is never mutated here.
type PredictionStore struct {
	mu     sync.RWMutex
	byGame map[string]model.Prediction
}

// NewPredictionStore creates an empty prediction store.
func NewPredictionStore() *PredictionStore {
	return &PredictionStore{byGame: make(map[string]model.Prediction)}
}

// Create persists a prediction. A second prediction for the same game is
// rejected with ErrPredictionExists.
func (s *PredictionStore) Create(_ context.Context, p model.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byGame[p.GameID]; exists {
		return fmt.Errorf("game %s: %w", p.GameID, ErrPredictionExists)
	}
	s.byGame[p.GameID] = p
	return nil
}

// ByGame returns the prediction for a game.
func (s *PredictionStore) ByGame(_ context.Context, gameID string) (model.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byGame[gameID]
	if !ok {
		return model.Prediction{}, fmt.Errorf("game %s: %w", gameID, ErrPredictionNotFound)
	}
	return p, nil
}

// Count returns the number of stored predictions.
func (s *PredictionStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.byGame)
}
