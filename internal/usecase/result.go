package usecase

import (
	"github.com/hirelens/screener/internal/domain"
)

// ResultService serves stored screening results.
type ResultService struct {
	Results domain.ResultRepository
}

// NewResultService constructs a ResultService.
func NewResultService(r domain.ResultRepository) ResultService { return ResultService{Results: r} }

// Get loads a result by id.
func (s ResultService) Get(ctx domain.Context, id string) (domain.ScreenResult, error) {
	return s.Results.Get(ctx, id)
}

// PIIService exposes mask reversal for the authenticated admin surface.
// It is the only read path to the original values.
type PIIService struct {
	Store domain.PIIStore
}

// NewPIIService constructs a PIIService.
func NewPIIService(store domain.PIIStore) PIIService { return PIIService{Store: store} }

// Mappings returns the token->original mapping for one masking run.
func (s PIIService) Mappings(ctx domain.Context, collectionID string) (map[string]string, error) {
	return s.Store.Mappings(ctx, collectionID)
}
