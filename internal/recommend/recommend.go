// Package recommend ranks gifts by how many of their tags overlap a query.
package recommend

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/amaironohi/shop/internal/domain"
)

// Limit is the number of gifts a recommendation returns
const Limit = 2

// Score counts the (query, gift) tag pairs where either tag contains the
// other, over the full cross product
func Score(giftTags, queryTags []string) int {
	score := 0
	for _, q := range queryTags {
		for _, g := range giftTags {
			if strings.Contains(g, q) || strings.Contains(q, g) {
				score++
			}
		}
	}
	return score
}

// Rank picks up to Limit gifts for query. Gifts without tags never appear.
// When no gift scores above zero the gifts whose tag count is closest to the
// query length are returned instead. Ties keep catalog order.
func Rank(gifts []domain.Gift, query []string) []domain.Gift {
	type scored struct {
		gift  domain.Gift
		score int
	}

	candidates := make([]scored, 0, len(gifts))
	anyMatch := false
	for _, g := range gifts {
		if len(g.Tags) == 0 {
			continue
		}
		s := Score(g.Tags, query)
		if s > 0 {
			anyMatch = true
		}
		candidates = append(candidates, scored{gift: g, score: s})
	}

	if anyMatch {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].score > candidates[j].score
		})
	} else {
		sort.SliceStable(candidates, func(i, j int) bool {
			return distance(candidates[i].gift, query) < distance(candidates[j].gift, query)
		})
	}

	n := len(candidates)
	if n > Limit {
		n = Limit
	}
	out := make([]domain.Gift, n)
	for i := range out {
		out[i] = candidates[i].gift
	}
	return out
}

func distance(g domain.Gift, query []string) int {
	d := len(g.Tags) - len(query)
	if d < 0 {
		return -d
	}
	return d
}

// GiftLister supplies the gift catalog in catalog order
type GiftLister interface {
	ListGifts(ctx context.Context) ([]domain.Gift, error)
}

// Engine recommends gifts from the live catalog
type Engine struct {
	gifts  GiftLister
	logger *zap.Logger
}

// NewEngine creates a recommendation engine
func NewEngine(gifts GiftLister, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{gifts: gifts, logger: logger}
}

// Recommend returns up to Limit gifts for queryTags. The tags are scored as
// sent; an empty tag is contained in every gift tag.
func (e *Engine) Recommend(ctx context.Context, queryTags []string) ([]domain.Gift, error) {
	gifts, err := e.gifts.ListGifts(ctx)
	if err != nil {
		return nil, err
	}

	ranked := Rank(gifts, queryTags)
	e.logger.Debug("gifts recommended",
		zap.Strings("query", queryTags),
		zap.Int("catalog_size", len(gifts)),
		zap.Int("returned", len(ranked)),
	)
	return ranked, nil
}
