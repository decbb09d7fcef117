package ingestors

import (
	"context"
	"errors"

	"usage-ingestion/internal/models"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenResolver maps an API token to the target its usage belongs to.
//
//go:generate mockgen -source=token_resolver.go -destination=./mocks/token_resolver_mock.go -package=mocks
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*models.TokenInfo, error)
}

type staticTokenResolver struct {
	tokens map[string]models.TokenInfo
}

// NewStaticTokenResolver serves a fixed token table. A later duplicate token wins.
func NewStaticTokenResolver(tokens []models.TokenInfo) TokenResolver {
	byToken := make(map[string]models.TokenInfo, len(tokens))
	for _, t := range tokens {
		byToken[t.Token] = t
	}
	return &staticTokenResolver{tokens: byToken}
}

func (r *staticTokenResolver) Resolve(ctx context.Context, token string) (*models.TokenInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, ok := r.tokens[token]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return &info, nil
}
