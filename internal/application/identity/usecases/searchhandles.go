package usecases

import (
	"context"
	"strings"

	"signet/internal/infrastructure/auth"
	"signet/internal/shared/logger"
)

const handleSearchPageSize = 20

// HandleSearcher is the slice of the Twitter adapter the lookup needs.
type HandleSearcher interface {
	SearchUsers(ctx context.Context, q string, count int) ([]auth.TwitterUser, error)
}

// FindTwitterHandleUseCase resolves a person's display name to a likely
// Twitter handle using the app-owned credential, no user token involved.
type FindTwitterHandleUseCase struct {
	searcher HandleSearcher
	logger   logger.Interface
}

func NewFindTwitterHandleUseCase(searcher HandleSearcher, log logger.Interface) *FindTwitterHandleUseCase {
	return &FindTwitterHandleUseCase{
		searcher: searcher,
		logger:   log.Named("find-twitter-handle"),
	}
}

// Execute returns the handle of the best match for the name, preferring an
// exact display-name match over the provider's first result. An empty string
// means no match; a provider failure is returned as-is.
func (uc *FindTwitterHandleUseCase) Execute(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}

	users, err := uc.searcher.SearchUsers(ctx, name, handleSearchPageSize)
	if err != nil {
		uc.logger.Warnw("twitter user search failed", "error", err)
		return "", err
	}
	if len(users) == 0 {
		return "", nil
	}

	for _, u := range users {
		if strings.EqualFold(u.Name, name) {
			return u.ScreenName, nil
		}
	}
	return users[0].ScreenName, nil
}
