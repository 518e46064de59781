package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ragchat/internal/client/api"
	"github.com/dmitrijs2005/ragchat/internal/client/models"
)

// HistoryService manages the user's stored question/answer history.
type HistoryService interface {
	List(ctx context.Context) ([]models.HistoryItem, error)
	Delete(ctx context.Context, id int64) error
	Bookmark(ctx context.Context, id int64, bookmarked bool) error
}

type historyService struct {
	client api.Client
}

func NewHistoryService(client api.Client) HistoryService {
	return &historyService{client: client}
}

func (s *historyService) List(ctx context.Context) ([]models.HistoryItem, error) {
	return s.client.History(ctx)
}

func (s *historyService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("invalid history item id: %d", id)
	}
	return s.client.DeleteHistory(ctx, id)
}

func (s *historyService) Bookmark(ctx context.Context, id int64, bookmarked bool) error {
	if id <= 0 {
		return fmt.Errorf("invalid history item id: %d", id)
	}
	return s.client.BookmarkHistory(ctx, id, bookmarked)
}
