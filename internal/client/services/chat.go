// Package services contains application services for the ragchat CLI:
// thin domain wrappers over the API client, consumed by the REPL.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/ragchat/internal/client/api"
	"github.com/dmitrijs2005/ragchat/internal/client/models"
)

// ErrEmptyQuery is returned when the user submits a blank question.
var ErrEmptyQuery = errors.New("query must not be empty")

// maxQueryLen mirrors the server-side limit on chat queries.
const maxQueryLen = 1000

// ChatService asks questions against the retrieval backend.
type ChatService interface {
	Ask(ctx context.Context, query string) (*models.ChatAnswer, error)
}

type chatService struct {
	client api.Client
}

func NewChatService(client api.Client) ChatService {
	return &chatService{client: client}
}

// Ask validates and submits a question. The call goes through the
// authorized transport; token handling is entirely transparent here.
func (s *chatService) Ask(ctx context.Context, query string) (*models.ChatAnswer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if len(query) > maxQueryLen {
		query = query[:maxQueryLen]
	}
	return s.client.Chat(ctx, query)
}
