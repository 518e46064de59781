package services

import (
	"context"

	"github.com/dmitrijs2005/ragchat/internal/client/api"
	"github.com/dmitrijs2005/ragchat/internal/client/models"
)

// AdminService exposes admin-only operations. Authorization is enforced
// server-side by role; a non-admin caller gets a validation error back.
type AdminService interface {
	Stats(ctx context.Context) (*models.IndexStats, error)
}

type adminService struct {
	client api.Client
}

func NewAdminService(client api.Client) AdminService {
	return &adminService{client: client}
}

func (s *adminService) Stats(ctx context.Context) (*models.IndexStats, error) {
	return s.client.AdminStats(ctx)
}
