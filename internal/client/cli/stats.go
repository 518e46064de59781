package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ragchat/internal/common"
)

func (a *App) Stats(ctx context.Context) error {
	stats, err := a.admin.Stats(ctx)
	if err != nil {
		if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrUnauthorized) {
			printlnFn("Admin access required.")
		} else {
			printlnFn("Failed to load stats:", err)
		}
		return err
	}

	printlnFn(fmt.Sprintf("documents: %d, index: %.1f MB, model: %s, top_k: %d",
		stats.DocCount, stats.IndexSizeMB, stats.EmbeddingModel, stats.TopK))
	if stats.LastUpdated != nil {
		printlnFn("last updated:", stats.LastUpdated.Format("2006-01-02 15:04"))
	}
	return nil
}
