package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/ragchat/internal/client/services"
	"github.com/dmitrijs2005/ragchat/internal/common"
)

func (a *App) Ask(ctx context.Context) error {
	query, err := GetSimpleText(a.reader, "Your question", os.Stdout)
	if err != nil {
		return err
	}

	ans, err := a.chat.Ask(ctx, query)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyQuery):
			printlnFn("Please enter a question.")
		case errors.Is(err, common.ErrUnauthorized):
			printlnFn("Please log in first.")
		default:
			printlnFn("Request failed:", err)
		}
		return err
	}

	printlnFn(ans.Answer)
	for _, src := range ans.Sources {
		printlnFn(fmt.Sprintf("  [%s] %s (score %.2f)", src.ID, src.Source, src.Score))
	}
	printlnFn(fmt.Sprintf("confidence %.2f, %dms", ans.Confidence, ans.LatencyMS))
	return nil
}
