package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

func (a *App) History(ctx context.Context) error {
	items, err := a.history.List(ctx)
	if err != nil {
		printlnFn("Failed to load history:", err)
		return err
	}
	if len(items) == 0 {
		printlnFn("History is empty.")
		return nil
	}
	for _, it := range items {
		mark := " "
		if it.IsBookmarked {
			mark = "*"
		}
		printlnFn(fmt.Sprintf("%s %6d  %s  %s", mark, it.ID, it.CreatedAt.Format("2006-01-02 15:04"), it.Question))
	}
	return nil
}

func (a *App) Bookmark(ctx context.Context) error {
	id, err := a.promptItemID()
	if err != nil {
		return err
	}
	if err := a.history.Bookmark(ctx, id, true); err != nil {
		printlnFn("Bookmark failed:", err)
		return err
	}
	printlnFn("Bookmarked.")
	return nil
}

func (a *App) DeleteHistory(ctx context.Context) error {
	id, err := a.promptItemID()
	if err != nil {
		return err
	}
	if err := a.history.Delete(ctx, id); err != nil {
		printlnFn("Delete failed:", err)
		return err
	}
	printlnFn("Deleted.")
	return nil
}

func (a *App) promptItemID() (int64, error) {
	raw, err := GetSimpleText(a.reader, "History item id", os.Stdout)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		printlnFn("Not a valid id:", raw)
		return 0, err
	}
	return id, nil
}
