package cli

import (
	"context"
	"fmt"
)

func (a *App) WhoAmI(ctx context.Context) error {
	id := a.manager.Identity()
	if id == nil {
		printlnFn("Not logged in.")
		return nil
	}
	printlnFn(fmt.Sprintf("%s <%s> role=%s active=%t since %s",
		id.Username, id.Email, id.Role, id.IsActive, id.CreatedAt.Format("2006-01-02")))
	return nil
}
