package cli

import (
	"context"
	"errors"
	"os"

	"github.com/dmitrijs2005/ragchat/internal/client/models"
	"github.com/dmitrijs2005/ragchat/internal/common"
)

// Profile updates the current user's profile. Empty answers leave the
// corresponding field unchanged.
func (a *App) Profile(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Not logged in.")
		return nil
	}

	email, err := GetSimpleText(a.reader, "New email (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	username, err := GetSimpleText(a.reader, "New username (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetSimpleText(a.reader, "New password (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}

	var upd models.ProfileUpdate
	if email != "" {
		upd.Email = &email
	}
	if username != "" {
		upd.Username = &username
	}
	if password != "" {
		upd.Password = &password
	}
	if upd.Email == nil && upd.Username == nil && upd.Password == nil {
		printlnFn("Nothing to update.")
		return nil
	}

	id, err := a.manager.UpdateProfile(ctx, upd)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			printlnFn("Update failed:", err)
		} else {
			printlnFn("Server unavailable, please try again later")
		}
		return err
	}

	printlnFn("Profile updated for", id.Username)
	return nil
}
