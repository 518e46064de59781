package cli

import (
	"context"
	"errors"
	"os"

	"github.com/dmitrijs2005/ragchat/internal/common"
)

func (a *App) Login(ctx context.Context) error {
	user, err := GetSimpleText(a.reader, "Enter email or username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, err := a.manager.Login(ctx, user, string(password))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrUnauthorized):
			printlnFn("Login failed:", err)
		default:
			printlnFn("Server unavailable, please try again later")
		}
		return err
	}

	printlnFn("Logged in as", id.Username)
	return nil
}
