package cli

import (
	"context"
	"errors"
	"os"

	"github.com/dmitrijs2005/ragchat/internal/common"
)

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, err := a.manager.Register(ctx, email, username, string(password))
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			printlnFn("Registration failed:", err)
		} else {
			printlnFn("Server unavailable, please try again later")
		}
		return err
	}

	printlnFn("Registered and logged in as", id.Username)
	return nil
}
