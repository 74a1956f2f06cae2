package cli

import (
	"context"
	"os"

	"github.com/dmitrijs2005/eldermate/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a phone number and a password (entered twice) and
// creates the account. Phone numbers are 10 digits starting with '3';
// passwords need at least 6 characters with 3 letters and 3 digits.
func (a *App) Register(ctx context.Context) error {
	phone, err := getSimpleText(a.reader, "Enter phone number (10 digits, starts with 3)", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password (min 6 chars, 3 letters, 3 digits)", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword("Repeat password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(password) != string(confirm) {
		printlnFn("Passwords do not match")
		return nil
	}

	if !a.core.RegisterUser(phone, string(password)) {
		printlnFn("Registration failed: check the phone format and password strength")
		return nil
	}
	printlnFn("Account created. You can login now.")
	return nil
}

// Login prompts for credentials and starts a session. Repeated failures lock
// the account for a while; the store enforces that.
func (a *App) Login(ctx context.Context) error {
	phone, err := getSimpleText(a.reader, "Enter phone number", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	token, ok := a.core.Login(phone, string(password))
	if !ok {
		printlnFn("Login failed")
		return nil
	}

	a.phone = phone
	a.token = token
	printlnFn("Welcome!")
	return nil
}

// Logout drops the in-memory session.
func (a *App) Logout(ctx context.Context) error {
	a.phone = ""
	a.token = ""
	printlnFn("Logged out")
	return nil
}
