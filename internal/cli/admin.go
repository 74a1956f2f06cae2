package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/dmitrijs2005/eldermate/internal/credstore"
)

// Prefs shows the current user's preferences and optionally updates one.
// Values typed as "true"/"false" become booleans, numeric text becomes a
// number, anything else is stored as a string.
func (a *App) Prefs(ctx context.Context) error {
	data := a.core.Credentials().GetUserData(a.phone)
	if data == nil {
		printlnFn("Account not found")
		return nil
	}

	keys := make([]string, 0, len(data.Preferences))
	for k := range data.Preferences {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		printlnFn(fmt.Sprintf("%s = %s", k, data.Preferences[k].String()))
	}

	key, err := getSimpleText(a.reader, "Preference to change (empty to keep all)", os.Stdout)
	if err != nil {
		return err
	}
	if key == "" {
		return nil
	}
	raw, err := getSimpleText(a.reader, "New value", os.Stdout)
	if err != nil {
		return err
	}

	if !a.core.Credentials().UpdateUserPreference(a.phone, key, parsePreference(raw)) {
		printlnFn("Could not update the preference")
		return nil
	}
	printlnFn("Updated.")
	return nil
}

func parsePreference(raw string) credstore.Preference {
	if b, err := strconv.ParseBool(raw); err == nil {
		return credstore.BoolPreference(b)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return credstore.NumberPreference(n)
	}
	return credstore.StringPreference(raw)
}

// Users lists all registered accounts without credential material.
func (a *App) Users(ctx context.Context) error {
	users := a.core.Credentials().GetAllUsers()
	if len(users) == 0 {
		printlnFn("No registered users")
		return nil
	}
	for _, u := range users {
		last := "never"
		if u.LastLogin != nil {
			last = *u.LastLogin
		}
		printlnFn(fmt.Sprintf("%s  created %s  last login %s  active %v",
			u.Phone, u.CreatedAt, last, u.IsActive))
	}
	return nil
}

// DeleteAccount removes the logged-in account after the user retypes their
// phone number to confirm, then logs out.
func (a *App) DeleteAccount(ctx context.Context) error {
	confirm, err := getSimpleText(a.reader, "Retype your phone number to delete this account", os.Stdout)
	if err != nil {
		return err
	}
	if confirm != a.phone {
		printlnFn("Phone number does not match, nothing deleted")
		return nil
	}

	if !a.core.DeleteUser(a.phone) {
		printlnFn("Could not delete the account")
		return nil
	}
	printlnFn("Account deleted")
	return a.Logout(ctx)
}
