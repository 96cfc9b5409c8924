//go:build darwin

package backend

import (
	"errors"
	"fmt"

	"github.com/keybase/go-keychain"
)

// genericPassword identifies the token entry for service/account
func genericPassword(service, account string) keychain.Item {
	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(service)
	item.SetAccount(account)
	return item
}

func loadFromKeychain(service, account string) ([]byte, error) {
	query := genericPassword(service, account)
	query.SetMatchLimit(keychain.MatchLimitOne)
	query.SetReturnData(true)

	results, err := keychain.QueryItem(query)
	switch {
	case err != nil:
		return nil, fmt.Errorf("keychain query: %w", err)
	case len(results) == 0:
		return nil, fmt.Errorf("%w: no keychain item for %s/%s", ErrNotAuthenticated, service, account)
	}
	return results[0].Data, nil
}

// saveToKeychain replaces any existing entry. Tokens stay on this machine.
func saveToKeychain(service, account string, data []byte) error {
	if err := deleteFromKeychain(service, account); err != nil {
		return err
	}

	item := genericPassword(service, account)
	item.SetData(data)
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlocked)

	if err := keychain.AddItem(item); err != nil {
		return fmt.Errorf("keychain save: %w", err)
	}
	return nil
}

func deleteFromKeychain(service, account string) error {
	err := keychain.DeleteItem(genericPassword(service, account))
	if err != nil && !errors.Is(err, keychain.ErrorItemNotFound) {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}
