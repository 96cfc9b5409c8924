//go:build !darwin

package backend

import "errors"

var errNoKeychain = errors.New("keychain is only available on macOS")

func loadFromKeychain(service, account string) ([]byte, error) {
	return nil, errNoKeychain
}

func saveToKeychain(service, account string, data []byte) error {
	return errNoKeychain
}

func deleteFromKeychain(service, account string) error {
	return errNoKeychain
}
