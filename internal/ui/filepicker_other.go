//go:build !darwin

package ui

// PickFolder is unavailable off macOS and always reports a cancel
func PickFolder(message string) string {
	return ""
}
