package credential

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// Prompt asks for a single line on the terminal. Secret input is masked.
func Prompt(title, description string, secret bool) (string, error) {
	var value string

	input := huh.NewInput().
		Title(title).
		Description(description).
		Value(&value).
		Validate(func(s string) error {
			if s == "" {
				return errors.New("value is required")
			}
			return nil
		})
	if secret {
		input = input.EchoMode(huh.EchoModePassword)
	}

	if err := input.Run(); err != nil {
		return "", fmt.Errorf("reading %s: %w", title, err)
	}
	return value, nil
}
