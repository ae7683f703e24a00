package console

import (
	"context"
	"fmt"
	"strings"
)

type promptValidator func(string) (bool, string)

type promptConfig struct {
	tries     int
	validator promptValidator
}

type promptOption func(*promptConfig)

func WithValidator(v promptValidator) promptOption {
	return func(cfg *promptConfig) {
		cfg.validator = v
	}
}

func WithMaxTries(i int) promptOption {
	return func(cfg *promptConfig) {
		cfg.tries = i
	}
}

// Prompt writes prompt and returns the next line the player enters that
// passes the validator.
func (s *Session) Prompt(ctx context.Context, prompt string, opts ...promptOption) (string, error) {
	config := &promptConfig{}
	for _, opt := range opts {
		opt(config)
	}

	tries := 0
	for {
		if err := s.write(prompt); err != nil {
			return "", err
		}

		input, err := s.readLine(ctx)
		if err != nil {
			return "", err
		}

		if config.validator != nil {
			ok, msg := config.validator(input)
			if !ok {
				if err := s.write(msg); err != nil {
					return "", err
				}

				tries++
				if config.tries > 0 && config.tries == tries {
					return "", NewUserError("Too many tries.")
				}
				continue
			}
		}

		return input, nil
	}
}

// PromptYN asks a yes/no question.
func (s *Session) PromptYN(ctx context.Context, prompt string) (bool, error) {
	str, err := s.Prompt(ctx, prompt, WithMaxTries(3), WithValidator(
		func(str string) (bool, string) {
			switch strings.ToLower(str) {
			case "y", "yes", "n", "no":
				return true, ""
			default:
				return false, "Enter 'yes' or 'no'.\n"
			}
		},
	))
	if err != nil {
		return false, err
	}

	switch strings.ToLower(str) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Confirm lets a Session gate engine actions such as prestige.
func (s *Session) Confirm(ctx context.Context, prompt string) (bool, error) {
	return s.PromptYN(ctx, fmt.Sprintf("%s\n(y/n) ", s.wrap(prompt)))
}
