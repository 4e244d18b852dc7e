package clients

import (
	"errors"
	"strings"
)

func (s *Service) validate(c Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("client name is required")
	}
	if strings.TrimSpace(c.Contact) == "" {
		return errors.New("contact person is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return errors.New("phone number is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}
