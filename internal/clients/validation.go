package clients

import (
	"errors"
	"strings"
)

func (s *Service) validate(c Client) error {
	if strings.TrimSpace(c.Code) == "" {
		return errors.New("client code is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("client name is required")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return errors.New("client email is invalid")
	}
	return nil
}
