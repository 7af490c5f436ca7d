package orders

import (
	"regexp"
	"strings"

	"github.com/dnlogistics/freightdesk/internal/models"
)

// Field length caps. Free text is trimmed and truncated before it reaches the
// store so a hostile payload cannot blow up row sizes.
const (
	maxName       = 100
	maxEmail      = 200
	maxPhone      = 20
	maxAddress    = 200
	maxCity       = 100
	maxPostalCode = 20
	maxSearch     = 100
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func emailShaped(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

func validateCreate(in models.OrderCreateInput) error {
	var problems []string

	var missing []string
	if strings.TrimSpace(in.ClientName) == "" {
		missing = append(missing, "client_name")
	}
	if strings.TrimSpace(in.ClientEmail) == "" {
		missing = append(missing, "client_email")
	}
	if strings.TrimSpace(in.ServiceType) == "" {
		missing = append(missing, "service_type")
	}
	if strings.TrimSpace(in.Origin) == "" {
		missing = append(missing, "origin")
	}
	if strings.TrimSpace(in.Destination) == "" {
		missing = append(missing, "destination")
	}
	if len(missing) > 0 {
		problems = append(problems, "Missing required fields: "+strings.Join(missing, ", "))
	}

	if strings.TrimSpace(in.ClientEmail) != "" && !emailShaped(in.ClientEmail) {
		problems = append(problems, "client_email must be a valid email address")
	}
	if in.RecipientEmail != nil && *in.RecipientEmail != "" && !emailShaped(*in.RecipientEmail) {
		problems = append(problems, "recipient_email must be a valid email address")
	}
	if strings.TrimSpace(in.ServiceType) != "" && !models.ValidServiceType(in.ServiceType) {
		problems = append(problems, "invalid service_type: "+in.ServiceType)
	}

	if len(problems) > 0 {
		return &models.ValidationError{Problems: problems}
	}
	return nil
}

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > max {
		return string(r[:max])
	}
	return s
}

func clipPtr(s *string, max int) *string {
	if s == nil {
		return nil
	}
	c := clip(*s, max)
	return &c
}

func applyText(dst *string, src *string, max int) {
	if src != nil {
		*dst = clip(*src, max)
	}
}

func applyTextPtr(dst **string, src *string, max int) {
	if src != nil {
		c := clip(*src, max)
		*dst = &c
	}
}
