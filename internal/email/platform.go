package email

import (
	"fmt"
	"strings"

	"github.com/shineum/mailtask/internal/config"
)

// Platform identifies an email provider.
type Platform int

const (
	PlatformUnknown Platform = iota
	PlatformGmail
	PlatformOutlook
)

func (p Platform) String() string {
	switch p {
	case PlatformGmail:
		return "GMAIL"
	case PlatformOutlook:
		return "OUTLOOK"
	default:
		return "UNKNOWN"
	}
}

// platformDomains is checked in order; the first matching domain wins.
var platformDomains = []struct {
	domain   string
	platform Platform
}{
	{"mail.google.com", PlatformGmail},
	{"gmail.com", PlatformGmail},
	{"outlook.office.com", PlatformOutlook},
	{"outlook.office365.com", PlatformOutlook},
	{"outlook.live.com", PlatformOutlook},
	{"outlook.com", PlatformOutlook},
}

// DetectPlatform infers the platform from a message URL by case-insensitive
// domain matching. An unrecognised URL is a configuration error.
func DetectPlatform(url string) (Platform, error) {
	lower := strings.ToLower(url)
	for _, d := range platformDomains {
		if strings.Contains(lower, d.domain) {
			return d.platform, nil
		}
	}
	return PlatformUnknown, &config.Error{Msg: fmt.Sprintf("could not detect email platform from URL %q", url)}
}

// ParsePlatform parses a platform name such as "GMAIL" or "outlook".
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "GMAIL":
		return PlatformGmail, nil
	case "OUTLOOK":
		return PlatformOutlook, nil
	default:
		return PlatformUnknown, &config.Error{Msg: fmt.Sprintf("unknown email platform %q", name)}
	}
}
