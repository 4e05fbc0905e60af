package tenant

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Strob0t/TenantForge/internal/domain"
)

// MaxNameLength is the maximum length of tenant and collection names (one DNS label).
const MaxNameLength = 63

// MaxIconLength is the maximum number of characters in a tenant icon.
const MaxIconLength = 10

// CharsetMessage is shown when a submitted tenant name would need sanitizing.
const CharsetMessage = "Tenant name can only have lowercase letters, numbers, and hyphens. Please try again."

var namePattern = regexp.MustCompile(`^[a-z0-9-]{1,63}$`)

// ValidName reports whether name matches ^[a-z0-9-]{1,63}$ exactly.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Sanitize lowercases name and strips every character outside [a-z0-9-].
// It never truncates; length is checked separately.
func Sanitize(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ValidateName runs the provisioning checks for a tenant name in order:
// non-empty, charset (sanitized form must equal the input), length.
func ValidateName(name string) error {
	if name == "" {
		return domain.Validationf("name", "Tenant name is required")
	}
	if Sanitize(name) != name {
		return domain.Validationf("name", CharsetMessage)
	}
	if len(name) > MaxNameLength {
		return domain.Validationf("name", "Tenant name must be between 1 and %d characters", MaxNameLength)
	}
	return nil
}

// ValidateIcon checks the optional display icon. An empty icon is allowed.
func ValidateIcon(icon string) error {
	if icon == "" {
		return nil
	}
	if strings.TrimSpace(icon) == "" || !utf8.ValidString(icon) || utf8.RuneCountInString(icon) > MaxIconLength {
		return domain.Validationf("icon", "Please enter a valid emoji (maximum %d characters)", MaxIconLength)
	}
	return nil
}
