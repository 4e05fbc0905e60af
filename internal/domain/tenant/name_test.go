package tenant

import (
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/TenantForge/internal/domain"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"acme", "acme"},
		{"Acme", "acme"},
		{"my shop", "myshop"},
		{"my_shop!", "myshop"},
		{"über-co", "ber-co"},
		{"ABC-123", "abc-123"},
		{"", ""},
		{"___", ""},
	}
	for _, tt := range tests {
		got := Sanitize(tt.in)
		if got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := Sanitize(got); again != got {
			t.Errorf("Sanitize is not idempotent for %q: %q then %q", tt.in, got, again)
		}
	}
}

func TestSanitizeNeverTruncates(t *testing.T) {
	long := strings.Repeat("a", 100)
	if got := Sanitize(long); got != long {
		t.Fatalf("expected %d characters, got %d", len(long), len(got))
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string // empty means valid
	}{
		{"valid", "acme", ""},
		{"digits and hyphens", "acme-2-go", ""},
		{"max length", strings.Repeat("a", MaxNameLength), ""},
		{"empty", "", "Tenant name is required"},
		{"uppercase", "Acme", CharsetMessage},
		{"space", "my shop", CharsetMessage},
		{"dot", "a.b", CharsetMessage},
		{"too long", strings.Repeat("a", MaxNameLength+1), "Tenant name must be between 1 and 63 characters"},
		// charset is checked before length
		{"too long and uppercase", strings.Repeat("A", MaxNameLength+1), CharsetMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.in)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if !ValidName(tt.in) {
					t.Fatalf("ValidName(%q) = false", tt.in)
				}
				return
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := domain.ValidationMessage(err); got != tt.want {
				t.Fatalf("message %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateIcon(t *testing.T) {
	valid := []string{"", "🚀", "🏢🏢", strings.Repeat("x", MaxIconLength), "👨‍👩‍👧"}
	for _, icon := range valid {
		if err := ValidateIcon(icon); err != nil {
			t.Errorf("ValidateIcon(%q): %v", icon, err)
		}
	}
	invalid := []string{" ", "\t\n", strings.Repeat("x", MaxIconLength+1), "\xff"}
	for _, icon := range invalid {
		err := ValidateIcon(icon)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != "icon" {
			t.Errorf("ValidateIcon(%q): expected icon validation error, got %v", icon, err)
		}
	}
}
