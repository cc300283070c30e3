// AngelaMos | 2026
// validator.go

package comment

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/carterperez-dev/minicms/internal/config"
)

var (
	ErrContentTooShort      = errors.New("comment content too short")
	ErrContentTooLong       = errors.New("comment content too long")
	ErrInappropriateContent = errors.New("comment content inappropriate")
)

// DefaultDenylist applies when comments.denylist is empty.
var DefaultDenylist = []string{
	"احمق",
	"کثافت",
	"لعنتی",
	"بی‌شعور",
	"idiot",
	"stupid",
	"bastard",
	"casino",
	"viagra",
}

// ContentValidator screens comment bodies before any store access. Lengths
// count runes of the trimmed content so Persian text is measured by
// character, not byte.
type ContentValidator struct {
	minLength int
	maxLength int
	denylist  []string
}

func NewContentValidator(cfg config.CommentsConfig) *ContentValidator {
	words := cfg.Denylist
	if len(words) == 0 {
		words = DefaultDenylist
	}

	lowered := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			lowered = append(lowered, w)
		}
	}

	return &ContentValidator{
		minLength: cfg.MinLength,
		maxLength: cfg.MaxLength,
		denylist:  lowered,
	}
}

// Check returns the trimmed content or the first rule it breaks.
func (v *ContentValidator) Check(content string) (string, error) {
	trimmed := strings.TrimSpace(content)

	n := utf8.RuneCountInString(trimmed)
	if n < v.minLength {
		return "", fmt.Errorf("check content: %w", ErrContentTooShort)
	}
	if n > v.maxLength {
		return "", fmt.Errorf("check content: %w", ErrContentTooLong)
	}

	lowered := strings.ToLower(trimmed)
	for _, w := range v.denylist {
		if strings.Contains(lowered, w) {
			return "", fmt.Errorf("check content: %w", ErrInappropriateContent)
		}
	}

	return trimmed, nil
}

func (v *ContentValidator) MinLength() int {
	return v.minLength
}

func (v *ContentValidator) MaxLength() int {
	return v.maxLength
}
