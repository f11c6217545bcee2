package speech

import (
	"strings"

	"github.com/softspoken/parley/internal/domain"
)

// ChooseVoice picks a synthesis voice from the available list:
// an exact name match wins, then the first voice matching the locale,
// then the first available voice. Returns domain.ErrNoVoices when the
// list is empty. Deterministic for a fixed list.
func ChooseVoice(voices []Voice, name, locale string) (Voice, error) {
	if len(voices) == 0 {
		return Voice{}, domain.ErrNoVoices
	}

	for _, v := range voices {
		if v.ShortName == name || v.Name == name {
			return v, nil
		}
	}

	for _, v := range voices {
		if strings.EqualFold(v.Locale, locale) {
			return v, nil
		}
	}

	return voices[0], nil
}
