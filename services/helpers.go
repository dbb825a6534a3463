package services

import (
	"github.com/Dosada05/academy-system/ledger"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func normalizeDate(raw *string) (*string, error) {
	return ledger.NormalizeDate(raw)
}
