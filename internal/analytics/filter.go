// Package analytics turns a snapshot of visits into the views the front desk
// reads: the on-site board and the per-person rollup. Everything here is a
// pure function of its inputs.
package analytics

import (
	"strings"

	"github.com/diagnosis/visitor-register/internal/utils"
)

// matchesAny reports whether term is a case-insensitive substring of any
// field. A blank term matches everything.
func matchesAny(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	for _, f := range fields {
		if utils.ContainsFold(f, term) {
			return true
		}
	}
	return false
}

func normalizeTerm(search string) string {
	return strings.TrimSpace(search)
}
