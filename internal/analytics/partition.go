package analytics

import "github.com/diagnosis/visitor-register/internal/domain"

// Board splits visits into those still on-site and those that have left.
type Board struct {
	Current    []domain.Visitor `json:"current"`
	Historical []domain.Visitor `json:"historical"`
}

// Partition filters visitors by name, ID number or phone number and splits
// the matches by checkout state. Input order is kept within each side.
func Partition(visitors []domain.Visitor, search string) Board {
	term := normalizeTerm(search)
	board := Board{
		Current:    []domain.Visitor{},
		Historical: []domain.Visitor{},
	}

	for _, v := range visitors {
		if !matchesAny(term, v.Name, v.IDNumber, v.PhoneNumber) {
			continue
		}
		if v.CheckOutTime == nil {
			board.Current = append(board.Current, v)
		} else {
			board.Historical = append(board.Historical, v)
		}
	}
	return board
}
