// Package roster parses participant tables and keeps their positional ids.
package roster

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrPosition is returned when a reorder refers to a position outside the list.
var ErrPosition = errors.New("roster: position out of range")

// Benefits is the binary benefits flag.
type Benefits string

const (
	BenefitsYes Benefits = "YES"
	BenefitsNo  Benefits = "NO"
)

// Participant is one course enrollee. ID is always the 1-based position
// in the list it belongs to.
type Participant struct {
	ID          int      `json:"id"`
	Surname     string   `json:"cognome"`
	GivenName   string   `json:"nome"`
	FiscalCode  string   `json:"codiceFiscale"`
	Phone       string   `json:"cellulare"`
	Email       string   `json:"email"`
	CaseManager string   `json:"caseManager"`
	Benefits    Benefits `json:"benefits"`

	BirthDate  string `json:"dataNascita,omitempty"`
	BirthPlace string `json:"comuneNascita,omitempty"`
	Residence  string `json:"comuneResidenza,omitempty"`
	Address    string `json:"indirizzo,omitempty"`
	Education  string `json:"titoloStudio,omitempty"`
	EnrolledAt string `json:"dataIscrizione,omitempty"`
	Notes      string `json:"note,omitempty"`
}

// FullName returns "GivenName Surname".
func (p Participant) FullName() string {
	return strings.TrimSpace(p.GivenName + " " + p.Surname)
}

// SplitName splits a full name on the first space: the first token is the
// given name and everything after it is the surname.
func SplitName(full string) (given, surname string) {
	full = strings.TrimSpace(full)
	i := strings.Index(full, " ")
	if i < 0 {
		return full, ""
	}
	return full[:i], strings.TrimSpace(full[i+1:])
}

var truthy = map[string]bool{
	"si": true, "s": true, "yes": true, "y": true,
	"true": true, "x": true, "1": true, "vero": true,
}

// ParseBenefits maps the accepted truthy spellings to BenefitsYes and
// anything else to BenefitsNo.
func ParseBenefits(s string) Benefits {
	if truthy[fold(s)] {
		return BenefitsYes
	}
	return BenefitsNo
}

// fold lowercases s and strips diacritics ("Sì" -> "si").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

var fiscalCodeRe = regexp.MustCompile(`^[A-Z]{6}[0-9LMNPQRSTUV]{2}[A-EHLMPRST][0-9LMNPQRSTUV]{2}[A-Z][0-9LMNPQRSTUV]{3}[A-Z]$`)

// FiscalCodeValid reports whether s has the shape of an Italian codice
// fiscale, omocodia substitutions included. The check digit is not verified.
func FiscalCodeValid(s string) bool {
	return fiscalCodeRe.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// Renumber returns a copy of list with ids set to their 1-based positions.
func Renumber(list []Participant) []Participant {
	out := make([]Participant, len(list))
	copy(out, list)
	for i := range out {
		out[i].ID = i + 1
	}
	return out
}

// Swap exchanges the participants at 1-based positions i and j.
func Swap(list []Participant, i, j int) ([]Participant, error) {
	if err := checkPosition(list, i); err != nil {
		return nil, err
	}
	if err := checkPosition(list, j); err != nil {
		return nil, err
	}
	out := Renumber(list)
	out[i-1], out[j-1] = out[j-1], out[i-1]
	return Renumber(out), nil
}

// Move relocates the participant at 1-based position from to position to,
// shifting the ones in between.
func Move(list []Participant, from, to int) ([]Participant, error) {
	if err := checkPosition(list, from); err != nil {
		return nil, err
	}
	if err := checkPosition(list, to); err != nil {
		return nil, err
	}
	out := make([]Participant, 0, len(list))
	moved := list[from-1]
	for k, p := range list {
		if k == from-1 {
			continue
		}
		out = append(out, p)
	}
	out = append(out[:to-1], append([]Participant{moved}, out[to-1:]...)...)
	return Renumber(out), nil
}

func checkPosition(list []Participant, pos int) error {
	if pos < 1 || pos > len(list) {
		return fmt.Errorf("%w: %d (list has %d)", ErrPosition, pos, len(list))
	}
	return nil
}
