package extract

import (
	"regexp"
	"strings"

	"github.com/brunobiangulo/coursewizard/roster"
)

// rosterHeaders are tried in order; the first one present opens the roster.
// Matching runs on the original text so offsets stay valid for any input.
var rosterHeaders = []*regexp.Regexp{
	regexp.MustCompile(`(?i)elenco\s+partecipanti`),
	regexp.MustCompile(`(?i)elenco\s+allievi`),
	regexp.MustCompile(`(?i)elenco\s+discenti`),
	regexp.MustCompile(`(?i)partecipanti`),
}

const fiscalCodePattern = `[A-Z]{6}[0-9LMNPQRSTUV]{2}[A-EHLMPRST][0-9LMNPQRSTUV]{2}[A-Z][0-9LMNPQRSTUV]{3}[A-Z]`

// rosterLineRe matches "N. SURNAME GIVEN NAMES FISCALCODE address" rows.
var rosterLineRe = regexp.MustCompile(`(?im)^[ \t]*(\d{1,3})[.)]?[ \t]+(\S+)[ \t]+(.+?)[ \t]+(` + fiscalCodePattern + `)(?:[ \t]+(.*?))?[ \t]*$`)

// maxAddressTokens bounds how many tokens the fallback scan attaches as an
// address after a fiscal code.
const maxAddressTokens = 8

// ExtractParticipants finds the roster in text. lowConfidence is true when
// the rows were recovered by the token scan instead of the row pattern.
func ExtractParticipants(text string) (list []roster.Participant, lowConfidence bool) {
	section := rosterSection(text)

	for _, m := range rosterLineRe.FindAllStringSubmatch(section, -1) {
		list = append(list, roster.Participant{
			Surname:    m[2],
			GivenName:  strings.TrimSpace(m[3]),
			FiscalCode: strings.ToUpper(m[4]),
			Address:    strings.TrimSpace(m[5]),
			Benefits:   roster.BenefitsNo,
		})
	}
	if len(list) > 0 {
		return roster.Renumber(list), false
	}

	list = scanTokens(strings.Fields(section))
	if len(list) == 0 {
		return nil, false
	}
	return roster.Renumber(list), true
}

// rosterSection returns the text after the first header phrase, or the
// whole text when no header is present.
func rosterSection(text string) string {
	for _, h := range rosterHeaders {
		loc := h.FindStringIndex(text)
		if loc == nil {
			continue
		}
		rest := text[loc[1]:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			return rest[nl+1:]
		}
		return rest
	}
	return text
}

// scanTokens looks for the signature number, surname, given name, fiscal
// code in a flat token stream.
func scanTokens(tokens []string) []roster.Participant {
	var out []roster.Participant
	for i := 0; i+3 < len(tokens); i++ {
		if !startsRow(tokens, i) {
			continue
		}
		p := roster.Participant{
			Surname:    tokens[i+1],
			GivenName:  tokens[i+2],
			FiscalCode: strings.ToUpper(tokens[i+3]),
			Benefits:   roster.BenefitsNo,
		}
		j := i + 4
		var addr []string
		// Numeric tokens stay in the address so house numbers survive; only
		// the next row signature or a stray fiscal code ends it.
		for ; j < len(tokens) && len(addr) < maxAddressTokens; j++ {
			if startsRow(tokens, j) || roster.FiscalCodeValid(tokens[j]) {
				break
			}
			addr = append(addr, tokens[j])
		}
		p.Address = strings.Join(addr, " ")
		out = append(out, p)
		i = j - 1
	}
	return out
}

// startsRow reports whether tokens[i:] opens a new roster row. House
// numbers inside an address are numeric too, so a number alone is not
// enough.
func startsRow(tokens []string, i int) bool {
	return i+3 < len(tokens) &&
		isOrdinal(tokens[i]) &&
		!isOrdinal(tokens[i+1]) &&
		!isOrdinal(tokens[i+2]) &&
		roster.FiscalCodeValid(tokens[i+3])
}

// isOrdinal reports whether tok is a row number such as "3", "3." or "3)".
func isOrdinal(tok string) bool {
	tok = strings.TrimRight(tok, ".)")
	if tok == "" || len(tok) > 3 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
