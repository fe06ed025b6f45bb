// Package normalize provides pure validation and normalization functions for
// free-text registration input: CPF, Brazilian phone numbers, city/state pairs,
// and participant profile categories.
//
// Every function is total: malformed input yields an empty result, never an
// error or panic. Validation is deliberately lenient — CPF accepts any eleven
// non-repeating digits without the check-digit algorithm.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// UFMap is the set of valid two-letter Brazilian state codes.
var UFMap = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true,
	"DF": true, "ES": true, "GO": true, "MA": true, "MT": true, "MS": true,
	"MG": true, "PA": true, "PB": true, "PR": true, "PE": true, "PI": true,
	"RJ": true, "RN": true, "RS": true, "RO": true, "RR": true, "SC": true,
	"SP": true, "SE": true, "TO": true,
}

// stateNames maps accent-stripped, upper-cased full state names to UF codes.
// Matched by substring so "ESTADO DO PARANA" still resolves.
var stateNames = []struct {
	name string
	uf   string
}{
	{"ACRE", "AC"},
	{"ALAGOAS", "AL"},
	{"AMAPA", "AP"},
	{"AMAZONAS", "AM"},
	{"BAHIA", "BA"},
	{"CEARA", "CE"},
	{"DISTRITO FEDERAL", "DF"},
	{"DF", "DF"},
	{"ESPIRITO SANTO", "ES"},
	{"GOIAS", "GO"},
	{"MARANHAO", "MA"},
	{"MATO GROSSO DO SUL", "MS"},
	{"MATO GROSSO", "MT"},
	{"MINAS GERAIS", "MG"},
	{"PARAIBA", "PB"},
	{"PARANA", "PR"},
	{"PARA", "PA"},
	{"PERNAMBUCO", "PE"},
	{"PIAUI", "PI"},
	{"RIO DE JANEIRO", "RJ"},
	{"RIO GRANDE DO NORTE", "RN"},
	{"RIO GRANDE DO SUL", "RS"},
	{"RONDONIA", "RO"},
	{"RORAIMA", "RR"},
	{"SANTA CATARINA", "SC"},
	{"SAO PAULO", "SP"},
	{"SERGIPE", "SE"},
	{"TOCANTINS", "TO"},
}

// cityPrefixes are conversational lead-ins stripped before parsing a city.
var cityPrefixes = []string{
	"sou da cidade de",
	"moro em",
	"moro na",
	"moro no",
	"sou de",
	"sou da",
	"sou do",
	"vivo em",
	"vivo na",
	"vivo no",
}

// profileKeywords maps keyword lists to canonical profile categories.
// First match wins, in listed order.
var profileKeywords = []struct {
	keywords []string
	profile  string
}{
	{[]string{"produtor", "fazenda", "fazendeiro"}, "Produtor rural"},
	{[]string{"pesquisador", "professor", "academia", "pesquisa"}, "Pesquisador(a)"},
	{[]string{"empresa", "expositor", "indústria", "industria"}, "Empresa/Expositor"},
	{[]string{"consultor", "consultoria"}, "Consultor(a)"},
	{[]string{"estudante", "aluno", "universidade"}, "Estudante"},
}

// StripAccents removes combining diacritical marks via NFD decomposition.
func StripAccents(text string) string {
	decomposed := norm.NFD.String(text)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// digitsOnly strips everything that is not an ASCII digit.
func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CPF strips non-digit characters and returns the bare eleven digits.
// Returns "" when the result is not exactly eleven digits or when all digits
// are identical (e.g. "111.111.111-11"). The official check-digit algorithm
// is intentionally not applied.
func CPF(raw string) string {
	digits := digitsOnly(raw)
	if len(digits) != 11 {
		return ""
	}
	allSame := true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return ""
	}
	return digits
}

// Phone extracts a Brazilian mobile number and formats it as
// "+55 DD NNNNN-NNNN". The country code prefix "55" is dropped when present.
// Returns "" unless exactly eleven digits remain (2-digit area code plus
// 9-digit subscriber number).
func Phone(raw string) string {
	digits := digitsOnly(raw)
	if strings.HasPrefix(digits, "55") && len(digits) > 11 {
		digits = digits[2:]
	}
	if len(digits) != 11 {
		return ""
	}
	return "+55 " + digits[:2] + " " + digits[2:7] + "-" + digits[7:]
}

// CityState extracts a (city, UF) pair from free text.
//
// Accepted shapes: "Londrina/PR", "moro em Curitiba/Paraná", "Londrina PR",
// plain "Maringá" (city only, empty UF).
func CityState(raw string) (city, uf string) {
	text := strings.TrimSpace(raw)
	text = stripCityPrefix(text)

	if idx := strings.Index(text, "/"); idx >= 0 {
		city = titleCase(strings.TrimSpace(text[:idx]))
		statePart := strings.TrimSpace(text[idx+1:])
		return city, resolveUF(statePart)
	}

	// No slash: check whether the last token is a UF code.
	words := strings.Fields(text)
	if len(words) >= 2 {
		last := strings.ToUpper(words[len(words)-1])
		if UFMap[last] {
			return titleCase(strings.Join(words[:len(words)-1], " ")), last
		}
	}
	return titleCase(text), ""
}

// resolveUF maps a state fragment (code or full name, accented or not) to a
// two-letter UF code, or "" when it does not resolve.
func resolveUF(statePart string) string {
	clean := strings.TrimSpace(strings.ToUpper(StripAccents(statePart)))
	if len(clean) == 2 && UFMap[clean] {
		return clean
	}
	for _, entry := range stateNames {
		if strings.Contains(clean, entry.name) {
			return entry.uf
		}
	}
	return ""
}

func stripCityPrefix(text string) string {
	lower := strings.ToLower(text)
	for _, prefix := range cityPrefixes {
		if strings.HasPrefix(lower, prefix+" ") {
			return strings.TrimSpace(text[len(prefix):])
		}
	}
	return text
}

// Profile normalizes a free-form answer into one of the canonical participant
// categories. Unmatched answers come back title-cased as given.
func Profile(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	for _, entry := range profileKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.profile
			}
		}
	}
	return titleCase(strings.TrimSpace(raw))
}

// titleCase upper-cases the first letter of each space-separated word,
// lower-casing the rest, mirroring Python's str.title() for our inputs.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
