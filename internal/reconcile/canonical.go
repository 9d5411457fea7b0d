package reconcile

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matchsight/matchsight/internal/domain/team"
)

// corporateSuffixes is the closed token set stripped during canonicalization.
// "Internazionale FC" and "Internazionale" must map to the same identity.
var corporateSuffixes = map[string]struct{}{
	"fc": {}, "cf": {}, "sc": {}, "ac": {}, "afc": {}, "cfc": {}, "sk": {}, "as": {},
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Canonicalize maps divergent provider spellings of one club to a single
// form: NFKD, strip combining marks, lowercase, drop corporate suffix tokens,
// collapse whitespace. The pipeline is idempotent.
func Canonicalize(raw string) string {
	flattened, _, err := transform.String(stripMarks, raw)
	if err != nil {
		flattened = raw
	}
	flattened = strings.ToLower(flattened)

	fields := strings.Fields(flattened)
	kept := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.ReplaceAll(field, ".", "")
		if token == "" {
			continue
		}
		if _, drop := corporateSuffixes[token]; drop {
			continue
		}
		kept = append(kept, token)
	}
	// A name made only of suffix tokens keeps its flattened form rather than
	// collapsing to the empty identity.
	if len(kept) == 0 {
		return strings.Join(fields, " ")
	}
	return strings.Join(kept, " ")
}

func mintID(canonical, country string) string {
	sum := sha1.Sum([]byte(canonical + "|" + strings.ToLower(strings.TrimSpace(country))))
	return hex.EncodeToString(sum[:8])
}

// TeamRegistry is the cycle-scoped canonicalization table. Only the
// reconciler writes it; everything downstream reads it.
type TeamRegistry struct {
	byID        map[string]team.Team
	byCanonical map[string][]string
	newAliases  []team.Alias
}

func NewTeamRegistry(seed []team.Team) *TeamRegistry {
	r := &TeamRegistry{
		byID:        make(map[string]team.Team, len(seed)),
		byCanonical: make(map[string][]string, len(seed)),
	}
	for _, item := range seed {
		canonical := Canonicalize(item.Name)
		r.byID[item.ID] = item
		r.byCanonical[canonical] = append(r.byCanonical[canonical], item.ID)
	}
	return r
}

// Resolve maps a raw provider name to the canonical team, creating one when
// no compatible entry exists. Two raw names are the same team iff their
// canonical forms are equal and the countries are equal or one is missing.
// The first raw name observed becomes the display name; later spellings are
// recorded as aliases.
func (r *TeamRegistry) Resolve(rawName, country, providerID string) team.Team {
	rawName = strings.TrimSpace(rawName)
	canonical := Canonicalize(rawName)

	for _, id := range r.byCanonical[canonical] {
		existing := r.byID[id]
		if !countriesCompatible(existing.Country, country) {
			continue
		}
		if existing.Country == "" && country != "" {
			existing.Country = country
		}
		if !strings.EqualFold(existing.Name, rawName) && !existing.HasAlias(rawName) {
			existing = existing.WithAlias(rawName)
			r.newAliases = append(r.newAliases, team.Alias{
				TeamID:     existing.ID,
				RawName:    rawName,
				ProviderID: providerID,
			})
		}
		r.byID[id] = existing
		return existing
	}

	created := team.Team{
		ID:      mintID(canonical, country),
		Name:    rawName,
		Country: strings.TrimSpace(country),
	}
	r.byID[created.ID] = created
	r.byCanonical[canonical] = append(r.byCanonical[canonical], created.ID)
	return created
}

// NewAliases returns aliases discovered this cycle; they are persisted at the
// cycle boundary, never mid-cycle.
func (r *TeamRegistry) NewAliases() []team.Alias {
	return r.newAliases
}

func (r *TeamRegistry) Teams() []team.Team {
	out := make([]team.Team, 0, len(r.byID))
	for _, item := range r.byID {
		out = append(out, item)
	}
	return out
}

func countriesCompatible(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a == "" || b == "" || strings.EqualFold(a, b)
}
