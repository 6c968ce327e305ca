// internal/visibility/citations.go
package visibility

import (
	"math"
	"sort"
	"strings"

	"visibility-workers/internal/models"
)

const defaultCategory = "unknown"

// aggregatedCitation accumulates every observation of one URL (identified
// case-insensitively) across providers.
type aggregatedCitation struct {
	key         string // canonical URL key
	url         string // first-seen raw URL, for display
	domain      string
	category    string
	accessible  bool
	accessSet   bool // whether accessibility was ever explicitly observed
	anchorText  string
	context     string
	isOurs      bool
	providers   []string
	providerSet map[string]bool
	positions   []int
	order       int // 0-based insertion index
}

// CitationIndex is the insertion-ordered result of citation aggregation. The
// entity aggregator queries it to attach citation detail to brand rows, so
// iteration order must be reproducible.
type CitationIndex struct {
	keys  []string
	byKey map[string]*aggregatedCitation
	total int // providers in the aggregation run
}

// AggregateCitations merges per-provider citations into one ranked source
// table plus the index the entity aggregator consumes. Citations with an
// empty URL are skipped; nothing here can fail.
func AggregateCitations(results map[string]models.ProviderResult) ([]models.SourceRow, CitationIndex) {
	idx := CitationIndex{
		byKey: make(map[string]*aggregatedCitation),
		total: len(results),
	}

	for _, provider := range sortedProviders(results) {
		for _, c := range results[provider].Citations {
			if c.URL == "" {
				continue
			}
			idx.observe(provider, c)
		}
	}

	rows := make([]models.SourceRow, 0, len(idx.keys))
	for i, key := range idx.keys {
		agg := idx.byKey[key]
		rows = append(rows, models.SourceRow{
			Domain:          agg.domain,
			URL:             agg.url,
			MentionRate:     ratePercent(len(agg.providers), idx.total),
			Position:        agg.resolvedPosition(i),
			CitingProviders: append([]string(nil), agg.providers...),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].MentionRate > rows[j].MentionRate
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	return rows, idx
}

// canonicalURLKey is the case-insensitive identity of a citation. Scheme and
// a leading www. are ignored so the same physical page cited with and without
// https:// lands on one row.
func canonicalURLKey(raw string) string {
	key := strings.ToLower(raw)
	key = strings.TrimPrefix(key, "https://")
	key = strings.TrimPrefix(key, "http://")
	return strings.TrimPrefix(key, "www.")
}

// observe folds one citation into the index. Merge policy for the descriptive
// fields is firstNonDefaultWins: a later observation may fill a field still at
// its default but never overwrites one already set.
func (idx *CitationIndex) observe(provider string, c models.Citation) {
	key := canonicalURLKey(c.URL)

	agg, seen := idx.byKey[key]
	if !seen {
		agg = &aggregatedCitation{
			key:         key,
			url:         c.URL,
			category:    defaultCategory,
			accessible:  true,
			providerSet: make(map[string]bool),
			order:       len(idx.keys),
		}
		idx.keys = append(idx.keys, key)
		idx.byKey[key] = agg
	}

	if agg.domain == "" {
		if c.Domain != "" {
			agg.domain = NormalizeDomain(c.Domain)
		} else {
			agg.domain = NormalizeDomain(key)
		}
	}
	if agg.category == defaultCategory && c.Category != "" && c.Category != defaultCategory {
		agg.category = c.Category
	}
	if !agg.accessSet && c.IsAccessible != nil {
		agg.accessible = *c.IsAccessible
		agg.accessSet = true
	}
	if agg.anchorText == "" {
		agg.anchorText = c.AnchorText
	}
	if agg.context == "" {
		agg.context = c.Context
	}
	agg.isOurs = agg.isOurs || c.IsOurDomain

	if !agg.providerSet[provider] {
		agg.providerSet[provider] = true
		agg.providers = append(agg.providers, provider)
	}
	if c.Position > 0 {
		agg.positions = append(agg.positions, c.Position)
	}
}

// resolvedPosition is the first observed position, or the row's 1-based
// insertion index when no provider ever reported one.
func (a *aggregatedCitation) resolvedPosition(insertionIdx int) int {
	if len(a.positions) > 0 {
		return a.positions[0]
	}
	return insertionIdx + 1
}

// detailsFor returns the citation details for a brand mentioned by the given
// providers: every aggregated citation whose citing providers intersect the
// brand's, in insertion order, capped at MaxCitationDetails. The boolean count
// returned is the uncapped match count.
func (idx *CitationIndex) detailsFor(providers map[string]bool, sentiment string) ([]models.CitationDetail, int) {
	var details []models.CitationDetail
	matched := 0
	for i, key := range idx.keys {
		agg := idx.byKey[key]
		if !intersects(agg.providerSet, providers) {
			continue
		}
		matched++
		if len(details) >= MaxCitationDetails {
			continue
		}
		details = append(details, models.CitationDetail{
			URL:          agg.url,
			Domain:       agg.domain,
			Category:     agg.category,
			IsAccessible: agg.accessible,
			Sentiment:    sentiment,
			Position:     agg.resolvedPosition(i),
		})
	}
	return details, matched
}

func intersects(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

// sortedProviders fixes the accumulation order: Go map iteration is
// randomized, and tie-breaking in both tables depends on insertion order.
func sortedProviders(results map[string]models.ProviderResult) []string {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ratePercent converts a provider count into a rounded 0-100 percentage.
func ratePercent(citing, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(citing) / float64(total) * 100))
}
