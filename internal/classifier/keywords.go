package classifier

import (
	"sort"
	"unicode/utf8"

	"purchase-drivers/internal/models"
	"purchase-drivers/internal/tokenizer"
)

// TopKeywords returns the n most frequent tokens of at least minRunes runes
// across fragments. Ties keep the order in which tokens were first seen.
func TopKeywords(tok *tokenizer.Tokenizer, fragments []string, minRunes, n int) []models.KeywordCount {
	freq := map[string]int{}
	var order []string
	for _, f := range fragments {
		for _, t := range tok.Tokenize(f) {
			if utf8.RuneCountInString(t) < minRunes {
				continue
			}
			if _, seen := freq[t]; !seen {
				order = append(order, t)
			}
			freq[t]++
		}
	}

	list := make([]models.KeywordCount, 0, len(order))
	for _, t := range order {
		list = append(list, models.KeywordCount{Token: t, Count: freq[t]})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Count > list[j].Count
	})
	if n >= 0 && n < len(list) {
		list = list[:n]
	}
	return list
}
