package textutil

import "sort"

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Suggest returns up to limit candidates whose similarity to query is at
// least minScore, best first. Ties keep candidate order.
func Suggest(query string, candidates []string, limit int, minScore float64) []string {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}
	corpus := NewCorpus()
	prints := make([]*Fingerprint, len(candidates))
	for i, c := range candidates {
		prints[i] = NewFingerprint(c)
		corpus.Add(prints[i])
	}
	idf := corpus.IDF()
	q := NewFingerprint(query).WithIDF(idf)
	if q == nil {
		return nil
	}

	type scored struct {
		index int
		score float64
	}
	var ranked []scored
	for i, fp := range prints {
		score := CosineSimilarity(q, fp.WithIDF(idf))
		if score >= minScore && score > 0 {
			ranked = append(ranked, scored{index: i, score: score})
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = candidates[r.index]
	}
	return out
}
