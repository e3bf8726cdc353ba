package query

import (
	"math"
	"sort"
	"strings"

	"librarian/internal/config"
	"librarian/internal/store"
)

// Rank scores candidate packs by lexical overlap, optional semantic
// cosine similarity, and affected-file proximity, then breaks ties
// lexicographically by pack id when deterministic is set (spec §4.4 step 4).
func Rank(packs []store.ContextPack, tokens []string, affectedFiles []string, weights config.RankWeights, semantic map[string][]float32, intentVec []float32, deterministic bool) []RankedPack {
	affected := map[string]bool{}
	for _, f := range affectedFiles {
		affected[f] = true
	}

	ranked := make([]RankedPack, 0, len(packs))
	for _, p := range packs {
		lexical := lexicalScore(p, tokens)
		sem := 0.0
		if vec, ok := semantic[p.TargetID]; ok && len(intentVec) > 0 {
			sem = cosine(vec, intentVec)
		}
		proximity := proximityScore(p, affected)
		score := weights.Lexical*lexical + weights.Semantic*sem + weights.Proximity*proximity
		ranked = append(ranked, RankedPack{Pack: p, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if deterministic {
			return ranked[i].Pack.PackID < ranked[j].Pack.PackID
		}
		return false
	})
	return ranked
}

func lexicalScore(p store.ContextPack, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	haystack := strings.ToLower(p.Summary + " " + p.TargetID + " " + strings.Join(p.KeyFacts, " "))
	hits := 0
	for _, t := range tokens {
		if strings.Contains(haystack, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

func proximityScore(p store.ContextPack, affected map[string]bool) float64 {
	if len(affected) == 0 {
		return 0
	}
	for _, f := range p.RelatedFiles {
		if affected[f] {
			return 1
		}
	}
	return 0
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// EmbeddingCoverage returns the fraction of modules carrying a non-empty
// embedding (spec §4.4 step 3 threshold check).
func EmbeddingCoverage(st *store.Store) (float64, error) {
	modules, err := st.GetModules()
	if err != nil {
		return 0, err
	}
	if len(modules) == 0 {
		return 0, nil
	}
	covered := 0
	for _, m := range modules {
		vec, err := st.GetEmbedding(m.Path)
		if err != nil {
			continue
		}
		if len(vec) > 0 {
			covered++
		}
	}
	return float64(covered) / float64(len(modules)), nil
}
