package docqa

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// embedDims is the fixed width of hashEmbed's output vector.
const embedDims = 256

// hashEmbed is a zero-dependency, zero-infrastructure embedding function:
// a normalized hashed bag-of-words vector (the "hashing trick"). It is
// what lets Store run entirely offline with no embedding API key, the
// same zero-config goal hector's vector.ChromemProvider doc comment
// states for chromem itself, extended one step further since this
// collaborator also has no external embedder component to delegate to.
// It is not meant to compete with a real sentence embedding model on
// retrieval quality; docqa/'s Non-goal is exactly that tradeoff.
func hashEmbed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, embedDims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%embedDims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec, nil
}
