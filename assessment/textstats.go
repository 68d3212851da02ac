package assessment

import (
	"math"
	"strings"
)

const shingleSize = 8

// mattr is the moving-average type/token ratio over windows of n words with
// half-window stride. Shorter texts use the plain ratio.
func mattr(words []string, n int) float64 {
	if len(words) == 0 {
		return 0
	}
	if len(words) <= n {
		return typeTokenRatio(words)
	}
	sum, count := 0.0, 0
	for i := 0; i+n <= len(words); i += n / 2 {
		sum += typeTokenRatio(words[i : i+n])
		count++
	}
	return sum / float64(count)
}

func typeTokenRatio(words []string) float64 {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}

func meanStd(values []float64) (mean, sd float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if len(values) == 1 {
		return mean, 0
	}
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}

func shingles(words []string, n int) map[string]struct{} {
	out := map[string]struct{}{}
	for i := 0; i+n <= len(words); i++ {
		out[strings.Join(words[i:i+n], " ")] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

func maxOverlap(words []string, references []string) float64 {
	own := shingles(words, shingleSize)
	best := 0.0
	for _, ref := range references {
		if j := jaccard(own, shingles(Parse(ref).Words, shingleSize)); j > best {
			best = j
		}
	}
	return best
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp100(v float64) float64 {
	return 100 * clamp01(v/100)
}

func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return clamp01(a / b)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
