package stats

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// CharEntropy computes the Shannon entropy, in bits, of the character
// distribution across the given text samples. Samples are joined with a
// single space before counting so that multi-sample input behaves like one
// combined corpus.
//
// Higher entropy means more diverse output; lower entropy means more
// repetitive output. Empty input and single-symbol input both yield 0.
func CharEntropy(samples []string) float64 {
	if len(samples) == 0 {
		return 0
	}

	text := strings.Join(samples, " ")
	if text == "" {
		return 0
	}

	freq := make(map[rune]int)
	total := 0
	for _, r := range text {
		freq[r]++
		total++
	}

	counts := make([]int, 0, len(freq))
	for _, c := range freq {
		counts = append(counts, c)
	}
	return entropyBits(counts, total)
}

// WordEntropy computes the Shannon entropy, in bits, of the word
// distribution across the given text samples. Words are whitespace
// delimited and lower-cased before counting, so "Fox" and "fox" count as
// the same symbol.
func WordEntropy(samples []string) float64 {
	if len(samples) == 0 {
		return 0
	}

	freq := make(map[string]int)
	total := 0
	for _, sample := range samples {
		for _, word := range strings.Fields(strings.ToLower(sample)) {
			freq[word]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	counts := make([]int, 0, len(freq))
	for _, c := range freq {
		counts = append(counts, c)
	}
	return entropyBits(counts, total)
}

// entropyBits converts a frequency table into a probability distribution
// and returns its Shannon entropy in bits.
func entropyBits(counts []int, total int) float64 {
	if total == 0 || len(counts) <= 1 {
		return 0
	}

	probs := make([]float64, 0, len(counts))
	for _, count := range counts {
		probs = append(probs, float64(count)/float64(total))
	}

	// stat.Entropy uses the natural logarithm; convert nats to bits.
	return stat.Entropy(probs) / math.Ln2
}

// Mean returns the arithmetic mean of xs, or 0 for empty input.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// StdDev returns the sample standard deviation of xs, or 0 when fewer
// than two values are present.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}
