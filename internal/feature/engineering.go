package feature

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ZScore normalizes a batch per feature using population mean and
// standard deviation. A zero std is treated as 1 so constant features
// pass through as zeros instead of dividing by zero. The returned stats
// are persisted with the model and reapplied at inference time.
func ZScore(batch [][]float64) (normalized [][]float64, means, stds []float64) {
	if len(batch) == 0 {
		return nil, nil, nil
	}
	dim := len(batch[0])
	means = make([]float64, dim)
	stds = make([]float64, dim)

	column := make([]float64, len(batch))
	for j := 0; j < dim; j++ {
		for i := range batch {
			column[i] = batch[i][j]
		}
		mean := stat.Mean(column, nil)
		variance := 0.0
		for _, v := range column {
			d := v - mean
			variance += d * d
		}
		variance /= float64(len(column))
		std := math.Sqrt(variance)
		if std == 0 {
			std = 1
		}
		means[j] = mean
		stds[j] = std
	}

	normalized = make([][]float64, len(batch))
	for i, row := range batch {
		out := make([]float64, dim)
		for j := 0; j < dim; j++ {
			out[j] = (row[j] - means[j]) / stds[j]
		}
		normalized[i] = out
	}
	return normalized, means, stds
}

// ApplyZScore normalizes a single vector with previously fitted stats.
func ApplyZScore(vec, means, stds []float64) []float64 {
	out := make([]float64, len(vec))
	for i := range vec {
		if i < len(means) && i < len(stds) && stds[i] != 0 {
			out[i] = (vec[i] - means[i]) / stds[i]
		} else {
			out[i] = vec[i]
		}
	}
	return out
}

// BuildVocabulary collects the label vocabulary for the multi-label
// classifier: the max most frequent labels across the sample label sets,
// with ties broken by first-seen order so the result is stable.
func BuildVocabulary(labelSets [][]string, max int) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, labels := range labelSets {
		for _, label := range labels {
			if _, ok := counts[label]; !ok {
				firstSeen[label] = order
				order++
			}
			counts[label]++
		}
	}

	vocab := make([]string, 0, len(counts))
	for label := range counts {
		vocab = append(vocab, label)
	}
	sort.SliceStable(vocab, func(i, j int) bool {
		if counts[vocab[i]] != counts[vocab[j]] {
			return counts[vocab[i]] > counts[vocab[j]]
		}
		return firstSeen[vocab[i]] < firstSeen[vocab[j]]
	})

	if max > 0 && len(vocab) > max {
		vocab = vocab[:max]
	}
	return vocab
}

// LabelsToVector encodes a label set as a multi-hot vector over the
// vocabulary. Output length always equals len(vocab); unknown labels
// are dropped.
func LabelsToVector(labels []string, vocab []string) []float64 {
	index := make(map[string]int, len(vocab))
	for i, label := range vocab {
		index[label] = i
	}
	vec := make([]float64, len(vocab))
	for _, label := range labels {
		if i, ok := index[label]; ok {
			vec[i] = 1
		}
	}
	return vec
}

// SplitIndices shuffles 0..n-1 and carves off the validation fraction.
// The random source is injectable so tests can pin the shuffle; callers
// that want production nondeterminism pass a time-seeded source.
func SplitIndices(n int, validationFraction float64, rng *rand.Rand) (train, val []int) {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	valCount := int(float64(n) * validationFraction)
	if valCount < 1 && n > 1 && validationFraction > 0 {
		valCount = 1
	}
	return indices[valCount:], indices[:valCount]
}
