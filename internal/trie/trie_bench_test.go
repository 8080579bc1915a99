package trie

import (
	"math/rand"
	"strings"
	"testing"
)

func generateRandomNames(count, maxLength int) []string {
	names := make([]string, count)
	for i := range count {
		length := rand.Intn(maxLength) + 1
		parts := make([]string, length)
		for j := range length {
			parts[j] = string(rune('a' + rand.Intn(26)))
		}
		names[i] = strings.Join(parts, ".")
	}
	return names
}

func BenchmarkInsert(b *testing.B) {
	sizes := []struct {
		name      string
		count     int
		maxLength int
	}{
		{"Small", 100, 3},
		{"Medium", 1000, 5},
		{"Large", 10000, 8},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			names := generateRandomNames(size.count, size.maxLength)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				tr := New[int]()
				for j, name := range names {
					tr.Insert(name, j)
				}
			}
		})
	}
}

func BenchmarkLongestPrefix(b *testing.B) {
	names := generateRandomNames(1000, 5)
	tr := New[int]()
	for j, name := range names {
		tr.Insert(name, j)
	}
	queries := generateRandomNames(1000, 6)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, q := range queries {
			tr.LongestPrefix(q)
		}
	}
}
