package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"testing"
)

// ============================================================================
// Conversion Benchmarks
// ============================================================================

// BenchmarkParseManaValue benchmarks the only numeric conversion per row.
func BenchmarkParseManaValue(b *testing.B) {
	testCases := []string{"0", "3", "3.0", "  7.0 ", "0.5", "1000000"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseManaValue(tc)
		}
	}
}

// BenchmarkBuildCard benchmarks record construction from a raw row.
func BenchmarkBuildCard(b *testing.B) {
	row := sampleRow()

	b.Run("Unescape", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			BuildCard(row, BuildOptions{UnescapeText: true})
		}
	})

	b.Run("Raw", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			BuildCard(row, BuildOptions{})
		}
	})
}

// ============================================================================
// Streaming Benchmarks
// ============================================================================

// BenchmarkRowReader benchmarks reading a source through the full decode chain.
func BenchmarkRowReader(b *testing.B) {
	data := generateTestCSV(1000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		src, _ := WrapForStreaming(bytes.NewReader(data), int64(len(data)))
		r, err := NewRowReader(src)
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, err := r.Next(); err == io.EOF {
				break
			} else if err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkIdentifierIndex_Contains benchmarks dedup lookups against a large index.
func BenchmarkIdentifierIndex_Contains(b *testing.B) {
	ids := make([]string, 100000)
	for i := range ids {
		ids[i] = "id-" + strconv.Itoa(i)
	}
	index := NewIdentifierIndex(ids...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		index.Contains(ids[i%len(ids)])
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

// discardPersister accepts every batch.
type discardPersister struct{}

func (discardPersister) PersistBatch(context.Context, []Card) error { return nil }

// BenchmarkBatchCommitter compares flushing with and without the forced
// memory reclaim step.
func BenchmarkBatchCommitter(b *testing.B) {
	card := Card{UUID: "a1", Name: "Serra Angel", Text: "Flying"}

	for _, reclaim := range []bool{false, true} {
		b.Run(fmt.Sprintf("reclaim=%v", reclaim), func(b *testing.B) {
			c := NewBatchCommitter(discardPersister{}, DefaultBatchSize, WithReclaim(reclaim))
			ctx := context.Background()

			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				c.Add(ctx, card)
			}
		})
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateTestCSV generates a card CSV with the specified number of rows.
func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	// Header
	w.Write(CardColumns)

	// Data rows
	for i := 0; i < rows; i++ {
		w.Write([]string{
			"card-" + strconv.Itoa(i),
			"4.0",
			"{2}{W}{W}",
			"Serra Angel",
			"uncommon",
			"LEA",
			"Angel",
			`Flying\nVigilance`,
			"Creature",
		})
	}
	w.Flush()

	return buf.Bytes()
}
