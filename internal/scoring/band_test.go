package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandFromCorrect(t *testing.T) {
	tests := []struct {
		correct int
		variant Variant
		want    float64
	}{
		{40, VariantReading, 9},
		{39, VariantReading, 9},
		{38, VariantReading, 8.5},
		{30, VariantReading, 7},
		{20, VariantReading, 5.5},
		{18, VariantReading, 5},
		{26, VariantReading, 6},
		{1, VariantReading, 1},
		{0, VariantReading, 0},
		{-3, VariantReading, 0},

		{39, VariantListening, 9},
		{32, VariantListening, 7.5},
		{26, VariantListening, 6.5},
		{18, VariantListening, 5.5},
		{10, VariantListening, 3.5},
		{0, VariantListening, 0},
	}
	for _, tc := range tests {
		t.Run(string(tc.variant), func(t *testing.T) {
			assert.Equal(t, tc.want, BandFromCorrect(tc.correct, tc.variant), "correct=%d", tc.correct)
		})
	}
}

func TestBandTablesDiffer(t *testing.T) {
	differ := 0
	for c := 0; c <= 40; c++ {
		if BandFromCorrect(c, VariantReading) != BandFromCorrect(c, VariantListening) {
			differ++
		}
	}
	assert.Positive(t, differ)
}

func TestBandTablesDescend(t *testing.T) {
	for _, table := range [][]threshold{readingBands, listeningBands} {
		for i := 1; i < len(table); i++ {
			assert.Less(t, table[i].min, table[i-1].min)
			assert.Less(t, table[i].band, table[i-1].band)
		}
	}
}

func TestParseVariant(t *testing.T) {
	assert.Equal(t, VariantListening, ParseVariant(" Listening "))
	assert.Equal(t, VariantReading, ParseVariant("reading"))
	assert.Equal(t, VariantReading, ParseVariant(""))
}
