package scoring

// threshold maps a minimum raw correct count to a band.
type threshold struct {
	min  int
	band float64
}

// Band tables are kept literal to preserve the historical cut points. They
// are ordered by descending minimum.
var (
	readingBands = []threshold{
		{39, 9}, {37, 8.5}, {35, 8}, {33, 7.5}, {30, 7}, {27, 6.5},
		{23, 6}, {19, 5.5}, {15, 5}, {13, 4.5}, {10, 4}, {8, 3.5},
		{6, 3}, {4, 2.5}, {3, 2}, {2, 1.5}, {1, 1},
	}

	listeningBands = []threshold{
		{39, 9}, {37, 8.5}, {35, 8}, {32, 7.5}, {30, 7}, {26, 6.5},
		{23, 6}, {18, 5.5}, {16, 5}, {13, 4.5}, {11, 4}, {8, 3.5},
		{6, 3}, {4, 2.5}, {3, 2}, {2, 1.5}, {1, 1},
	}
)

const lowestBand = 0

// BandFromCorrect converts a raw correct count into a band using the table
// for variant.
func BandFromCorrect(correct int, variant Variant) float64 {
	table := readingBands
	if variant == VariantListening {
		table = listeningBands
	}
	for _, t := range table {
		if correct >= t.min {
			return t.band
		}
	}
	return lowestBand
}
