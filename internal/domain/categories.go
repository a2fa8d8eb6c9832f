package domain

// Categories is the fixed set of expense categories shared by the
// categorizer, the predictor and the advice generator. The order is
// load-bearing: prediction vectors and persisted model outputs are indexed
// by position in this slice.
var Categories = []string{
	"food",
	"transportation",
	"shopping",
	"entertainment",
	"utilities",
	"healthcare",
	"education",
	"travel",
	"insurance",
	"other",
}

// CategoryIndex returns the position of cat in Categories, or -1 when cat is
// not one of the fixed categories.
func CategoryIndex(cat string) int {
	for i, c := range Categories {
		if c == cat {
			return i
		}
	}
	return -1
}

// IsKnownCategory reports whether cat belongs to the fixed category set.
func IsKnownCategory(cat string) bool {
	return CategoryIndex(cat) >= 0
}
