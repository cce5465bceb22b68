package detector

import "github.com/anime-shed/forgery-inspector-go/internal/format"

// SelectRecipe returns the detectors to run for f, in execution order.
// Error-level analysis only applies to jpeg; unknown formats get the full set.
func SelectRecipe(f format.Format) []Name {
	recipe := make([]Name, 0, len(AllNames))
	for _, name := range AllNames {
		if name == ELA && !f.Lossy() && f != format.Unknown {
			continue
		}
		recipe = append(recipe, name)
	}
	return recipe
}
