package config

// CategoryWeights orders command categories in help output.
var CategoryWeights = map[string]int{
	"Information": 0,
	"Utilities":   10,
	"Moderation":  20,
	"Cleanup":     30,
}

// CategoryWeight returns the sort weight of a category; unknown ones sort last.
func CategoryWeight(category string) int {
	if w, ok := CategoryWeights[category]; ok {
		return w
	}
	return 1000
}
