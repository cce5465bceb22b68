package evaluation

import "github.com/anime-shed/forgery-inspector-go/internal/classifier"

// Confusion counts predictions against ground truth for one profile.
// Forged is the positive class.
type Confusion struct {
	TP int `json:"tp" yaml:"tp"`
	FP int `json:"fp" yaml:"fp"`
	FN int `json:"fn" yaml:"fn"`
	TN int `json:"tn" yaml:"tn"`
}

// Add records one prediction.
func (c *Confusion) Add(predicted, truth classifier.Classification) {
	switch {
	case predicted == classifier.Forged && truth == classifier.Forged:
		c.TP++
	case predicted == classifier.Forged:
		c.FP++
	case truth == classifier.Forged:
		c.FN++
	default:
		c.TN++
	}
}

func (c Confusion) Total() int {
	return c.TP + c.FP + c.FN + c.TN
}

// Precision is TP/(TP+FP), or 0 when nothing was flagged.
func (c Confusion) Precision() float64 {
	return ratio(c.TP, c.TP+c.FP)
}

// Recall is TP/(TP+FN), or 0 when there were no forgeries.
func (c Confusion) Recall() float64 {
	return ratio(c.TP, c.TP+c.FN)
}

// Accuracy is (TP+TN)/total, or 0 for an empty run.
func (c Confusion) Accuracy() float64 {
	return ratio(c.TP+c.TN, c.Total())
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
