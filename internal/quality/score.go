// Package quality scores a post's suitability as a whale discovery source.
// Scoring is pure: the same post always produces the same score.
package quality

import (
	"math"
	"strings"

	"github.com/whale-tracker/internal/models"
)

// positiveKeywords add 5 points each when present in the lower-cased
// concatenation of title and body.
var positiveKeywords = []string{
	"analysis",
	"research",
	"dd",
	"due diligence",
	"wallet",
	"address",
	"successful",
	"profitable",
	"alpha",
	"tracking",
}

// negativeKeywords subtract 10 points each.
var negativeKeywords = []string{
	"moon",
	"pump",
	"dump",
	"scam",
	"free money",
	"guaranteed",
	"easy money",
	"get rich",
	"lambo",
	"diamond hands",
}

// longPostLen is the text length above which a small substance bonus applies.
const longPostLen = 100

// Score computes the 0-100 quality score for a post.
func Score(post *models.Post) int {
	score := 0.0

	// Engagement terms. The upvote ratio contributes only when the
	// source reported one.
	if post.HasUpvoteRatio {
		score += post.UpvoteRatio * 20
	}
	if post.Score > 0 {
		score += math.Min(float64(post.Score)/10, 20)
	}
	if post.NumComments > 0 {
		score += math.Min(float64(post.NumComments)/5, 15)
	}

	text := strings.ToLower(post.Title + " " + post.Body)
	for _, kw := range positiveKeywords {
		if strings.Contains(text, kw) {
			score += 5
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(text, kw) {
			score -= 10
		}
	}

	if len(text) > longPostLen {
		score += 5
	}

	return clamp(int(math.Round(score)))
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
