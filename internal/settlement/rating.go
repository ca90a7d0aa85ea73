package settlement

// ApplyRating folds a new rating into a weighted running average.
// A zero review count is the first review: the new rating becomes the
// average outright.
func ApplyRating(oldRating float64, oldReviewCount int, newRating int) (float64, int) {
	if oldReviewCount <= 0 {
		return float64(newRating), 1
	}
	count := oldReviewCount + 1
	avg := (oldRating*float64(oldReviewCount) + float64(newRating)) / float64(count)
	return avg, count
}
