package roster

// Ordering utilities
//
// The position index is a ZSET where:
// - Key: roster:{instance_name}:positions
// - Members: the decimal position
// - Score: the position (as float64)
//
// ZRANGE over the index yields entries in ascending position order, which is
// the single source of truth for display order.

// MaxPosition is the largest magnitude a position may have. ZSET scores are
// float64, so integers beyond 2^53 would lose precision.
const MaxPosition = 1<<53 - 1

// PositionScore converts a position to a Redis ZSET score.
func PositionScore(position int) float64 {
	return float64(position)
}

// PositionFromScore converts a Redis ZSET score back to a position.
func PositionFromScore(score float64) int {
	return int(score)
}
