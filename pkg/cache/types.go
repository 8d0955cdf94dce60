package cache

import (
	"crypto/sha256"
	"fmt"
)

// CacheKey identifies a full-dataset loss.
type CacheKey string

// GenerateKey builds a key from the dataset, a fingerprint of the scoring
// options, the tree's canonical string and whether the regularization term
// is included.
func GenerateKey(datasetID, options, expression string, regularized bool) CacheKey {
	hash := sha256.Sum256([]byte(options + "\x00" + expression))
	return CacheKey(fmt.Sprintf("%s/%x/%t", datasetID, hash, regularized))
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	MaxSize int `json:"max_size" yaml:"max_size"` // Maximum number of entries
}

// DefaultCacheConfig returns a default cache configuration
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MaxSize: 4096,
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	HitRate float64 `json:"hit_rate"`
}

// CalculateHitRate calculates the hit rate
func (s *CacheStats) CalculateHitRate() {
	total := s.Hits + s.Misses
	if total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	} else {
		s.HitRate = 0.0
	}
}
