package classification

import (
	"time"

	"github.com/Veraticus/holdscan/internal/model"
	"github.com/patrickmn/go-cache"
)

// CachedClassifier memoizes another classifier by name and code.
type CachedClassifier struct {
	next  Classifier
	cache *cache.Cache
}

// NewCachedClassifier wraps next with an in-memory cache whose entries expire after ttl.
// A ttl of zero keeps entries forever.
func NewCachedClassifier(next Classifier, ttl time.Duration) *CachedClassifier {
	expiry := ttl
	if expiry == 0 {
		expiry = cache.NoExpiration
	}
	return &CachedClassifier{
		next:  next,
		cache: cache.New(expiry, 10*time.Minute),
	}
}

// Classify implements Classifier.
func (c *CachedClassifier) Classify(name, code string) model.TaxonomyPath {
	key := name + "\x00" + code
	if v, ok := c.cache.Get(key); ok {
		if path, ok := v.(model.TaxonomyPath); ok {
			return path
		}
	}

	path := c.next.Classify(name, code)
	c.cache.SetDefault(key, path)
	return path
}

// Len returns the number of cached entries.
func (c *CachedClassifier) Len() int {
	return c.cache.ItemCount()
}
