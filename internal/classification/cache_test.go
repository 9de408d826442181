package classification

import (
	"testing"
	"time"

	"github.com/Veraticus/holdscan/internal/model"
	"github.com/stretchr/testify/assert"
)

type countingClassifier struct {
	calls int
}

func (c *countingClassifier) Classify(name, _ string) model.TaxonomyPath {
	c.calls++
	return model.TaxonomyPath{name, "x", "y"}
}

func TestCachedClassifier(t *testing.T) {
	inner := &countingClassifier{}
	cached := NewCachedClassifier(inner, time.Hour)

	assert.Equal(t, model.TaxonomyPath{"a", "x", "y"}, cached.Classify("a", "1"))
	assert.Equal(t, model.TaxonomyPath{"a", "x", "y"}, cached.Classify("a", "1"))
	assert.Equal(t, 1, inner.calls)

	cached.Classify("a", "2")
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, cached.Len())
}

func TestCachedClassifier_NoExpiry(t *testing.T) {
	cached := NewCachedClassifier(Default(), 0)
	assert.Equal(t, Default().Classify("沪深300ETF", ""), cached.Classify("沪深300ETF", ""))
	assert.Equal(t, 1, cached.Len())
}
