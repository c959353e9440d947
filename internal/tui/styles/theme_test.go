package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rendis/mealspin/internal/model"
)

func TestEveryCategoryHasAColor(t *testing.T) {
	for _, c := range model.Categories {
		if c == model.CategoryOther {
			continue
		}
		_, ok := categoryColors[c]
		assert.True(t, ok, "no color for %s", c)
	}
}

func TestCategoryTagDelivery(t *testing.T) {
	tag := CategoryTag(model.CategoryKorean, model.KindDelivery)
	assert.Equal(t, KindTag.GetForeground(), tag.GetForeground())

	tag = CategoryTag(model.CategoryOther, model.KindMap)
	assert.Equal(t, Muted, tag.GetForeground())
}
