package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInPlaceFilter(t *testing.T) {
	values := []int{1, 2, 3, 4, 5, 6}

	InPlaceFilter(&values, func(v int) bool { return v%2 == 0 })

	assert.Equal(t, []int{2, 4, 6}, values)
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
	assert.Empty(t, SortedKeys(map[string]bool{}))
}

func TestTimeFromMillis(t *testing.T) {
	assert.Equal(t, time.Date(2023, 3, 15, 17, 27, 14, 0, time.UTC), TimeFromMillis(1678901234000))
}

func TestGetEnvironmentVariables(t *testing.T) {
	t.Setenv("TRAJFUSION_TEST_VALUE", "a=b")

	assert.Equal(t, "a=b", GetEnvironmentVariables()["TRAJFUSION_TEST_VALUE"])
}
