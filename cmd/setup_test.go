package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYears(t *testing.T) {
	years, err := parseYears(" 2024, 2025 ,")
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2025}, years)

	years, err = parseYears("")
	require.NoError(t, err)
	assert.Empty(t, years)

	_, err = parseYears("2024, next")
	assert.Error(t, err)
}

func TestJoinYears(t *testing.T) {
	assert.Equal(t, "2024, 2025", joinYears([]int{2024, 2025}))
	assert.Equal(t, "", joinYears(nil))
}

func TestValidateTablePath(t *testing.T) {
	assert.Error(t, validateTablePath(true)(""))
	assert.NoError(t, validateTablePath(false)(" "))
	assert.Error(t, validateTablePath(false)("/nonexistent/table.csv"))
}
