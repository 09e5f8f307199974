package instance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	testCases := []struct {
		name      string
		inputName string
		errMsg    string
	}{
		{name: "default instance", inputName: DefaultName},
		{name: "hyphenated", inputName: "blacklist-prod"},
		{name: "digits only", inputName: "42"},
		{name: "single character", inputName: "r"},
		{name: "empty", inputName: "", errMsg: "cannot be empty"},
		{name: "uppercase", inputName: "Prod", errMsg: "must be lowercase"},
		{name: "leading hyphen", inputName: "-prod", errMsg: "must be lowercase"},
		{name: "trailing hyphen", inputName: "prod-", errMsg: "must be lowercase"},
		{name: "colon would break key layout", inputName: "prod:1", errMsg: "must be lowercase"},
		{name: "too long", inputName: strings.Repeat("a", MaxNameLength+1), errMsg: "too long"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.inputName)
			if tc.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.errMsg)
		})
	}
}

func TestValidateName_MaxLength(t *testing.T) {
	assert.NoError(t, ValidateName(strings.Repeat("a", MaxNameLength)))
}

func TestDefaultRedisURL(t *testing.T) {
	url := DefaultRedisURL()
	assert.True(t, strings.HasPrefix(url, "redis://"))
	assert.True(t, strings.HasSuffix(url, ":6379"))
}
