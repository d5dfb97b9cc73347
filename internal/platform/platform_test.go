package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowsName(t *testing.T) {
	tests := []struct {
		major, minor, build uint32
		want                string
	}{
		{10, 0, 22631, "Windows 11 (Build 22631)"},
		{10, 0, 19045, "Windows 10 (Build 19045)"},
		{6, 3, 9600, "Windows 8.1 (Build 9600)"},
		{6, 1, 7601, "Windows 7 (Build 7601)"},
		{5, 1, 2600, "Windows 5.1 (Build 2600)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, windowsName(tt.major, tt.minor, tt.build))
	}
}

func TestVersionNotEmpty(t *testing.T) {
	assert.NotEmpty(t, Version())
}
