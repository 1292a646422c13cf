package values

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "x", String("x"))
	assert.Empty(t, String(1))
	assert.Empty(t, String(nil))
}

func TestInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{42, 42},
		{int64(7), 7},
		{2.9, 2},
		{" 12 ", 12},
		{"twelve", 0},
		{true, 0},
		{nil, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Int(tt.in), "%#v", tt.in)
	}
}

func TestFloat(t *testing.T) {
	assert.InDelta(t, 1.5, Float(1.5), 1e-9)
	assert.InDelta(t, 3.0, Float(3), 1e-9)
	assert.InDelta(t, 4.0, Float(int64(4)), 1e-9)
	assert.InDelta(t, 0.25, Float("0.25"), 1e-9)
	assert.Zero(t, Float("abc"))
	assert.Zero(t, Float([]any{}))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, Duration("90s"))
	assert.Equal(t, 3*time.Minute, Duration(3*time.Minute))
	assert.Equal(t, time.Hour, Duration(" 1h "))
	assert.Zero(t, Duration("soon"))
	assert.Zero(t, Duration(int64(60)))
}

func TestBool(t *testing.T) {
	assert.True(t, Bool(true))
	assert.True(t, Bool("true"))
	assert.True(t, Bool("1"))
	assert.False(t, Bool("yes"))
	assert.False(t, Bool(1))
}

func TestStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a"}, StringSlice([]string{"a"}))
	assert.Equal(t, []string{"a", "b"}, StringSlice([]any{"a", 1, "b"}))
	assert.Equal(t, []string{".git", "node_modules"}, StringSlice(".git, node_modules,"))
	assert.Nil(t, StringSlice(""))
	assert.Nil(t, StringSlice(5))
}
