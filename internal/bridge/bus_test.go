package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_DeliversOnAllowedChannels(t *testing.T) {
	b := New(nil)
	var got []any
	off := b.On("theme-changed", func(p any) { got = append(got, p) })

	b.Emit("theme-changed", "dark")
	off()
	b.Emit("theme-changed", "light")

	assert.Equal(t, []any{"dark"}, got)
}

func TestBus_DropsUnauthorizedChannels(t *testing.T) {
	b := New(nil)
	called := false

	off := b.On("shell-exec", func(any) { called = true })
	assert.NotNil(t, off)
	assert.NotPanics(t, off)
	assert.NotPanics(t, func() { b.Emit("shell-exec", "rm -rf /") })
	assert.False(t, called)
	assert.False(t, b.Allowed("shell-exec"))
}

func TestBus_OffRemovesAllListeners(t *testing.T) {
	b := New(nil, "a", "b")
	count := 0
	b.On("a", func(any) { count++ })
	b.On("a", func(any) { count++ })
	b.On("b", func(any) { count++ })

	b.Emit("a", nil)
	assert.Equal(t, 2, count)

	b.Off("a")
	b.Emit("a", nil)
	b.Emit("b", nil)
	assert.Equal(t, 3, count)
	assert.False(t, b.Allowed("notification"), "custom allow-list replaces the default")
}
