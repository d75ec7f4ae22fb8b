package panics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverReportsAndExits(t *testing.T) {
	var out bytes.Buffer
	code := -1
	h := &Handler{
		SupportURL: "https://example.com/support",
		Version:    "1.2.3-abcdef0",
		Out:        &out,
		Exit:       func(c int) { code = c },
	}

	func() {
		defer h.Recover()
		panic("storage corrupted")
	}()

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "storage corrupted")
	assert.Contains(t, out.String(), "https://example.com/support")
	assert.Contains(t, out.String(), "Version: 1.2.3-abcdef0")
	assert.Contains(t, out.String(), "goroutine")
}

func TestRecoverWithoutPanic(t *testing.T) {
	var out bytes.Buffer
	exited := false
	h := &Handler{Out: &out, Exit: func(int) { exited = true }}

	func() {
		defer h.Recover()
	}()

	assert.False(t, exited)
	assert.Empty(t, out.String())
}
