package progressbar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := NewManualProgressBar(&out, 10, 4)

	assert.Equal(t, 0.0, p.Progress())
	for i := 0; i < 6; i++ {
		p.Increment()
	}
	assert.Equal(t, 1.0, p.Progress())

	p.Display()
	p.Close()
	assert.Contains(t, out.String(), "100.00%")
	assert.Equal(t, 10, strings.Count(out.String(), "█"))
}

func TestManualProgressBarHalf(t *testing.T) {
	p := NewManualProgressBar(&bytes.Buffer{}, 8, 4)
	p.Increment()
	p.Increment()

	s := p.String()
	assert.Equal(t, 4, strings.Count(s, "█"))
	assert.Contains(t, s, "50.00%")
}
