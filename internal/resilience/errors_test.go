package resilience

import (
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", eris.New("bad input"), false},
		{"transient wrapper", NewTransientError(eris.New("rate limited"), 429), true},
		{"wrapped transient", eris.Wrap(NewTransientError(eris.New("overloaded"), 529), "claude call"), true},
		{"conn reset", syscall.ECONNRESET, true},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"message heuristic", eris.New("Get \"x\": read tcp: connection reset by peer"), true},
		{"io timeout message", eris.New("dial tcp: i/o timeout"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := eris.New("server error")
	te := NewTransientError(inner, 503)
	assert.Equal(t, "server error", te.Error())
	assert.Equal(t, inner, te.Unwrap())
	assert.Equal(t, 503, te.StatusCode)
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504, 529} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 201, 301, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
