package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_Defaults(t *testing.T) {
	b := New("notify")
	assert.Equal(t, "notify", b.Name())
	assert.Equal(t, StateClosed, b.State())

	for i := 0; i < defaultFailureThreshold-1; i++ {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen())
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	for i := 0; i < defaultSuccessThreshold; i++ {
		b.RecordSuccess()
	}
	assert.False(t, b.IsOpen())
}

// TestBreaker_Scenarios scripts sequences of outcomes the way a sink driving
// the breaker would see them: 'F' is a failed send, 'S' a successful one.
func TestBreaker_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		successes  int
		script     string
		wantOpen   bool
		wantOpens  int
		wantCloses int
	}{
		{
			name:     "opens only at the failure threshold",
			failures: 3, successes: 2,
			script:   "FFF",
			wantOpen: true, wantOpens: 1,
		},
		{
			name:     "success midway restarts the failure streak",
			failures: 3, successes: 2,
			script:   "FFSFF",
			wantOpen: false,
		},
		{
			name:     "recovery needs consecutive successes",
			failures: 1, successes: 2,
			script:   "FSS",
			wantOpen: false, wantOpens: 1, wantCloses: 1,
		},
		{
			name:     "failure midway restarts the success streak",
			failures: 1, successes: 3,
			script:   "FSSFSS",
			wantOpen: true, wantOpens: 1,
		},
		{
			name:     "flapping primary reopens after recovery",
			failures: 2, successes: 1,
			script:   "FFSFF",
			wantOpen: true, wantOpens: 2, wantCloses: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("notify",
				WithFailureThreshold(tt.failures),
				WithSuccessThreshold(tt.successes))

			var opens, closes int
			for _, op := range tt.script {
				var change Change
				if op == 'F' {
					_, change = b.RecordFailure()
				} else {
					_, change = b.RecordSuccess()
				}
				if change.Opened {
					opens++
				}
				if change.Closed {
					closes++
				}
			}

			assert.Equal(t, tt.wantOpen, b.IsOpen())
			assert.Equal(t, tt.wantOpens, opens, "open transitions")
			assert.Equal(t, tt.wantCloses, closes, "close transitions")
		})
	}
}

// An open breaker routes every send to the fallback but reports the open
// transition only once, so a wrapping sink logs a single degradation event.
func TestBreaker_OpenTransitionReportedOnce(t *testing.T) {
	b := New("notify", WithFailureThreshold(1))

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	for i := 0; i < 3; i++ {
		useFallback, change = b.RecordFailure()
		assert.True(t, useFallback)
		assert.False(t, change.Opened)
	}
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_ResetForcesClosed(t *testing.T) {
	b := New("notify", WithFailureThreshold(1), WithSuccessThreshold(5))
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	// Reset skips the success-streak requirement entirely.
	b.Reset()
	assert.Equal(t, StateClosed, b.State())

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.False(t, change.Closed)
}

func TestBreaker_OptionsIgnoreNonPositiveThresholds(t *testing.T) {
	b := New("notify", WithFailureThreshold(0), WithSuccessThreshold(-1))
	assert.Equal(t, defaultFailureThreshold, b.failureThreshold)
	assert.Equal(t, defaultSuccessThreshold, b.successThreshold)
}
