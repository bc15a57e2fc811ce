package batchcorr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubstituteWindow(t *testing.T) {
	template := "INSERT INTO alerts_raw SELECT * FROM events WHERE event_time > now() - interval '{WINDOW_S} seconds'"
	got := substituteWindow(template, 300)
	require.Equal(t, "INSERT INTO alerts_raw SELECT * FROM events WHERE event_time > now() - interval '300 seconds'", got)
}

func TestSubstituteWindow_NoTokenIsUnchanged(t *testing.T) {
	require.Equal(t, "SELECT 1", substituteWindow("SELECT 1", 60))
}

func TestSubstituteWindow_MultipleTokens(t *testing.T) {
	got := substituteWindow("{WINDOW_S}-{WINDOW_S}", 45)
	require.Equal(t, "45-45", got)
}
