package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateTransition(t *testing.T) {
	legal := map[Status][]Status{
		StatusActive: {StatusPaused, StatusTerminated},
		StatusPaused: {StatusActive, StatusTerminated},
	}
	all := []Status{StatusActive, StatusPaused, StatusTerminated}

	for _, from := range all {
		for _, to := range all {
			allowed := false
			for _, ok := range legal[from] {
				if ok == to {
					allowed = true
				}
			}
			err := ValidateTransition(from, to)
			if allowed {
				require.NoError(t, err, "%s -> %s", from, to)
			} else {
				require.ErrorIs(t, err, ErrIllegalStatusTransition, "%s -> %s", from, to)
			}
		}
	}
}

func TestActorFilter(t *testing.T) {
	f, err := Actor{ID: "c", Role: RoleClient}.Filter()
	require.NoError(t, err)
	require.Equal(t, ListFilter{ClientID: "c"}, f)

	f, err = Actor{Role: RoleAdmin}.Filter()
	require.NoError(t, err)
	require.Equal(t, ListFilter{}, f)

	_, err = Actor{Role: RoleFreelancer}.Filter()
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseRole("owner")
	require.ErrorIs(t, err, ErrInvalidRole)
}
