package transport

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest(strings.NewReader(`{"jsonrpc":"2.0","method":"start_tracking","params":{"contract_id":"c1"},"id":7}`))
	require.NoError(t, err)
	require.Equal(t, "start_tracking", req.Method)
	require.JSONEq(t, `{"contract_id":"c1"}`, string(req.Params))
	require.False(t, req.IsNotification())
}

func TestParseRequest_Rejections(t *testing.T) {
	cases := map[string]struct {
		body string
		code int
	}{
		"truncated":     {`{"jsonrpc":`, ErrParseCode},
		"trailing":      {`{"jsonrpc":"2.0","method":"a","id":1} {"x":1}`, ErrParseCode},
		"wrong version": {`{"jsonrpc":"1.0","method":"a","id":1}`, ErrInvalidReq},
		"no method":     {`{"jsonrpc":"2.0","id":1}`, ErrInvalidReq},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRequest(strings.NewReader(tc.body))
			require.Error(t, err)
			require.Equal(t, tc.code, parseErrorCode(err))
		})
	}
}

func TestParseRequest_BodyLimit(t *testing.T) {
	big := `{"jsonrpc":"2.0","method":"a","params":"` + strings.Repeat("x", MaxRequestBytes) + `","id":1}`
	_, err := ParseRequest(bytes.NewBufferString(big))
	require.ErrorIs(t, err, errParse)
}

func TestParseRequest_Notification(t *testing.T) {
	req, err := ParseRequest(strings.NewReader(`{"jsonrpc":"2.0","method":"ping"}`))
	require.NoError(t, err)
	require.True(t, req.IsNotification())
}

func TestWriteDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, 4, codedErr{code: "NO_ACTIVE_SESSION"})

	require.Equal(t, 200, rec.Code)
	var out Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotNil(t, out.Error)
	require.Equal(t, ErrDomain, out.Error.Code)
	require.EqualValues(t, 4, out.ID)
}
