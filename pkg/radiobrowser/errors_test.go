package radiobrowser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFromCode(t *testing.T) {
	tests := []struct {
		code   int
		want   Status
		failed bool
	}{
		{400, StatusBadRequest, true},
		{403, StatusForbidden, true},
		{404, StatusNotFound, true},
		{405, StatusMethodNotAllowed, true},
		{500, StatusServerError, true},
		{503, StatusServerError, true},
		{599, StatusServerError, true},
		{200, StatusNone, false},
		{204, StatusNone, false},
		{301, StatusNone, false},
		{401, StatusNone, false},
		{429, StatusNone, false},
		{600, StatusNone, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			got, failed := StatusFromCode(tt.code)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.failed, failed)
		})
	}
}

func TestMapClassification(t *testing.T) {
	var syntaxErr *json.SyntaxError
	err := json.Unmarshal([]byte("{"), &struct{}{})
	require.ErrorAs(t, err, &syntaxErr)

	_, typeErr := json.Marshal(make(chan int))

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "syntax", err: err, want: KindDecode},
		{name: "wrapped decode", err: fmt.Errorf("body: %w", &DecodeError{Err: errors.New("bad")}), want: KindDecode},
		{name: "unsupported type", err: typeErr, want: KindEncode},
		{name: "encode wrapper", err: &EncodeError{Err: errors.New("bad")}, want: KindEncode},
		{name: "canceled", err: context.Canceled, want: KindTransport},
		{name: "deadline", err: fmt.Errorf("get: %w", context.DeadlineExceeded), want: KindTransport},
		{name: "net", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, want: KindTransport},
		{name: "other", err: errors.New("boom"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Map(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestMapPassesErrorThrough(t *testing.T) {
	original := &Error{Kind: KindHTTPStatus, Status: StatusNotFound, StatusCode: 404}
	assert.Same(t, original, Map(original))
	assert.Same(t, original, Map(fmt.Errorf("wrapped: %w", original)))
	assert.Nil(t, Map(nil))
}

func TestErrorIsMatchesKindAndStatus(t *testing.T) {
	notFound := httpStatusError(404)
	require.NotNil(t, notFound)

	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.ErrorIs(t, notFound, &Error{Kind: KindHTTPStatus})
	assert.NotErrorIs(t, notFound, ErrServerError)
	assert.NotErrorIs(t, notFound, &Error{Kind: KindDecode})
	assert.True(t, notFound.IsNotFound())

	assert.Nil(t, httpStatusError(200))
	assert.Nil(t, httpStatusError(401))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "radiobrowser: not found (status 404)", httpStatusError(404).Error())
	assert.Equal(t, "radiobrowser: server error", ErrServerError.Error())
	assert.Equal(t, "radiobrowser: transport failure: refused",
		(&Error{Kind: KindTransport, Err: errors.New("refused")}).Error())
	assert.Equal(t, "radiobrowser: unknown failure", (&Error{}).Error())
}
