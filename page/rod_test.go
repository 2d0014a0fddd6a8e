package page

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	method string
	params []byte
	err    error
}

func (c *recordingClient) Call(_ context.Context, _, method string, params any) ([]byte, error) {
	c.method = method
	c.params, _ = json.Marshal(params)
	return nil, c.err
}

func TestSetExtraHeaders(t *testing.T) {
	c := &recordingClient{}
	require.NoError(t, setExtraHeaders(c, map[string]string{"Accept-Language": "en-US"}))

	assert.Equal(t, "Network.setExtraHTTPHeaders", c.method)
	assert.JSONEq(t, `{"headers":{"Accept-Language":"en-US"}}`, string(c.params))
}

func TestSetExtraHeaders_ReportsFailure(t *testing.T) {
	c := &recordingClient{err: errors.New("target closed")}

	err := setExtraHeaders(c, map[string]string{"Accept-Language": "en-US"})
	assert.ErrorContains(t, err, "target closed")
}
