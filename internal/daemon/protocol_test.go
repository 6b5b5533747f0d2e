package daemon

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_WireFormat(t *testing.T) {
	req := Request{
		JSONRPC: "2.0",
		Method:  MethodSearch,
		Params:  SearchParams{Query: "git", Limit: 5},
		ID:      "req-1",
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"jsonrpc":"2.0","method":"search","params":{"query":"git","limit":5},"id":"req-1"}`,
		string(data))
}

func TestResponse_Success(t *testing.T) {
	resp := NewSuccessResponse("req-1", []SearchResult{
		{Title: "GitHub", URL: "https://github.com", Browser: "chrome", Profile: "Default", Score: 330},
	})

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"req-1","result":[
		{"title":"GitHub","url":"https://github.com","browser":"chrome","profile":"Default","score":330}
	]}`, string(data))
}

func TestResponse_Error(t *testing.T) {
	resp := NewErrorResponse("req-2", ErrCodeMethodNotFound, "method not found: nope")

	assert.Nil(t, resp.Result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMethodNotFound, resp.Error.Code)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"result"`)
}
