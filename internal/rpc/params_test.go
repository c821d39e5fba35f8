package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_Unmarshal(t *testing.T) {
	tests := map[string]ID{
		`"12"`:  "12",
		`12`:    "12",
		`null`:  "",
		`"a-b"`: "a-b",
	}
	for in, want := range tests {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(in), &id), in)
		assert.Equal(t, want, id, in)
	}

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{}`), &id))
}

func TestDecodeParams_EmptyInputs(t *testing.T) {
	for _, raw := range []string{"", "null", "  ", "{}"} {
		p, rpcErr := decodeParams[GetReadmeParams](json.RawMessage(raw))
		require.Nil(t, rpcErr, raw)
		assert.NotNil(t, p)
	}
}

func TestDecodeParams_TrailingData(t *testing.T) {
	_, rpcErr := decodeParams[UpdateReadmeParams](json.RawMessage(`{"content":"a"} {"content":"b"}`))
	require.NotNil(t, rpcErr)
	assert.Equal(t, CodeInvalidParams, rpcErr.Code)
}

func TestGenerateDocumentationParams_IncludeExamplesDefault(t *testing.T) {
	p := &GenerateDocumentationParams{}
	assert.True(t, p.includeExamples())

	off := false
	p.IncludeExamples = &off
	assert.False(t, p.includeExamples())
}
