package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseSuccessTruthiness(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{`{"success": true}`, true},
		{`{"success": 1}`, true},
		{`{"success": -0.5}`, true},
		{`{"success": "yes"}`, true},
		{`{"success": {"a": 1}}`, true},
		{`{"success": [0]}`, true},
		{`{"success": false}`, false},
		{`{"success": 0}`, false},
		{`{"success": ""}`, false},
		{`{"success": null}`, false},
		{`{"success": {}}`, false},
		{`{"success": []}`, false},
		{`{"message": "no flag"}`, false},
		{`[]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, Response{Body: []byte(tt.body)}.Success())
		})
	}
}

func TestResponseHasSuccess(t *testing.T) {
	assert.True(t, Response{Body: []byte(`{"success": false}`)}.HasSuccess())
	assert.False(t, Response{Body: []byte(`{"ok": true}`)}.HasSuccess())
}

func TestResponseCode(t *testing.T) {
	t.Run("string stays string", func(t *testing.T) {
		res := Response{Body: []byte(`{"success": true, "data": {"code": "482913"}}`)}
		code, ok := res.Code()
		assert.True(t, ok)
		assert.JSONEq(t, `"482913"`, string(code))
		assert.Equal(t, "482913", res.CodeText())
	})

	t.Run("number stays number", func(t *testing.T) {
		res := Response{Body: []byte(`{"success": true, "data": {"code": 12345}}`)}
		code, ok := res.Code()
		assert.True(t, ok)
		assert.Equal(t, "12345", string(code))
		assert.Equal(t, "12345", res.CodeText())
	})

	t.Run("leading zero string kept", func(t *testing.T) {
		code, ok := Response{Body: []byte(`{"data": {"code": "007123"}}`)}.Code()
		assert.True(t, ok)
		assert.Equal(t, `"007123"`, string(code))
	})

	t.Run("missing", func(t *testing.T) {
		_, ok := Response{Body: []byte(`{"success": true, "data": {}}`)}.Code()
		assert.False(t, ok)
	})

	t.Run("null", func(t *testing.T) {
		_, ok := Response{Body: []byte(`{"success": true, "data": {"code": null}}`)}.Code()
		assert.False(t, ok)
	})
}

func TestResponseIndented(t *testing.T) {
	res := Response{Body: []byte(`{"success":true,"data":{"code":"1"}}`)}
	assert.Equal(t, "{\n  \"success\": true,\n  \"data\": {\n    \"code\": \"1\"\n  }\n}", res.Indented(2))

	raw := Response{Body: []byte("<html>bad gateway</html>")}
	assert.False(t, raw.Valid())
	assert.Equal(t, "<html>bad gateway</html>", raw.Indented(2))
}

func TestResponseMessage(t *testing.T) {
	assert.Equal(t, "OTP expired", Response{Body: []byte(`{"success":false,"message":" OTP expired "}`)}.Message())
	assert.Empty(t, Response{Body: []byte(`{"success":false}`)}.Message())
}
