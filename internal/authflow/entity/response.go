package entity

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	fieldSuccess = "success"
	fieldCode    = "data.code"
	fieldMessage = "message"
)

// Response is the raw HTTP answer of one step.
type Response struct {
	StatusCode int
	Body       []byte
}

// Valid reports whether the body is well-formed JSON.
func (r Response) Valid() bool {
	return gjson.ValidBytes(r.Body)
}

// HasSuccess reports whether the body carries a success field at all.
func (r Response) HasSuccess() bool {
	return gjson.GetBytes(r.Body, fieldSuccess).Exists()
}

// Success reports whether the success field is truthy. A missing field is falsy.
func (r Response) Success() bool {
	return truthy(gjson.GetBytes(r.Body, fieldSuccess))
}

// Code returns data.code exactly as encoded by the server. It reports false
// when the field is absent or null.
func (r Response) Code() (json.RawMessage, bool) {
	res := gjson.GetBytes(r.Body, fieldCode)
	if !res.Exists() || res.Type == gjson.Null {
		return nil, false
	}
	return json.RawMessage(res.Raw), true
}

// CodeText is data.code rendered for humans: strings unquoted, numbers as written.
func (r Response) CodeText() string {
	return gjson.GetBytes(r.Body, fieldCode).String()
}

// Message returns the server supplied message, if any.
func (r Response) Message() string {
	return strings.TrimSpace(gjson.GetBytes(r.Body, fieldMessage).String())
}

// Indented renders the body as indented JSON, falling back to the raw text
// when the body is not JSON.
func (r Response) Indented(indent int) string {
	if !r.Valid() {
		return string(r.Body)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(r.Body), "", strings.Repeat(" ", max(indent, 0))); err != nil {
		return string(r.Body)
	}
	return buf.String()
}

func truthy(res gjson.Result) bool {
	switch res.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return res.Num != 0
	case gjson.String:
		return res.Str != ""
	case gjson.JSON:
		empty := true
		res.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return !empty
	default:
		return false
	}
}
