package dotypos

import (
	"bytes"
	"encoding/json"
)

// tokenResponse is the answer of POST /signin/token.
type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expires_in"`
}

// envelope is the paginated response shape some API versions use. Older
// versions return a bare array instead.
type envelope struct {
	Data        []map[string]interface{} `json:"data"`
	CurrentPage int                      `json:"currentPage"`
	LastPage    int                      `json:"lastPage"`
}

// Page is one decoded page of remote items.
type Page struct {
	Items       []map[string]interface{}
	CurrentPage int
	LastPage    int
	// HasPaging reports whether the envelope carried authoritative page
	// counters. Without them callers fall back to counting items.
	HasPaging bool
}

// DecodePage accepts both payload shapes the API is known to produce: a bare
// JSON array of items, or a {data, currentPage, lastPage} envelope.
func DecodePage(raw []byte) (*Page, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []map[string]interface{}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, ErrInvalidData
		}
		return &Page{Items: items}, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Data == nil {
		return nil, ErrInvalidData
	}
	return &Page{
		Items:       env.Data,
		CurrentPage: env.CurrentPage,
		LastPage:    env.LastPage,
		HasPaging:   env.CurrentPage > 0 && env.LastPage > 0,
	}, nil
}
