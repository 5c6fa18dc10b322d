package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/marketplace-admin/console/internal/core/domain"
)

// listShape tags which of the known list encodings a response used.
type listShape string

const (
	shapeArray   listShape = "array"
	shapeResults listShape = "results"
	shapeUsers   listShape = "users"
	shapeUnknown listShape = "unknown"
)

// userListEnvelope covers both paginated ({results}) and keyed ({users})
// responses. Pointers distinguish a missing key from an empty list.
type userListEnvelope struct {
	Results *[]domain.User `json:"results"`
	Users   *[]domain.User `json:"users"`
	Count   *int           `json:"count"`
}

// decodeUserList normalises a list response to a non-nil slice. Shapes are
// tried in order: bare array, {results}, {users}. Any other valid JSON
// yields an empty list.
func decodeUserList(body []byte) ([]domain.User, listShape, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []domain.User{}, shapeUnknown, nil
	}

	switch trimmed[0] {
	case '[':
		var users []domain.User
		if err := json.Unmarshal(trimmed, &users); err != nil {
			return nil, shapeArray, fmt.Errorf("decode user array: %w", err)
		}
		return nonNil(users), shapeArray, nil
	case '{':
		var env userListEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, shapeUnknown, fmt.Errorf("decode user envelope: %w", err)
		}
		if env.Results != nil {
			return nonNil(*env.Results), shapeResults, nil
		}
		if env.Users != nil {
			return nonNil(*env.Users), shapeUsers, nil
		}
		return []domain.User{}, shapeUnknown, nil
	}

	if !json.Valid(trimmed) {
		return nil, shapeUnknown, fmt.Errorf("decode user list: invalid json")
	}
	return []domain.User{}, shapeUnknown, nil
}

func nonNil(users []domain.User) []domain.User {
	if users == nil {
		return []domain.User{}
	}
	return users
}
