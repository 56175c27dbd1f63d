package models

import (
	"encoding/json"
	"fmt"
)

// Role identifies the speaker of a message.
// System is also used for the assistant that answers the user.
type Role int

const (
	RoleSystem Role = iota
	RoleUser
)

// String returns the lower-case role name
func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Valid reports whether r is one of the two defined roles
func (r Role) Valid() bool {
	return r == RoleSystem || r == RoleUser
}

// ParseRole converts a role name into a Role
func ParseRole(name string) (Role, error) {
	switch name {
	case "system":
		return RoleSystem, nil
	case "user":
		return RoleUser, nil
	default:
		return 0, fmt.Errorf("unknown role %q", name)
	}
}

// MarshalJSON encodes the role as a variant object, e.g. {"user":null}
func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid %s", r)
	}
	return json.Marshal(map[string]any{r.String(): nil})
}

// UnmarshalJSON accepts the variant object form or a plain string
func (r *Role) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		role, err := ParseRole(name)
		if err != nil {
			return err
		}
		*r = role
		return nil
	}

	var variant map[string]json.RawMessage
	if err := json.Unmarshal(data, &variant); err != nil {
		return fmt.Errorf("invalid role: %w", err)
	}
	if len(variant) != 1 {
		return fmt.Errorf("role must have exactly one tag, got %d", len(variant))
	}
	for tag := range variant {
		role, err := ParseRole(tag)
		if err != nil {
			return err
		}
		*r = role
	}
	return nil
}

// Message is a single transcript entry
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a message spoken by the user
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewSystemMessage creates a message spoken by the assistant
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// IsUser reports whether the message was written by the user
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}
