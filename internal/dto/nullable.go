package dto

import "encoding/json"

// Nullable distinguishes an absent JSON field from an explicit null so a
// PATCH body can clear a value.
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Null = true
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// Ptr returns the value when one was sent.
func (n Nullable[T]) Ptr() *T {
	if !n.Set || n.Null {
		return nil
	}
	v := n.Value
	return &v
}

// Cleared reports whether the field was sent as null.
func (n Nullable[T]) Cleared() bool {
	return n.Set && n.Null
}
