package jsonutil

import (
	"bytes"
	"encoding/json"
)

// OptionalInt distinguishes an absent field from an explicit null.
//
//	{}               -> Set=false
//	{"parentId":null} -> Set=true, Value=nil
//	{"parentId":3}    -> Set=true, Value=3
type OptionalInt struct {
	Set   bool
	Value *int
}

// UnmarshalJSON records that the field was present.
func (o *OptionalInt) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
