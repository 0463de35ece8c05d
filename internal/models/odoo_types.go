package models

import (
	"encoding/json"
	"fmt"
)

// OdooString decodes Odoo text fields, which arrive as false when empty
type OdooString string

// UnmarshalJSON accepts a string or a boolean
func (s *OdooString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = OdooString(str)
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = ""
		return nil
	}

	return fmt.Errorf("OdooString: cannot decode %s", string(data))
}

func (s OdooString) String() string {
	return string(s)
}

// OdooRelation decodes a many2one field: [id, "display name"] or false
type OdooRelation struct {
	ID   int64
	Name string
}

// UnmarshalJSON accepts [id, name] or false
func (r *OdooRelation) UnmarshalJSON(data []byte) error {
	var pair []interface{}
	if err := json.Unmarshal(data, &pair); err != nil {
		*r = OdooRelation{}
		return nil
	}
	if len(pair) >= 1 {
		if id, ok := pair[0].(float64); ok {
			r.ID = int64(id)
		}
	}
	if len(pair) >= 2 {
		if name, ok := pair[1].(string); ok {
			r.Name = name
		}
	}
	return nil
}
