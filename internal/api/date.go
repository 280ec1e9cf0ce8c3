package api

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a request date that accepts either a calendar day ("2025-03-10") or a full
// RFC3339 timestamp. Day-only values decode to midnight UTC.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("date %q is neither %s nor RFC3339", s, dateLayout)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time)
}

// dateValue lets validate tags such as required see the wrapped time.
func dateValue(v reflect.Value) interface{} {
	if d, ok := v.Interface().(Date); ok {
		return d.Time
	}
	return nil
}
