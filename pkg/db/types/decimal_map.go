package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// DecimalMap maps a jsonb column of string keys to decimal amounts, e.g. the
// per-trailer-type daily cost table in the planner settings.
type DecimalMap map[string]decimal.Decimal

func (m *DecimalMap) Scan(src any) error {
	if src == nil {
		*m = DecimalMap{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("DecimalMap: unsupported Scan type %T", src)
	}

	if len(data) == 0 {
		*m = DecimalMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

func (m DecimalMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
