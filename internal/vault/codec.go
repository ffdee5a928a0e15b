package vault

import (
	"encoding/json"
	"fmt"
)

const payloadVersion = 1

// payload is the plaintext sealed inside the vault envelope
type payload struct {
	Version int      `json:"version"`
	Records []Record `json:"records"`
}

// Encode serializes an ordered record list
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	data, err := json.Marshal(payload{Version: payloadVersion, Records: records})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return data, nil
}

// Decode restores a record list produced by Encode
func Decode(data []byte) ([]Record, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if p.Version != payloadVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, p.Version)
	}

	seen := make(map[string]struct{}, len(p.Records))
	for _, r := range p.Records {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: record without id", ErrFormat)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate record id %s", ErrFormat, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	if p.Records == nil {
		p.Records = []Record{}
	}
	return p.Records, nil
}
