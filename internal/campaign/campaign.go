package campaign

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FieldID   = "_id"
	FieldName = "name"
)

var ErrMissingID = errors.New("campaign id is required")

// Campaign is an opaque backend record. Only the id and name are
// interpreted; every other field is carried through untouched.
type Campaign map[string]any

func New(id, name string) Campaign {
	c := Campaign{FieldName: name}
	if id != "" {
		c[FieldID] = id
	}
	return c
}

func (c Campaign) ID() string {
	v, ok := c[FieldID]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (c Campaign) Name() string {
	s, _ := c[FieldName].(string)
	return s
}

// WithName returns a copy of c with the name replaced.
func (c Campaign) WithName(name string) Campaign {
	out := c.Clone()
	out[FieldName] = name
	return out
}

// Clone is a shallow copy.
func (c Campaign) Clone() Campaign {
	out := make(Campaign, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	return out
}

// FromData converts a decoded JSON payload back into a Campaign.
func FromData(data any) (Campaign, bool) {
	switch v := data.(type) {
	case Campaign:
		return v, true
	case map[string]any:
		return Campaign(v), true
	}
	return nil, false
}

// LoadFile reads a campaign record from a YAML or JSON file.
func LoadFile(path string) (Campaign, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read campaign file: %w", err)
	}
	var c Campaign
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &c)
	} else {
		err = yaml.Unmarshal(raw, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("decode campaign file %s: %w", path, err)
	}
	if c == nil {
		c = Campaign{}
	}
	return c, nil
}

// LoadSeedFile reads a YAML or JSON list of campaign records.
func LoadSeedFile(path string) ([]Campaign, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var cs []Campaign
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &cs)
	} else {
		err = yaml.Unmarshal(raw, &cs)
	}
	if err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for i, c := range cs {
		if c.ID() == "" {
			return nil, fmt.Errorf("seed entry %d: %w", i, ErrMissingID)
		}
	}
	return cs, nil
}
