package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FlexFloat is a float64 that also decodes from numeric strings.
// Older zone documents were saved from form inputs and carry "31.77" instead of 31.77.
type FlexFloat float64

// UnmarshalJSON accepts a JSON number or a string holding one.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// Float returns the value as float64.
func (f FlexFloat) Float() float64 { return float64(f) }

// FlexPtr returns a pointer to a FlexFloat holding v.
func FlexPtr(v float64) *FlexFloat {
	f := FlexFloat(v)
	return &f
}

// DefaultLanguage keys text that was stored without a language.
const DefaultLanguage = "default"

// Localized holds text per language code (ar, he, en).
type Localized map[string]string

// UnmarshalJSON accepts either a language map or a bare string.
func (l *Localized) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		*l = Localized{DefaultLanguage: s}
		return nil
	}
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*l = m
	return nil
}

// UnmarshalYAML accepts either a language map or a bare string.
func (l *Localized) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if value.Value == "" || value.Tag == "!!null" {
			return nil
		}
		*l = Localized{DefaultLanguage: value.Value}
		return nil
	}
	m := map[string]string{}
	if err := value.Decode(&m); err != nil {
		return err
	}
	*l = m
	return nil
}

// Get returns the text for lang, falling back to the default entry.
func (l Localized) Get(lang string) string {
	if v, ok := l[lang]; ok && v != "" {
		return v
	}
	return l[DefaultLanguage]
}

// Has reports whether any language variant equals value exactly.
func (l Localized) Has(value string) bool {
	for _, v := range l {
		if v == value {
			return true
		}
	}
	return false
}

// IsEmpty reports whether all variants are blank.
func (l Localized) IsEmpty() bool {
	for _, v := range l {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (l Localized) Clone() Localized {
	if l == nil {
		return nil
	}
	out := make(Localized, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}
