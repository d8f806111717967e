package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Keys recognised in the answers file.
const (
	AnswerFullName   = "fullName"
	AnswerName       = "name"
	AnswerBirthday   = "birthday"
	AnswerPostalCode = "postalCode"
	AnswerAddress    = "address"
)

// Answers is the optional local key-value file used to pre-fill prompts.
// Lookups are case-insensitive. A nil *Answers behaves as an empty file.
type Answers struct {
	values map[string]string
}

// NewAnswers builds an Answers set from a plain map, mostly for tests.
func NewAnswers(values map[string]string) *Answers {
	a := &Answers{values: make(map[string]string, len(values))}
	for k, v := range values {
		a.values[strings.ToLower(k)] = v
	}
	return a
}

// LoadAnswers reads the answers file at path. A missing file yields an empty
// set; any other read or parse failure is returned. The format follows the
// file extension (json, yaml, toml), falling back to json.
func LoadAnswers(path string) (*Answers, error) {
	if path == "" {
		return NewAnswers(nil), nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("could not expand answers path '%s': %w", path, err)
	}
	if _, err := os.Stat(expanded); errors.Is(err, os.ErrNotExist) {
		return NewAnswers(nil), nil
	}

	v := viper.New()
	v.SetConfigFile(expanded)
	if !strings.Contains(expanded, ".") {
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read answers file '%s': %w", expanded, err)
	}

	values := make(map[string]string)
	for _, key := range v.AllKeys() {
		values[key] = v.GetString(key)
	}
	return NewAnswers(values), nil
}

// Get returns the value stored under key, or "" when absent.
func (a *Answers) Get(key string) string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a.values[strings.ToLower(key)])
}

// First returns the first non-empty value among keys.
func (a *Answers) First(keys ...string) string {
	for _, k := range keys {
		if v := a.Get(k); v != "" {
			return v
		}
	}
	return ""
}
