// Package secrets masks credentials before they are displayed or logged.
package secrets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// Style selects how a value is masked.
type Style int

const (
	StylePartial Style = iota
	StyleFull
	StyleHash
)

const (
	defaultShowChars   = 6
	defaultReplacement = "***"
)

// MaskValue masks a value with the partial style.
func MaskValue(value string) string {
	return Mask(value, StylePartial)
}

// Mask masks value using style.
func Mask(value string, style Style) string {
	if value == "" {
		return ""
	}
	switch style {
	case StyleFull:
		return defaultReplacement
	case StyleHash:
		return hashMask(value)
	default:
		return partialMask(value, defaultShowChars, defaultReplacement)
	}
}

// partialMask shows the first N characters and masks the rest.
func partialMask(value string, showChars int, replacement string) string {
	// Short values would leak most of the secret.
	if len(value) <= showChars*2 {
		return replacement
	}
	return value[:showChars] + replacement
}

func hashMask(value string) string {
	sum := sha256.Sum256([]byte(value))
	return "sha256:" + hex.EncodeToString(sum[:])[:16]
}

var fieldPatterns = []string{
	"*token*",
	"*password*",
	"*secret*",
	"*private_key*",
	"authorization",
	"*credential*",
}

// IsSecretField reports whether a field name usually holds a credential.
func IsSecretField(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range fieldPatterns {
		if ok, _ := path.Match(p, lower); ok {
			return true
		}
	}
	return false
}

// MaskFields returns a copy of data with secret-named fields masked.
func MaskFields(data any) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			if IsSecretField(key) {
				if s, ok := value.(string); ok {
					out[key] = MaskValue(s)
					continue
				}
				if value != nil {
					out[key] = MaskValue(fmt.Sprint(value))
					continue
				}
			}
			out[key] = MaskFields(value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = MaskFields(item)
		}
		return out
	default:
		return v
	}
}
