// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"strconv"
	"strings"
)

type substState int

const (
	stateNormal substState = iota
	stateDollar
	statePlaceholder
	stateDefault
)

const envPrefix = "env"

// Substitute resolves ${NAME}, ${env:NAME} and ${NAME:-default} placeholders
// in s using the given Lookup.
//
// "$$" is an escaped "$". Undefined variables without a default expand to
// nothing. Default text is copied verbatim, it is never substituted itself.
// A "$" followed by anything other than "$" or "{" is kept as is.
//
// An unterminated placeholder swallows the rest of the input, e.g.
// "a ${B" resolves to "a ".
func Substitute(s string, lookup Lookup) string {
	if strings.IndexByte(s, '$') < 0 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))

	state := stateNormal
	nameBegin, nameEnd := 0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case stateNormal:
			if c == '$' {
				state = stateDollar
				continue
			}
			sb.WriteByte(c)
		case stateDollar:
			switch c {
			case '$':
				sb.WriteByte('$')
				state = stateNormal
			case '{':
				nameBegin = i + 1
				state = statePlaceholder
			default:
				sb.WriteByte('$')
				sb.WriteByte(c)
				state = stateNormal
			}
		case statePlaceholder:
			switch c {
			case '}':
				if v, ok := lookup(s[nameBegin:i]); ok {
					sb.WriteString(v)
				}
				state = stateNormal
			case ':':
				if s[nameBegin:i] == envPrefix {
					nameBegin = i + 1
					continue
				}
				if i+1 < len(s) && s[i+1] == '-' {
					nameEnd = i
					i++
					state = stateDefault
				}
			}
		case stateDefault:
			if c != '}' {
				continue
			}
			if v, ok := lookup(s[nameBegin:nameEnd]); ok {
				sb.WriteString(v)
			} else {
				sb.WriteString(s[nameEnd+2 : i])
			}
			state = stateNormal
		}
	}
	if state == stateDollar {
		sb.WriteByte('$')
	}
	return sb.String()
}

// Coerce heuristically types a substituted value.
//
//   - "true" and "false" become a bool
//   - values prefixed with "0x" become a base 16 int64
//   - values starting with a decimal digit become a float64
//
// Everything else, including numbers which fail to parse, stays a string.
func Coerce(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}

	if strings.HasPrefix(s, "0x") {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return s
		}
		return n
	}

	if len(s) > 0 && s[0] >= '0' && s[0] <= '9' {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return s
		}
		return f
	}
	return s
}
