/*
Copyright 2026 Flowstate, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder assembles LLM prompts from templates with
// {{placeholder}} bindings. Building with an unbound placeholder is an
// error, which keeps prompt construction failures loud and local instead of
// shipping a half-filled prompt to the judge.
package promptbuilder

import (
	"encoding/xml"
	"fmt"
	"maps"
	"strings"
)

// Prompt is a template plus its accumulated bindings. Bind methods return a
// new Prompt; templates are never mutated in place.
type Prompt struct {
	template string
	bindings map[string]binding
}

type binding interface {
	value() (string, error)
}

type unbound struct{ name string }

func (u unbound) value() (string, error) {
	return "", fmt.Errorf("placeholder %q is unbound", u.name)
}

type literal struct{ val string }

func (l literal) value() (string, error) { return l.val, nil }

type xmlBinding struct{ data any }

func (x xmlBinding) value() (string, error) {
	out, err := xml.MarshalIndent(x.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling XML binding: %w", err)
	}
	return string(out), nil
}

// NewPrompt parses a template and registers every {{name}} placeholder as
// unbound.
func NewPrompt(template string) (*Prompt, error) {
	bindings := make(map[string]binding)
	_, err := walk(template, func(name string) (string, error) {
		if _, ok := bindings[name]; !ok {
			bindings[name] = unbound{name: name}
		}
		return "", nil
	})
	if err != nil {
		return nil, err
	}
	return &Prompt{template: template, bindings: bindings}, nil
}

// MustNewPrompt is NewPrompt for package-level template literals.
func MustNewPrompt(template string) *Prompt {
	p, err := NewPrompt(template)
	if err != nil {
		panic(err)
	}
	return p
}

// Bind binds a plain string value to a placeholder.
func (p *Prompt) Bind(name, value string) (*Prompt, error) {
	return p.set(name, literal{val: value})
}

// BindXML binds structured data, marshaled as XML, to a placeholder. Used
// for untrusted evidence so delimiters inside it cannot masquerade as
// prompt structure.
func (p *Prompt) BindXML(name string, data any) (*Prompt, error) {
	return p.set(name, xmlBinding{data: data})
}

func (p *Prompt) set(name string, b binding) (*Prompt, error) {
	existing, ok := p.bindings[name]
	if !ok {
		return nil, fmt.Errorf("unknown placeholder %q", name)
	}
	if _, isUnbound := existing.(unbound); !isUnbound {
		return nil, fmt.Errorf("placeholder %q already bound", name)
	}
	next := &Prompt{template: p.template, bindings: maps.Clone(p.bindings)}
	next.bindings[name] = b
	return next, nil
}

// Build renders the template, failing if any placeholder remains unbound.
func (p *Prompt) Build() (string, error) {
	return walk(p.template, func(name string) (string, error) {
		b, ok := p.bindings[name]
		if !ok {
			return "", fmt.Errorf("unknown placeholder %q", name)
		}
		return b.value()
	})
}

// walk substitutes every {{name}} via fn. Placeholder names are simple
// identifiers; a stray "{{" without a closing "}}" is an error.
func walk(template string, fn func(name string) (string, error)) (string, error) {
	var sb strings.Builder
	rest := template
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder near %q", truncate(rest[start:], 20))
		}
		name := strings.TrimSpace(rest[start+2 : start+end])
		if name == "" {
			return "", fmt.Errorf("empty placeholder near %q", truncate(rest[start:], 20))
		}
		val, err := fn(name)
		if err != nil {
			return "", err
		}
		sb.WriteString(rest[:start])
		sb.WriteString(val)
		rest = rest[start+end+2:]
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
