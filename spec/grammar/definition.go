package grammar

import (
	"errors"
	"fmt"
	"io"
	"slices"

	verr "github.com/nihei9/lalrgen/error"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownKey = errors.New("unknown key")
	ErrEmptyEntry = errors.New("a list entry must not be empty")
)

// Definition is a grammar written as a YAML (or JSON) document:
//
//	name: expr
//	terminals: [id, "(", ")"]
//	precedence:
//	  - assoc: left
//	    symbols: ["+", "-"]
//	  - assoc: left
//	    symbols: ["*", "/"]
//	productions:
//	  - lhs: expr
//	    rhs: [expr, "+", expr]
//	  - lhs: expr
//	    rhs: [id]
//
// Terminals listed only in precedence declarations need not be repeated under terminals.
// Each precedence entry binds tighter than the entries before it.
type Definition struct {
	Name        string           `yaml:"name" json:"name"`
	Start       string           `yaml:"start,omitempty" json:"start,omitempty"`
	Terminals   []string         `yaml:"terminals,omitempty" json:"terminals,omitempty"`
	Precedence  []*PrecedenceDef `yaml:"precedence,omitempty" json:"precedence,omitempty"`
	Productions []*ProductionDef `yaml:"productions" json:"productions"`

	// TerminalsRow is the line the terminals key appears on.
	TerminalsRow int `yaml:"-" json:"-"`
}

func (d *Definition) UnmarshalYAML(value *yaml.Node) error {
	if err := checkKeys(value, "name", "start", "terminals", "precedence", "productions"); err != nil {
		return err
	}
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, val := value.Content[i], value.Content[i+1]
			switch key.Value {
			case "terminals":
				d.TerminalsRow = key.Line
			case "precedence", "productions":
				if err := checkEntries(key.Value, val); err != nil {
					return err
				}
			}
		}
	}
	type plain Definition
	return value.Decode((*plain)(d))
}

type PrecedenceDef struct {
	Associativity string   `yaml:"assoc" json:"assoc"`
	Symbols       []string `yaml:"symbols" json:"symbols"`
	Row           int      `yaml:"-" json:"-"`
}

func (p *PrecedenceDef) UnmarshalYAML(value *yaml.Node) error {
	if err := checkKeys(value, "assoc", "symbols"); err != nil {
		return err
	}
	type plain PrecedenceDef
	if err := value.Decode((*plain)(p)); err != nil {
		return err
	}
	p.Row = value.Line
	return nil
}

type ProductionDef struct {
	LHS        string   `yaml:"lhs" json:"lhs"`
	RHS        []string `yaml:"rhs" json:"rhs"`
	Precedence string   `yaml:"prec,omitempty" json:"prec,omitempty"`
	Action     *int     `yaml:"action,omitempty" json:"action,omitempty"`
	Row        int      `yaml:"-" json:"-"`
}

func (p *ProductionDef) UnmarshalYAML(value *yaml.Node) error {
	if err := checkKeys(value, "lhs", "rhs", "prec", "action"); err != nil {
		return err
	}
	type plain ProductionDef
	if err := value.Decode((*plain)(p)); err != nil {
		return err
	}
	p.Row = value.Line
	return nil
}

// checkKeys rejects mapping keys outside allowed. A custom unmarshaler decodes through a fresh
// decoder that ignores the strict mode of the outer one.
func checkKeys(value *yaml.Node, allowed ...string) error {
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return &verr.SpecError{
				Cause:  ErrUnknownKey,
				Detail: key.Value,
				Row:    key.Line,
			}
		}
	}
	return nil
}

// checkEntries rejects null items in a list of precedence or production entries. They would
// otherwise decode to nil pointers.
func checkEntries(name string, seq *yaml.Node) error {
	if seq.Kind != yaml.SequenceNode {
		return nil
	}
	for _, item := range seq.Content {
		if item.Kind == yaml.ScalarNode && item.ShortTag() == "!!null" {
			return &verr.SpecError{
				Cause:  ErrEmptyEntry,
				Detail: name,
				Row:    item.Line,
			}
		}
	}
	return nil
}

// ReadDefinition parses a grammar definition. JSON is accepted as well since it is a subset
// of YAML.
func ReadDefinition(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	def := &Definition{}
	if err := dec.Decode(def); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("a grammar definition is empty")
		}
		return nil, err
	}
	return def, nil
}
