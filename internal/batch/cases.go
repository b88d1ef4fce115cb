package batch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/klyr/dotpath/internal/normalize"
)

// Case is one operation to run, with an optional expectation. Operands left
// out of the file stay nil and make the operation an invalid argument.
type Case struct {
	ID            string  `yaml:"id"`
	Op            string  `yaml:"op"`
	Base          *string `yaml:"base"`
	Path          *string `yaml:"path"`
	EvaluateDots  *bool   `yaml:"evaluateDots"`
	Expect        *string `yaml:"expect"`
	ExpectAbsent  bool    `yaml:"expectAbsent"`
	ExpectInvalid bool    `yaml:"expectInvalid"`
}

type file struct {
	Cases []Case `yaml:"cases"`
}

// HasExpectation reports whether the case checks its outcome.
func (c Case) HasExpectation() bool {
	return c.Expect != nil || c.ExpectAbsent || c.ExpectInvalid
}

func (c Case) request() (normalize.Request, error) {
	op, err := normalize.ParseOp(c.Op)
	if err != nil {
		return normalize.Request{}, err
	}
	return normalize.Request{Op: op, Base: c.Base, Path: c.Path, EvaluateDots: c.EvaluateDots}, nil
}

func Load(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	return Parse(data)
}

// Parse decodes a case file and checks every case, reporting all problems
// at once. Cases without an id are numbered from 1.
func Parse(data []byte) ([]Case, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse cases: %w", err)
	}

	var result *multierror.Error
	seen := make(map[string]int, len(f.Cases))
	for i := range f.Cases {
		c := &f.Cases[i]
		if c.ID == "" {
			c.ID = fmt.Sprintf("case-%d", i+1)
		}
		if prev, ok := seen[c.ID]; ok {
			result = multierror.Append(result, fmt.Errorf("case %s: duplicate id (first at %d)", c.ID, prev+1))
		}
		seen[c.ID] = i

		if _, err := normalize.ParseOp(c.Op); err != nil {
			result = multierror.Append(result, fmt.Errorf("case %s: %w", c.ID, err))
		}

		expectations := 0
		for _, set := range []bool{c.Expect != nil, c.ExpectAbsent, c.ExpectInvalid} {
			if set {
				expectations++
			}
		}
		if expectations > 1 {
			result = multierror.Append(result, fmt.Errorf("case %s: expect, expectAbsent and expectInvalid are exclusive", c.ID))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return f.Cases, nil
}
