package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/agentic-research/objtree/internal/object"
)

// Seed is a parsed seed file:
//
//	attribute "clients.my_border" {
//	  type  = "color"
//	  value = "#ff0000"
//	}
//
//	set "settings.frame_gap" {
//	  value = 7
//	}
type Seed struct {
	Attributes []SeedAttribute `hcl:"attribute,block"`
	Sets       []SeedSet       `hcl:"set,block"`
}

// SeedAttribute declares a user attribute.
type SeedAttribute struct {
	Path  string  `hcl:"path,label"`
	Type  string  `hcl:"type"`
	Value *string `hcl:"value,optional"`
}

// SeedSet assigns an existing attribute.
type SeedSet struct {
	Path  string `hcl:"path,label"`
	Value string `hcl:"value"`
}

// LoadSeed reads and decodes the seed file at path.
func LoadSeed(path string) (*Seed, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return ParseSeed(src, path)
}

// ParseSeed decodes seed source; filename only labels diagnostics.
func ParseSeed(src []byte, filename string) (*Seed, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	var s Seed
	if diags := gohcl.DecodeBody(f.Body, nil, &s); diags.HasErrors() {
		return nil, diags
	}
	return &s, nil
}

// Apply declares every seed attribute and then performs every set, in file
// order. A user attribute that already exists with the declared type is
// reassigned rather than recreated, so applying a seed twice is harmless.
// Failures do not stop the remaining entries; they are returned together.
func (s *Seed) Apply(tree *object.Tree) error {
	var result *multierror.Error
	for _, sa := range s.Attributes {
		if err := sa.apply(tree); err != nil {
			result = multierror.Append(result, fmt.Errorf("attribute %q: %w", sa.Path, err))
		}
	}
	for _, set := range s.Sets {
		a, err := tree.ResolveAttribute(set.Path)
		if err == nil {
			err = a.Assign(set.Value)
		}
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("set %q: %w", set.Path, err))
		}
	}
	return result.ErrorOrNil()
}

func (sa SeedAttribute) apply(tree *object.Tree) error {
	kind, err := object.ParseKind(sa.Type)
	if err != nil {
		return err
	}
	a, err := tree.ResolveAttribute(sa.Path)
	switch {
	case err == nil:
		if !a.UserDefined() || a.Kind() != kind {
			return fmt.Errorf("%w: an attribute of type %s already exists", object.ErrDuplicateName, a.Kind())
		}
	case errors.Is(err, object.ErrUnknownAttribute):
		if a, err = tree.CreateUserAttribute(kind, sa.Path); err != nil {
			return err
		}
	default:
		return err
	}
	if sa.Value == nil {
		return nil
	}
	return a.Assign(*sa.Value)
}

// SaveSeed writes the tree's user attributes to path as attribute blocks.
// Set blocks already in the file are kept. The file is replaced atomically.
func SaveSeed(path string, tree *object.Tree) error {
	f := hclwrite.NewEmptyFile()
	if src, err := os.ReadFile(path); err == nil {
		existing, diags := hclwrite.ParseConfig(src, path, hcl.InitialPos)
		if diags.HasErrors() {
			return fmt.Errorf("parse existing seed: %w", diags)
		}
		f = existing
		for _, b := range f.Body().Blocks() {
			if b.Type() == "attribute" {
				f.Body().RemoveBlock(b)
			}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read seed %s: %w", path, err)
	}

	body := f.Body()
	for _, a := range tree.UserAttributes() {
		block := body.AppendNewBlock("attribute", []string{a.Path()})
		block.Body().SetAttributeValue("type", cty.StringVal(a.Kind().String()))
		block.Body().SetAttributeValue("value", ctyValue(a.Value()))
	}
	return writeFileAtomic(path, hclwrite.Format(f.Bytes()))
}

func ctyValue(v object.Value) cty.Value {
	switch v := v.(type) {
	case object.BoolValue:
		return cty.BoolVal(bool(v))
	case object.IntValue:
		return cty.NumberIntVal(int64(v))
	case object.UintValue:
		return cty.NumberVal(new(big.Float).SetUint64(uint64(v)))
	default:
		return cty.StringVal(v.String())
	}
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create seed dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".objtree-seed-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmpName, info.Mode())
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}
