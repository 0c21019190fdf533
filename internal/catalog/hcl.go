package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// fileSchema is the layout of a unit catalog file:
//
//	unit "BOF1" {
//	  group = "BOF"
//	  order = 2
//	}
type fileSchema struct {
	Units []unitBlock `hcl:"unit,block"`
}

type unitBlock struct {
	Code  string `hcl:"code,label"`
	Group string `hcl:"group"`
	Order int    `hcl:"order"`
}

var errEmptyCatalog = errors.New("unit catalog defines no units")

// LoadHCL reads a catalog from an HCL file on disk.
func LoadHCL(path string) (Catalog, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Catalog{}, fmt.Errorf("parse unit catalog %s: %s", path, diags.Error())
	}
	return decode(file, path)
}

// ParseHCL reads a catalog from in-memory HCL source.
func ParseHCL(src []byte, filename string) (Catalog, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Catalog{}, fmt.Errorf("parse unit catalog %s: %s", filename, diags.Error())
	}
	return decode(file, filename)
}

func decode(file *hcl.File, name string) (Catalog, error) {
	var cfg fileSchema
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return Catalog{}, fmt.Errorf("decode unit catalog %s: %s", name, diags.Error())
	}
	if len(cfg.Units) == 0 {
		return Catalog{}, fmt.Errorf("%s: %w", name, errEmptyCatalog)
	}

	entries := make(map[string]Entry, len(cfg.Units))
	for _, u := range cfg.Units {
		code := normalizeCode(u.Code)
		if code == "" {
			return Catalog{}, fmt.Errorf("%s: unit with empty code", name)
		}
		group := strings.ToUpper(strings.TrimSpace(u.Group))
		if !knownGroup(group) {
			return Catalog{}, fmt.Errorf("%s: unit %s has unknown group %q", name, code, u.Group)
		}
		if _, dup := entries[code]; dup {
			return Catalog{}, fmt.Errorf("%s: unit %s defined twice", name, code)
		}
		entries[code] = Entry{Group: group, Order: u.Order}
	}
	return New(entries), nil
}
