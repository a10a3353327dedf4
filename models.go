package zbridge

import (
	"encoding/json"
	"slices"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// A bridge module is one cataloged source file: its location, a content
// hash so unchanged files can be skipped, and the bridge functions
// extracted from it.
type BridgeModule struct {
	gorm.Model

	// Name of the module, derived from the file name
	Name string `gorm:"uniqueIndex"`
	// Path to the source file
	Location string
	// md5 of the source contents at catalog time
	Hash string
	// Extracted declarations
	Funcs []*BridgeFunc `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE"`
}

// A stored bridge function declaration. Params and Options keep the
// ordered lists as JSON columns.
type BridgeFunc struct {
	gorm.Model

	ModuleID uint

	Name   string
	Arity  int
	Retval string
	Doc    string
	// Header line in the source file
	Line int

	Params  datatypes.JSON
	Options datatypes.JSON
}

// merge default options into the ones the declaration carries.
// The declaration's own options keep their order and win over duplicates
func mergeOptions(own, defaults []string) []string {
	merged := slices.Clone(own)
	for _, opt := range defaults {
		if !slices.Contains(merged, opt) {
			merged = append(merged, opt)
		}
	}
	return merged
}

// makeBridgeFunc converts an emitted Declaration into its stored form,
// folding in the module's default options.
func makeBridgeFunc(d *Declaration, defaults []string) (*BridgeFunc, error) {
	params, err := json.Marshal(d.Params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal parameter types")
	}
	opts, err := json.Marshal(mergeOptions(d.Options, defaults))
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal options")
	}

	return &BridgeFunc{
		Name:    d.Name,
		Arity:   d.Arity,
		Retval:  string(d.Retval),
		Doc:     d.Doc,
		Line:    d.Line,
		Params:  params,
		Options: opts,
	}, nil
}

// ParamTypes unpacks the stored parameter type list.
func (f *BridgeFunc) ParamTypes() ([]TypeSpelling, error) {
	var params []TypeSpelling
	if err := json.Unmarshal(f.Params, &params); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal parameters of %s", f.Name)
	}
	return params, nil
}

// OptionList unpacks the stored execution options.
func (f *BridgeFunc) OptionList() ([]string, error) {
	var opts []string
	if err := json.Unmarshal(f.Options, &opts); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal options of %s", f.Name)
	}
	return opts, nil
}
