package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/sieve/internal/ir"
)

// BuildDir loads the CUE package in dir and builds it into a single value.
func BuildDir(dir string) (cue.Value, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return value, nil
}

// CompileSpecs compiles every struct under the top-level entity and endpoint
// fields. With failFast set it stops at the first error; otherwise it
// collects them all and returns what compiled.
func CompileSpecs(v cue.Value, failFast bool) (*ir.SpecSet, []error) {
	set := &ir.SpecSet{}
	var errs []error

	each := func(section string, compile func(cue.Value) error) bool {
		sv := v.LookupPath(cue.ParsePath(section))
		if !sv.Exists() {
			return true
		}
		iter, err := sv.Fields()
		if err != nil {
			errs = append(errs, formatCUEError(err))
			return !failFast
		}
		for iter.Next() {
			if err := compile(iter.Value()); err != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", section, iter.Label(), err))
				if failFast {
					return false
				}
			}
		}
		return true
	}

	ok := each("entity", func(ev cue.Value) error {
		spec, err := CompileEntity(ev)
		if err != nil {
			return err
		}
		set.Entities = append(set.Entities, *spec)
		return nil
	})
	if !ok {
		return set, errs
	}

	each("endpoint", func(ev cue.Value) error {
		spec, err := CompileEndpoint(ev)
		if err != nil {
			return err
		}
		set.Endpoints = append(set.Endpoints, *spec)
		return nil
	})

	return set, errs
}
