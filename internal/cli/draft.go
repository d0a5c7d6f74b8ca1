package cli

import (
	"flag"
	"io"
	"strings"

	"github.com/idilsaglam/planner/internal/viewmodel"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ", ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// draftFields holds the draft values given on the command line; nil
// means "leave as is".
type draftFields struct {
	title *string
	start *string
	end   *string
	cps   stringList
}

func draftFlags(name string, errOut io.Writer) (*flag.FlagSet, *draftFields) {
	d := &draftFields{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	d.start = fs.String("start", "", "start time (HH:MM)")
	d.end = fs.String("end", "", "end time (HH:MM)")
	fs.Var(&d.cps, "cp", "checkpoint text (repeatable)")
	return fs, d
}

// apply writes the given fields into the view-model draft. Checkpoints,
// when given, replace every slot.
func (d *draftFields) apply(vm *viewmodel.Model) error {
	if d.title != nil {
		if err := vm.SetDraftField(viewmodel.FieldTitle, *d.title); err != nil {
			return err
		}
	}
	if *d.start != "" {
		if err := vm.SetDraftField(viewmodel.FieldStartTime, *d.start); err != nil {
			return err
		}
	}
	if *d.end != "" {
		if err := vm.SetDraftField(viewmodel.FieldEndTime, *d.end); err != nil {
			return err
		}
	}
	if len(d.cps) == 0 {
		return nil
	}
	for len(vm.Draft().Checkpoints) > 0 {
		if err := vm.RemoveCheckpointSlot(0); err != nil {
			return err
		}
	}
	for i, text := range d.cps {
		vm.AddCheckpointSlot()
		if err := vm.UpdateCheckpointSlot(i, text); err != nil {
			return err
		}
	}
	return nil
}
