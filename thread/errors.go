package thread

import (
	"errors"
	"strconv"
)

// ErrInvalidArgument is returned, wrapped, when lengths or diameters passed
// to an operation are unusable. No geometry is created in that case.
var ErrInvalidArgument = errors.New("invalid argument")

// Stage identifies the step of an operation that failed.
type Stage int

const (
	StageCore Stage = iota
	StageHelix
	StageSweep
	StageClip
	StageUnion
	StagePlace
	StageChamfer
	StageBore
	StageCut
)

var stageNames = [...]string{
	StageCore:    "core",
	StageHelix:   "helix",
	StageSweep:   "sweep",
	StageClip:    "clip",
	StageUnion:   "union",
	StagePlace:   "place",
	StageChamfer: "chamfer",
	StageBore:    "bore",
	StageCut:     "cut",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Stage(" + strconv.Itoa(int(s)) + ")"
	}
	return stageNames[s]
}

// StageError is a kernel failure during one stage of an operation. The
// operation returns no geometry when it reports a StageError.
type StageError struct {
	Op    string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return "thread: " + e.Op + ": " + e.Stage.String() + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }
