package pipeline

import "fmt"

// Stage identifies the pipeline step a failure happened in
type Stage int

const (
	DataLoad Stage = iota
	GraphConstruction
	WalkGeneration
	Training
	Extraction
	Write
)

var stageInfo = map[Stage]struct {
	kind   string
	action string
}{
	DataLoad:          {"DataLoadError", "loading data"},
	GraphConstruction: {"GraphConstructionError", "creating graph"},
	WalkGeneration:    {"WalkGenerationError", "generating walks"},
	Training:          {"TrainingError", "training model"},
	Extraction:        {"ExtractionError", "extracting embeddings"},
	Write:             {"WriteError", "saving embeddings"},
}

// Kind names the error class of the stage, e.g. "DataLoadError"
func (s Stage) Kind() string {
	if info, ok := stageInfo[s]; ok {
		return info.kind
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

func (s Stage) String() string {
	if info, ok := stageInfo[s]; ok {
		return info.action
	}
	return s.Kind()
}

// StageError wraps the cause of a failed stage
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("Error %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Kind names the error class, e.g. "WalkGenerationError"
func (e *StageError) Kind() string {
	return e.Stage.Kind()
}

func fail(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
