package pipeline

import "fmt"

// Stage names one pipeline step. The string is used in logs, the journal
// and metric labels.
type Stage string

const (
	StagePrepare    Stage = "prepare"
	StageFetch      Stage = "fetch"
	StageDecompress Stage = "decompress"
	StageConvert    Stage = "convert"
	StageRegister   Stage = "register"
)

// AllStages returns the full run order. The fetch stage is left out when
// skipFetch is set.
func AllStages(skipFetch bool) []Stage {
	if skipFetch {
		return []Stage{StagePrepare, StageDecompress, StageConvert, StageRegister}
	}
	return []Stage{StagePrepare, StageFetch, StageDecompress, StageConvert, StageRegister}
}

// ParseStage converts a stage name.
func ParseStage(s string) (Stage, error) {
	switch st := Stage(s); st {
	case StagePrepare, StageFetch, StageDecompress, StageConvert, StageRegister:
		return st, nil
	}
	return "", fmt.Errorf("unknown stage %q", s)
}
