package movepick

// Stage is a state of the picker. Each entry shape advances through its
// stages in declaration order and never goes back.
type Stage uint8

const (
	// main search
	MainTT Stage = iota
	CaptureInit
	GoodCapture
	QuietInit
	GoodQuiet
	BadCapture
	BadQuiet

	// in check
	EvasionTT
	EvasionInit
	Evasion

	// ProbCut
	ProbCutTT
	ProbCutInit
	ProbCut

	// quiescence
	QSearchTT
	QCaptureInit
	QCapture
)

var stageNames = [...]string{
	MainTT:       "main-tt",
	CaptureInit:  "capture-init",
	GoodCapture:  "good-capture",
	QuietInit:    "quiet-init",
	GoodQuiet:    "good-quiet",
	BadCapture:   "bad-capture",
	BadQuiet:     "bad-quiet",
	EvasionTT:    "evasion-tt",
	EvasionInit:  "evasion-init",
	Evasion:      "evasion",
	ProbCutTT:    "probcut-tt",
	ProbCutInit:  "probcut-init",
	ProbCut:      "probcut",
	QSearchTT:    "qsearch-tt",
	QCaptureInit: "qcapture-init",
	QCapture:     "qcapture",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// IsTT reports whether s is one of the transposition-table entry stages.
func (s Stage) IsTT() bool {
	return s == MainTT || s == EvasionTT || s == ProbCutTT || s == QSearchTT
}
