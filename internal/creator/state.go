package creator

// State is a step of a task creation run.
type State int

const (
	StateInit State = iota
	StatePlatformResolved
	StateContentExtracted
	StateAnalyzed
	StatePayloadBuilt
	StateValidated
	StateListResolved
	StateCreated
)

var stateNames = [...]string{
	StateInit:             "Init",
	StatePlatformResolved: "PlatformResolved",
	StateContentExtracted: "ContentExtracted",
	StateAnalyzed:         "Analyzed",
	StatePayloadBuilt:     "PayloadBuilt",
	StateValidated:        "Validated",
	StateListResolved:     "ListResolved",
	StateCreated:          "Created",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}
