package action

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// Game Boy hardware controls
	GBButtonA Action = iota
	GBButtonB
	GBButtonStart
	GBButtonSelect
	GBDPadUp
	GBDPadDown
	GBDPadLeft
	GBDPadRight

	// Emulator features
	EmulatorDebugToggle
	EmulatorDebugUpdate
	EmulatorSnapshot
	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorStepInstruction
	EmulatorSaveState
	EmulatorLoadState
	EmulatorQuit

	// Audio controls
	AudioToggleChannel1
	AudioToggleChannel2
	AudioToggleChannel3
	AudioToggleChannel4
	AudioSoloChannel1
	AudioSoloChannel2
	AudioSoloChannel3
	AudioSoloChannel4
	AudioShowStatus

	// Debug controls
	DebugLogLevelIncrease
	DebugLogLevelDecrease
)

// Category groups actions by who handles them.
type Category int

const (
	CategoryGameInput Category = iota
	CategoryEmulator
	CategoryAudio
	CategoryDebug
)

// Info describes an action for logs and help text.
type Info struct {
	Category    Category
	Description string
}

var infos = map[Action]Info{
	GBButtonA:      {CategoryGameInput, "A"},
	GBButtonB:      {CategoryGameInput, "B"},
	GBButtonStart:  {CategoryGameInput, "Start"},
	GBButtonSelect: {CategoryGameInput, "Select"},
	GBDPadUp:       {CategoryGameInput, "Up"},
	GBDPadDown:     {CategoryGameInput, "Down"},
	GBDPadLeft:     {CategoryGameInput, "Left"},
	GBDPadRight:    {CategoryGameInput, "Right"},

	EmulatorDebugToggle:     {CategoryEmulator, "Toggle debug view"},
	EmulatorDebugUpdate:     {CategoryEmulator, "Refresh screen"},
	EmulatorSnapshot:        {CategoryEmulator, "Save PNG snapshot"},
	EmulatorPauseToggle:     {CategoryEmulator, "Pause/resume"},
	EmulatorStepFrame:       {CategoryEmulator, "Step frame"},
	EmulatorStepInstruction: {CategoryEmulator, "Step instruction"},
	EmulatorSaveState:       {CategoryEmulator, "Save state"},
	EmulatorLoadState:       {CategoryEmulator, "Load state"},
	EmulatorQuit:            {CategoryEmulator, "Quit"},

	AudioToggleChannel1: {CategoryAudio, "Toggle channel 1"},
	AudioToggleChannel2: {CategoryAudio, "Toggle channel 2"},
	AudioToggleChannel3: {CategoryAudio, "Toggle channel 3"},
	AudioToggleChannel4: {CategoryAudio, "Toggle channel 4"},
	AudioSoloChannel1:   {CategoryAudio, "Solo channel 1"},
	AudioSoloChannel2:   {CategoryAudio, "Solo channel 2"},
	AudioSoloChannel3:   {CategoryAudio, "Solo channel 3"},
	AudioSoloChannel4:   {CategoryAudio, "Solo channel 4"},
	AudioShowStatus:     {CategoryAudio, "Show audio status"},

	DebugLogLevelIncrease: {CategoryDebug, "More logs"},
	DebugLogLevelDecrease: {CategoryDebug, "Fewer logs"},
}

// GetInfo returns the description of an action.
func GetInfo(a Action) Info {
	if info, ok := infos[a]; ok {
		return info
	}
	return Info{Category: CategoryEmulator, Description: "Unknown"}
}
