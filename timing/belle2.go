package timing

// Names of the preset trigger clocks.
const (
	GDLSystemClock    = "GDLSystemClock"
	CDCTriggerClock   = "CDCTriggerClock"
	CDCFETriggerClock = "CDCFETriggerClock"
	UserClock3125     = "UserClock3125"
	UserClock6250     = "UserClock6250"
)

// DefaultSystemFrequency is the frequency of the global decision logic
// system clock, 127.22175 MHz.
const DefaultSystemFrequency = FreqInHz(127221750)

// DefaultNativeMultiplier is how many wire-clock ticks fit into one board
// clock tick.
const DefaultNativeMultiplier = 8

// NewBelle2Clocks builds the trigger clock tree on a system clock. The board
// clock runs at the system frequency, the native wire clock at system times
// nativeMul. The two user clocks are added as independent roots.
func NewBelle2Clocks(system FreqInHz, nativeMul uint64) (*ClockRegistry, error) {
	r := NewClockRegistry()

	sys, err := r.Register(GDLSystemClock, system, 0)
	if err != nil {
		return nil, err
	}

	if _, err = r.Derive(CDCTriggerClock, sys, 1, 1); err != nil {
		return nil, err
	}

	if _, err = r.Derive(CDCFETriggerClock, sys, nativeMul, 1); err != nil {
		return nil, err
	}

	if _, err = r.Register(UserClock3125, 31250*KHz, 0); err != nil {
		return nil, err
	}

	if _, err = r.Register(UserClock6250, 62500*KHz, 0); err != nil {
		return nil, err
	}

	return r, nil
}

// Belle2Clocks returns the trigger clock tree with default frequencies.
func Belle2Clocks() *ClockRegistry {
	r, err := NewBelle2Clocks(DefaultSystemFrequency, DefaultNativeMultiplier)
	if err != nil {
		panic(err)
	}

	return r
}
