package indent

// Host is the editor that owns the document. The adjuster reads a snapshot
// from it and hands back full replacements.
type Host interface {
	ReadLines() []string
	WriteLines(lines []string)
	ReadSelections() []Selection
	WriteSelections(selections []Selection)
	Notify(message string)
}

// Adjuster runs Increase and Decrease against a Host.
type Adjuster struct {
	settings func() Settings
}

// NewAdjuster returns an Adjuster that reads its settings from fn on every
// call. A nil fn uses DefaultSettings.
func NewAdjuster(fn func() Settings) *Adjuster {
	if fn == nil {
		fn = DefaultSettings
	}
	return &Adjuster{settings: fn}
}

func (a *Adjuster) IncreaseIndent(h Host) Result {
	return a.apply(h, Increase)
}

func (a *Adjuster) DecreaseIndent(h Host) Result {
	return a.apply(h, Decrease)
}

func (a *Adjuster) apply(h Host, op func([]string, []Selection, Settings) Result) Result {
	selections := h.ReadSelections()
	if len(selections) == 0 {
		return Result{}
	}
	settings := a.settings()
	res := op(h.ReadLines(), selections, settings)

	h.WriteLines(res.Lines)
	h.WriteSelections(res.Selections)
	if res.Notice != NoticeNone {
		h.Notify(res.Notice.Message(settings))
	}
	return res
}

// Command is a user-invocable action bound to one adjuster operation.
type Command struct {
	ID   string
	Name string
	Run  func(a *Adjuster, h Host) Result
}

const (
	CommandIncrease = "increase-indent"
	CommandDecrease = "decrease-indent"
)

var commands = []Command{
	{ID: CommandIncrease, Name: "Increase Indent", Run: (*Adjuster).IncreaseIndent},
	{ID: CommandDecrease, Name: "Decrease Indent", Run: (*Adjuster).DecreaseIndent},
}

// Commands lists the registered actions in display order.
func Commands() []Command {
	out := make([]Command, len(commands))
	copy(out, commands)
	return out
}

func LookupCommand(id string) (Command, bool) {
	for _, c := range commands {
		if c.ID == id {
			return c, true
		}
	}
	return Command{}, false
}
