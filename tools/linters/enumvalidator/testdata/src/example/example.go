package example

type Status string

const (
	StatusNew         Status = "New"
	StatusImplemented Status = "Implemented"
)

type ActivityType string

const (
	ActivityTypeMerge ActivityType = "merge"
)

type EventType string

const (
	EventTypeSuggestionMerged EventType = "suggestion.merged"
)

type Suggestion struct {
	Status Status
}

type Activity struct {
	Type ActivityType
	To   *Status
}

type Event struct {
	Type EventType
}

func bad() {
	s := &Suggestion{}
	s.Status = "Done" // want "enum field Status assigned string literal"

	a := Activity{Type: "merge"} // want "enum field Type assigned string literal"
	_ = a

	e := &Event{}
	e.Type = "suggestion.merged" // want "enum field Type assigned string literal"
}

func good() {
	s := &Suggestion{}
	s.Status = StatusImplemented // OK: using constant

	to := StatusNew
	a := Activity{Type: ActivityTypeMerge, To: &to}
	_ = a

	e := &Event{Type: EventTypeSuggestionMerged}
	_ = e
}

func alsoGood() {
	// OK: Variable, not literal
	status := StatusNew
	s := &Suggestion{Status: status}
	_ = s
}
