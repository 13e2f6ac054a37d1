package roadmap

// tickMsg refreshes the live elapsed time once per second.
type tickMsg struct {
	gen int
}

// actionMsg carries the outcome of an engine call made for a key press.
type actionMsg struct {
	Note string // shown on success
	Err  error
}

// openedMsg is sent when an assessment attempt has been loaded.
type openedMsg struct {
	Err error
}
