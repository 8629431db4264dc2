package ui

// quietMode suppresses banners and decorative output when set.
var quietMode bool

// SetQuietMode toggles quiet mode for the whole ui package. Commands
// set it from the global --quiet flag before printing anything.
func SetQuietMode(quiet bool) {
	quietMode = quiet
}

// IsQuiet reports whether quiet mode is active.
func IsQuiet() bool {
	return quietMode
}
