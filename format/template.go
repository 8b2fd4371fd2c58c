package format

// Template returns the starter content written when a watched file does
// not exist yet. Every template is a comment-only or empty document, so
// the first parse after creation reports no values and bound parameters
// keep their defaults until the user fills it in.
func Template(f Format) []byte {
	switch f {
	case JSON:
		return []byte("{}\n")
	case YAML:
		return []byte("# livetune parameters\n# Edit values here and save.\n---\n")
	case TOML:
		return []byte("# livetune parameters\n# Edit values here and save.\n\n")
	case Lua:
		return []byte("-- livetune parameters\n-- Return a table of values.\nreturn {}\n")
	case Plain:
		return []byte("# livetune value\n# Replace this comment with a value.\n")
	default:
		return []byte("# livetune parameters\n# Format: key = value\n\n")
	}
}
