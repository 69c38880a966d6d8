package op_service

// FormatVersion renders a release version with the optional commit, date and meta suffixes.
func FormatVersion(version string, gitCommit string, gitDate string, meta string) string {
	v := version
	if gitCommit != "" {
		v += "-" + gitCommit[:min(len(gitCommit), 8)]
	}
	if gitDate != "" {
		v += "-" + gitDate
	}
	if meta != "" {
		v += "-" + meta
	}
	return v
}
