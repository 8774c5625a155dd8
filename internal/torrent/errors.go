package torrent

import (
	"errors"
	"regexp"
)

// Sentinel errors returned by [WebTorrent.Fetch] after classifying the
// client's stderr. Unclassified failures wrap the process error instead.
var (
	ErrClientNotFound = errors.New("torrent client not found")
	ErrBadDescriptor  = errors.New("torrent descriptor is invalid")
	ErrNoSelection    = errors.New("selection matched no files in the torrent")
)

// Pre-compiled regexes for classifying client stderr. Checked in order by
// [Classify]; the first match wins.
var (
	reClientMissing = regexp.MustCompile(
		`(?i)command not found|could not determine executable to run|` +
			`E404 .*webtorrent|npm ERR! 404`)

	reBadDescriptor = regexp.MustCompile(
		`(?i)invalid torrent identifier|Invalid torrent|` +
			`torrent is missing required field|Error parsing torrent`)

	reNoSelection = regexp.MustCompile(
		`(?i)no files? (matched|selected)|selection .* out of range`)
)

// MatchClientMissing reports whether stderr shows the client could not be run.
func MatchClientMissing(stderr string) bool {
	return reClientMissing.MatchString(stderr)
}

// MatchBadDescriptor reports whether stderr shows a rejected descriptor.
func MatchBadDescriptor(stderr string) bool {
	return reBadDescriptor.MatchString(stderr)
}

// MatchNoSelection reports whether stderr shows the selection was empty.
func MatchNoSelection(stderr string) bool {
	return reNoSelection.MatchString(stderr)
}

// Classify maps client stderr to a sentinel error, or nil when no known
// pattern matches.
func Classify(stderr string) error {
	switch {
	case MatchClientMissing(stderr):
		return ErrClientNotFound
	case MatchBadDescriptor(stderr):
		return ErrBadDescriptor
	case MatchNoSelection(stderr):
		return ErrNoSelection
	}
	return nil
}
