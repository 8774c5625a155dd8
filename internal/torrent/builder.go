package torrent

// Build constructs the complete client argument slice for one download.
// client is the command prefix (e.g. ["npx", "webtorrent-cli"]); the
// download subcommand, descriptor, selection and output flags follow.
//
//	<client...> download <descriptor> --select <pattern> --out <outDir>
func Build(client []string, descriptor, pattern, outDir string, verbose bool) []string {
	if len(client) == 0 {
		return nil
	}
	args := make([]string, 0, len(client)+9)
	args = append(args, client[0])

	// npx prompts before installing a missing package; never block on stdin.
	if client[0] == "npx" {
		args = append(args, "--yes")
	}
	args = append(args, client[1:]...)

	args = append(args, "download", descriptor)
	if pattern != "" {
		args = append(args, "--select", pattern)
	}
	args = append(args, "--out", outDir)

	if !verbose {
		args = append(args, "--quiet")
	}
	return args
}
