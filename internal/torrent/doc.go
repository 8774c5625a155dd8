// Package torrent drives an external peer-to-peer client to download a
// selected subdirectory of a swarm.
//
// [Swarm] is the narrow seam the fetch stage depends on; [WebTorrent] is
// the production implementation that shells out to webtorrent-cli (by
// default through npx). Failures are classified from the client's stderr
// into sentinel errors so the top-level log line says what went wrong.
package torrent
