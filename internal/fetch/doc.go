// Package fetch implements the fetch stage: download the torrent
// descriptor over HTTPS, let a [torrent.Swarm] pull the selected
// subdirectory into a staging area, move the compressed artifacts into the
// artifact store, and remove the staging residue.
//
// There is no retry: a failed transfer fails the run.
package fetch
