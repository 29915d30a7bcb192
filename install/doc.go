// Package install turns "no native bundle on disk" into "bundle ready"
// exactly once per install directory.
//
// # State Model
//
// The zero-byte sentinel file install.lock at the root of the install
// directory is the sole authoritative signal that a previous installation
// fully completed. It is written only as the last step of a successful
// run; its absence at start forces a full reinstall, wiping the directory
// first. A run that fails mid-way therefore leaves no partial success
// behind: the next run starts over.
//
// # Collaborators
//
// The orchestrator sequences locate, download, extract, flatten, platform
// fixup, and marker write, but performs no byte transfer or decompression
// itself: those steps are behind the Downloader and Extractor interfaces
// and may block for arbitrarily long. Callers needing bounded latency
// cancel the context they pass in.
//
// Concurrent processes racing to install into the same directory are
// serialized through a sibling lock file created with O_EXCL; a second
// process fails fast with ErrBusy rather than queueing, and a lock left
// by a crashed process is reclaimed after ten minutes.
package install
