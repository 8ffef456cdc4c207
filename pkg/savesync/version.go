package savesync

import (
	"github.com/bft-labs/savesync/pkg/lifecycle"
	"github.com/bft-labs/savesync/pkg/log"
	"github.com/bft-labs/savesync/pkg/state"
	"github.com/bft-labs/savesync/pkg/timefmt"
)

// Version is the version of the savesync library.
const Version = "1.0.0"

// ModuleVersions returns the version of every sub-module, for diagnostics.
func ModuleVersions() map[string]string {
	return map[string]string{
		"savesync":  Version,
		"state":     state.Version,
		"log":       log.Version,
		"lifecycle": lifecycle.Version,
		"timefmt":   timefmt.Version,
	}
}
