package mint

import (
	"os"
	"runtime"
	"sync/atomic"

	"github.com/klauern/goldenfile/internal/logging"
)

var unfinalized atomic.Int64

// Unfinalized returns how many leak-checked Mints were garbage-collected
// without Finalize having been called.
func Unfinalized() int64 {
	return unfinalized.Load()
}

func watchFinalization(m *Mint) {
	runtime.SetFinalizer(m, reportUnfinalized)
}

// reportUnfinalized runs when a watched Mint becomes unreachable. Finalize
// clears the finalizer, so reaching here means the Mint was never finalized
// and its golden files were never checked.
func reportUnfinalized(m *Mint) {
	if m.state == stateDone {
		return
	}
	unfinalized.Add(1)
	m.logger.Error("mint was never finalized; golden files were not checked",
		logging.Count(len(m.entries)),
		logging.Path(m.goldenDir),
	)
	m.closeFiles()
	_ = os.RemoveAll(m.stagingDir)
	m.state = stateDone
}
