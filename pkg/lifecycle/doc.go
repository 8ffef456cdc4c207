// Package lifecycle provides the session state machine types and retry
// backoff.
//
// A savesync session moves through these states:
//   - Stopped -> Starting
//   - Starting -> Running, Stopping, Failed
//   - Running -> Stopping, Failed
//   - Stopping -> Stopped, Failed
//   - Failed -> Starting
//
// [Backoff] paces retries of transient failures, such as re-reading a save
// directory while the game is still writing it:
//
//	b := lifecycle.NewBackoff(250*time.Millisecond, 5*time.Second)
//	for attempt := 0; attempt < maxRetries; attempt++ {
//	    if err := try(); err == nil {
//	        break
//	    }
//	    if err := b.Wait(ctx); err != nil {
//	        return err
//	    }
//	}
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
package lifecycle
