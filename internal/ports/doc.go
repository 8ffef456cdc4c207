// Package ports declares what the save store needs from the outside world.
//
//   - [Engine]: reads a save directory into a value and writes one back
//   - [Lister]: finds the saves under a saves folder
//   - [SessionRepository]: remembers which save directory was opened last
//
// internal/app and pkg/savesync depend only on these interfaces. The
// directory engine in internal/adapters/fs and the file repository in
// pkg/state implement them; tests substitute in-memory fakes.
package ports
