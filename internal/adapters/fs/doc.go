// Package fs implements the save directory engine.
//
// A save directory holds three TOML documents and an optional thumbnail:
//
//	savenfo.toml     summary shown in the save list
//	globalvars.toml  boolean and numeric script variables
//	partytable.toml  party, journal and shared resources
//	screen.tga       thumbnail, absent for autosaves
//
// File names are matched case-insensitively. Writes stage every file next
// to its target before renaming anything into place.
package fs
