// Package options converts plugin settings between an ordered key/value
// Map and the flat "KEY=VALUE" string list used by the Docker Engine API
// (the Settings.Env field of a plugin).
//
// The codec satisfies Decode(Encode(m)) == m for any Map, and Decode fails
// loudly with a *MalformedOptionError on entries lacking "=".
package options
