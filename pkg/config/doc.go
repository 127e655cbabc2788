// Package config resolves the typed BuildConfig for one invocation.
//
// Sources are layered, later ones winning:
//
//  1. embedded defaults (embedded/defaults.toml)
//  2. projectConfig.csv in the project directory (Name,Path rows)
//  3. fwprov.toml, then fwprov.yaml, in the project directory, if present
//  4. FWPROV_* environment variables
//  5. key=value tokens given on the command line
//
// Keys the struct does not know are kept in BuildConfig.Extra.
package config
