// Package presets provides theme declarations embedded at build time.
package presets

import _ "embed"

// TailwindConfigName is the file name init writes the default preset to.
const TailwindConfigName = "tailwind.config.js"

// TailwindConfig is the default site theme: light/dark surface, accent,
// border, link and code colors with content globs for layouts and
// markdown pages.
//
//go:embed tailwind.config.js
var TailwindConfig []byte
