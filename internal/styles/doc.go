// Package styles compiles stylesheet entry points into CSS bundles.
//
// Each input is compiled (Sass sources) or read verbatim (plain CSS), passed
// through a fixed plugin chain (utility framework first, vendor prefixing
// last) and written to <outDir>/<name>.css together with its source map.
// The stylesheet and its map are always replaced as a pair.
package styles
