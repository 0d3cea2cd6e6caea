// Package scripts bundles JavaScript entry points from a declarative config
// file, either once (Build) or as a persistent watch session (Watch).
package scripts
