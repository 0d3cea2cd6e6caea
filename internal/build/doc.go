// Package build runs the asset tasks declared in a project file.
//
// Styles and scripts are independent and run concurrently; the manifest is
// generated afterwards from whatever they wrote. All execution paths (CLI
// commands, the dev loop, tests) route through Service.
package build
