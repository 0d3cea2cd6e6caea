package config

// Defaults shared by the CLI and the public facade.
const (
	DefaultBuildRoot     = "build"
	DefaultDependencyDir = "node_modules"
	DefaultStylesDir     = DefaultBuildRoot + "/styles"
	DefaultScriptsDir    = DefaultBuildRoot + "/scripts"
	DefaultManifestGlob  = DefaultBuildRoot + "/**/*.{css,js,map}"
	DefaultManifestPath  = DefaultBuildRoot + "/manifest.json"
)
