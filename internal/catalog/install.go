package catalog

// DefaultInstallTool is the CLI that installs hub models
const DefaultInstallTool = "openuba"

// InstallCommand returns the command users copy to install the named model.
func InstallCommand(name string) string {
	return FormatInstallCommand(DefaultInstallTool, name)
}

// FormatInstallCommand builds "<tool> install <name>". The name is inserted
// verbatim.
func FormatInstallCommand(tool, name string) string {
	return tool + " install " + name
}
