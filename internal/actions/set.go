package actions

// Set groups the actions a run performs around the engine.
type Set struct {
	Lookups         []Action
	Terminate       Action
	Services        Action
	Tasks           Action
	Shortcuts       Action
	RegistryCleanup Action
	Features        Action
	Integration     Action
	Policy          Action
	Telemetry       Action
	RecycleBin      Action
	FlushDNS        Action
}

// Default returns the platform's actions. shortcutDirs are the folders
// searched for application shortcuts.
func Default(shortcutDirs []string) Set {
	return Set{
		Lookups:         Lookups(),
		Terminate:       Terminate(),
		Services:        Services(),
		Tasks:           Tasks(),
		Shortcuts:       Shortcuts(shortcutDirs),
		RegistryCleanup: RegistryCleanup(),
		Features:        Features(),
		Integration:     Integration(),
		Policy:          Policy(),
		Telemetry:       Telemetry(),
		RecycleBin:      RecycleBin(),
		FlushDNS:        FlushDNS(),
	}
}
