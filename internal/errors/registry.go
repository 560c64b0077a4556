package errors

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Config errors (E100-E119)
	"E101": {Category: CategoryConfig, Message: "Config file not found"},
	"E102": {Category: CategoryConfig, Message: "Config file could not be parsed"},
	"E103": {Category: CategoryConfig, Message: "Invalid server setting"},
	"E104": {Category: CategoryConfig, Message: "Invalid log level"},
	"E105": {Category: CategoryConfig, Message: "Invalid snapshot setting"},

	// Graph errors (E120-E139)
	"E120": {Category: CategoryGraph, Message: "Signal has no name"},
	"E121": {Category: CategoryGraph, Message: "Duplicate signal name"},
	"E122": {Category: CategoryGraph, Message: "Unknown signal type"},
	"E123": {Category: CategoryGraph, Message: "Initial value does not match signal type"},
	"E124": {Category: CategoryGraph, Message: "Unknown dependency"},
	"E125": {Category: CategoryGraph, Message: "Dependency type mismatch"},
	"E126": {Category: CategoryGraph, Message: "Unknown computed operation"},
	"E127": {Category: CategoryGraph, Message: "Computed has no dependencies"},
	"E128": {Category: CategoryGraph, Message: "Wrong number of dependencies"},

	// Snapshot errors (E140-E149)
	"E140": {Category: CategorySnapshot, Message: "Snapshot could not be loaded"},
	"E141": {Category: CategorySnapshot, Message: "Snapshot could not be saved"},

	// CLI errors (E150-E159)
	"E150": {Category: CategoryCLI, Message: "Invalid assignment"},
	"E151": {Category: CategoryCLI, Message: "File already exists"},
	"E152": {Category: CategoryCLI, Message: "Write rejected"},
}
