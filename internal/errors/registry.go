package errors

import "sort"

// Registered error codes.
const (
	CodePartMismatch       = "W001"
	CodeStrictSlotMismatch = "W002"
	CodeHookOrder          = "W003"
	CodeHookOutsideRender  = "W004"
	CodeUnresolvedValue    = "W005"
	CodeBindingDetached    = "W006"
	CodeRenderLoop         = "W010"

	CodeRenderPanic  = "W020"
	CodeEffectPanic  = "W021"
	CodeReducerPanic = "W022"
	CodeTaskAborted  = "W023"

	CodeConfigParse   = "W040"
	CodeConfigInvalid = "W041"
	CodeConfigMissing = "W042"

	CodeCLIUsage = "W060"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Protocol Errors (W001-W019)
	// ============================================

	CodePartMismatch: {
		Category: CategoryProtocol,
		Message:  "Directive used at an unsupported part",
	},
	CodeStrictSlotMismatch: {
		Category: CategoryProtocol,
		Message:  "Directive changed in a strict slot",
	},
	CodeHookOrder: {
		Category: CategoryProtocol,
		Message:  "Hook order changed between renders",
	},
	CodeHookOutsideRender: {
		Category: CategoryProtocol,
		Message:  "Hook called outside of a render",
	},
	CodeUnresolvedValue: {
		Category: CategoryProtocol,
		Message:  "No directive can handle this value",
	},
	CodeBindingDetached: {
		Category: CategoryProtocol,
		Message:  "Binding used after it was detached",
	},
	CodeRenderLoop: {
		Category: CategoryProtocol,
		Message:  "Render loop did not settle",
	},

	// ============================================
	// Runtime Errors (W020-W039)
	// ============================================

	CodeRenderPanic: {
		Category: CategoryRuntime,
		Message:  "Render panicked",
	},
	CodeEffectPanic: {
		Category: CategoryRuntime,
		Message:  "Effect panicked",
	},
	CodeReducerPanic: {
		Category: CategoryRuntime,
		Message:  "Reducer panicked",
	},
	CodeTaskAborted: {
		Category: CategoryRuntime,
		Message:  "Update task aborted",
	},

	// ============================================
	// Config Errors (W040-W059)
	// ============================================

	CodeConfigParse: {
		Category: CategoryConfig,
		Message:  "Failed to parse configuration",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	CodeConfigMissing: {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
	},

	// ============================================
	// CLI Errors (W060-W079)
	// ============================================

	CodeCLIUsage: {
		Category: CategoryCLI,
		Message:  "Invalid command usage",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for a code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
