package styles

// Icons used by the task view and toasts. Plain unicode so no patched font
// is required.
const (
	IconCheckDone     = "✓"
	IconCheckOpen     = "○"
	IconCursor        = "›"
	IconExpanded      = "▾"
	IconCollapsed     = "▸"
	IconUser          = "●"
	IconNotifyInfo    = "ℹ"
	IconNotifyWarning = "⚠"
	IconNotifyError   = "✗"
)
