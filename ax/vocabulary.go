package ax

// The bounded vocabulary of the target platform's introspection model that
// this core traffics in. The platform defines many more names; downstream
// consumers pass any string they need, these are just the ones the core and
// its diagnostics reference.

// Attribute names
const (
	AttrRole            = "AXRole"
	AttrSubrole         = "AXSubrole"
	AttrRoleDescription = "AXRoleDescription"
	AttrTitle           = "AXTitle"
	AttrDescription     = "AXDescription"
	AttrValue           = "AXValue"
	AttrHelp            = "AXHelp"
	AttrIdentifier      = "AXIdentifier"
	AttrEnabled         = "AXEnabled"
	AttrFocused         = "AXFocused"
	AttrSelected        = "AXSelected"
	AttrPosition        = "AXPosition"
	AttrSize            = "AXSize"
	AttrFrame           = "AXFrame"
	AttrURL             = "AXURL"
	AttrDocument        = "AXDocument"

	AttrParent   = "AXParent"
	AttrChildren = "AXChildren"
	AttrContents = "AXContents"
	AttrWindows  = "AXWindows"
	AttrWindow   = "AXWindow"

	AttrMainWindow       = "AXMainWindow"
	AttrFocusedWindow    = "AXFocusedWindow"
	AttrFocusedUIElement = "AXFocusedUIElement"

	AttrSelectedText          = "AXSelectedText"
	AttrSelectedTextRange     = "AXSelectedTextRange"
	AttrNumberOfCharacters    = "AXNumberOfCharacters"
	AttrVisibleCharacterRange = "AXVisibleCharacterRange"
)

// Parameterized attribute names
const (
	ParamAttrStringForRange           = "AXStringForRange"
	ParamAttrAttributedStringForRange = "AXAttributedStringForRange"
	ParamAttrRangeForLine             = "AXRangeForLine"
	ParamAttrBoundsForRange           = "AXBoundsForRange"
)

// Role values
const (
	RoleApplication = "AXApplication"
	RoleSystemWide  = "AXSystemWide"
	RoleWindow      = "AXWindow"
	RoleSheet       = "AXSheet"
	RoleGroup       = "AXGroup"
	RoleScrollArea  = "AXScrollArea"
	RoleWebArea     = "AXWebArea"
	RoleList        = "AXList"
	RoleTable       = "AXTable"
	RoleOutline     = "AXOutline"
	RoleRow         = "AXRow"
	RoleCell        = "AXCell"
	RoleButton      = "AXButton"
	RoleStaticText  = "AXStaticText"
	RoleTextField   = "AXTextField"
	RoleTextArea    = "AXTextArea"
	RoleImage       = "AXImage"
	RoleLink        = "AXLink"
	RoleMenu        = "AXMenu"
	RoleMenuItem    = "AXMenuItem"
	RoleToolbar     = "AXToolbar"
	RoleUnknown     = "AXUnknown"
)

// Action names
const (
	ActionPress    = "AXPress"
	ActionRaise    = "AXRaise"
	ActionConfirm  = "AXConfirm"
	ActionCancel   = "AXCancel"
	ActionShowMenu = "AXShowMenu"
)

// Notification names
const (
	NotificationWindowCreated           = "AXWindowCreated"
	NotificationWindowMoved             = "AXWindowMoved"
	NotificationWindowResized           = "AXWindowResized"
	NotificationWindowMiniaturized      = "AXWindowMiniaturized"
	NotificationWindowDeminiaturized    = "AXWindowDeminiaturized"
	NotificationMainWindowChanged       = "AXMainWindowChanged"
	NotificationFocusedWindowChanged    = "AXFocusedWindowChanged"
	NotificationFocusedElementChanged   = "AXFocusedUIElementChanged"
	NotificationApplicationActivated    = "AXApplicationActivated"
	NotificationApplicationDeactivated  = "AXApplicationDeactivated"
	NotificationApplicationHidden       = "AXApplicationHidden"
	NotificationApplicationShown        = "AXApplicationShown"
	NotificationValueChanged            = "AXValueChanged"
	NotificationTitleChanged            = "AXTitleChanged"
	NotificationSelectedTextChanged     = "AXSelectedTextChanged"
	NotificationSelectedChildrenChanged = "AXSelectedChildrenChanged"
	NotificationRowCountChanged         = "AXRowCountChanged"
	NotificationLayoutChanged           = "AXLayoutChanged"
	NotificationCreated                 = "AXCreated"
	NotificationElementDestroyed        = "AXUIElementDestroyed"
)

// Notification payload keys
const (
	PayloadKeyElement = "element"
	PayloadKeyRole    = "role"
	PayloadKeyTitle   = "title"
)

// DefaultDumpAttributes is the bounded attribute set the diagnostic dump
// reads per node.
var DefaultDumpAttributes = []string{
	AttrRole,
	AttrSubrole,
	AttrTitle,
	AttrDescription,
	AttrValue,
	AttrIdentifier,
	AttrEnabled,
	AttrFocused,
	AttrPosition,
	AttrSize,
}
