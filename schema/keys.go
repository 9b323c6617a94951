package schema

// DefaultNamespace is the configuration namespace holding the selection keys.
const DefaultNamespace = "walklight_settings"

const (
	// KeyNamespaceID stores the namespace id of the chosen component.
	KeyNamespaceID = "companion_app_package"
	// KeyMemberID stores the member id of the chosen component.
	KeyMemberID = "companion_app_class"
	// KeyDisplayName stores the resolved display name.
	KeyDisplayName = "companion_app_name"
)

// SelectionKeys lists the persisted keys in write order.
var SelectionKeys = []string{KeyNamespaceID, KeyMemberID, KeyDisplayName}
