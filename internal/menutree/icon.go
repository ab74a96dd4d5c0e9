package menutree

// Icon identifies one of the icons the navigation sidebar can draw.
type Icon string

// Supported icons.  Anything else is rejected on write and dropped on read.
const (
	IconLayoutDashboard Icon = "LayoutDashboard"
	IconSettings        Icon = "Settings"
	IconUsers           Icon = "Users"
	IconUserCircle      Icon = "UserCircle"
	IconShield          Icon = "Shield"
	IconMenu            Icon = "Menu"
	IconMonitor         Icon = "Monitor"
	IconBarChart        Icon = "BarChart"
	IconDatabase        Icon = "Database"
	IconPieChart        Icon = "PieChart"
	IconFileBarChart    Icon = "FileBarChart"
	IconExternalLink    Icon = "ExternalLink"
	IconHome            Icon = "Home"
	IconFolder          Icon = "Folder"
	IconFileText        Icon = "FileText"
	IconLock            Icon = "Lock"
)

var icons = map[string]Icon{
	string(IconLayoutDashboard): IconLayoutDashboard,
	string(IconSettings):        IconSettings,
	string(IconUsers):           IconUsers,
	string(IconUserCircle):      IconUserCircle,
	string(IconShield):          IconShield,
	string(IconMenu):            IconMenu,
	string(IconMonitor):         IconMonitor,
	string(IconBarChart):        IconBarChart,
	string(IconDatabase):        IconDatabase,
	string(IconPieChart):        IconPieChart,
	string(IconFileBarChart):    IconFileBarChart,
	string(IconExternalLink):    IconExternalLink,
	string(IconHome):            IconHome,
	string(IconFolder):          IconFolder,
	string(IconFileText):        IconFileText,
	string(IconLock):            IconLock,
}

// LookupIcon maps a stored icon name to a supported icon.
func LookupIcon(name string) (Icon, bool) {
	i, ok := icons[name]
	return i, ok
}

// SanitizeIcon returns name when it is a supported icon and "" otherwise.
func SanitizeIcon(name string) string {
	if i, ok := icons[name]; ok {
		return string(i)
	}
	return ""
}
