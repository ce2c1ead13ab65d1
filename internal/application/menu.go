package application

import (
	"github.com/JonMunkholm/beb64/internal/transcode"
	tea "github.com/charmbracelet/bubbletea"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

func buildMenuTree(m *Model) *Menu {
	text := &Menu{
		Title: "Text",
		Items: []MenuItem{
			{Label: "Encode text", Action: func() tea.Cmd { return m.prompt(actionEncodeText) }},
			{Label: "Decode text", Action: func() tea.Cmd { return m.prompt(actionDecodeText) }},
			{Label: "Back"},
		},
	}

	files := &Menu{
		Title: "Files",
		Items: []MenuItem{
			{Label: "Encode file", Action: func() tea.Cmd { return m.prompt(actionEncodeFile) }},
			{Label: "Decode file", Action: func() tea.Cmd { return m.prompt(actionDecodeFile) }},
			{Label: "Back"},
		},
	}

	settings := &Menu{
		Title: "Settings",
		Items: []MenuItem{
			{Label: "Lenient decoding", Action: func() tea.Cmd { return m.setMode(transcode.ModeLenient) }},
			{Label: "Strict decoding", Action: func() tea.Cmd { return m.setMode(transcode.ModeStrict) }},
			{Label: "Toggle theme", Action: func() tea.Cmd { return m.SetTheme(m.theme.Toggle()) }},
			{Label: "Back"},
		},
	}

	root := &Menu{
		Title: "beb64",
		Items: []MenuItem{
			{Label: "Text ->", Submenu: text},
			{Label: "Files ->", Submenu: files},
			{Label: "Settings ->", Submenu: settings},
			{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
		},
	}

	linkParents(root, nil)

	return root
}
