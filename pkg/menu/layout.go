package menu

// NotebookMenu is the context menu of a notebook in the sidebar.
var NotebookMenu = Layout{
	E("New"),
	E("Delete"),
	E("Rename"),
	E("Export", E("JEX"), E("RAW"), E("MD"), E("HTML"), E("PDF")),
}

// NoteMenu is the context menu of a note in the note list.
var NoteMenu = Layout{
	E("Add tags"),
	E("Move to notebook"),
	E("Duplicate"),
	E("Edit in external editor"),
	E("Switch between note and to-do"),
	E("Copy Markdown link"),
	E("Share note"),
	E("Delete"),
}

// TopMenu is the application menu bar. Names only need to be recognisable,
// not identical to the rendered labels; order is what matters.
var TopMenu = Layout{
	E("File",
		E("New note"),
		E("New to-do"),
		E("New notebook"),
		E("New sub-notebook"),
		E("Import",
			E("JEX"),
			E("MD (File)"),
			E("MD (Directory)"),
			E("RAW"),
			E("ENEX (Markdown)"),
			E("ENEX (HTML)"),
		),
		E("Export all", E("JEX"), E("RAW"), E("MD"), E("HTML"), E("PDF")),
		E("Synchronize"),
		E("Print"),
		E("Quit"),
	),
	E("Edit",
		E("Copy"),
		E("Cut"),
		E("Paste"),
		E("Select all"),
		E("Undo"),
		E("Redo"),
		E("Bold"),
		E("Italic"),
		E("Hyperlink"),
		E("Code"),
		E("Insert Date Time"),
		E("Attach file"),
		E("Delete line"),
		E("Duplicate line"),
		E("Toggle comment"),
		E("Sort selected lines"),
		E("Indent less"),
		E("Indent more"),
		E("Swap line down"),
		E("Swap line up"),
		E("Search all notes"),
		E("Search current note"),
	),
	E("View",
		E("Change application layout"),
		E("Toggle sidebar"),
		E("Toggle note list"),
		E("Toggle editor layout"),
		E("Layout button sequence",
			E("Editor / Viewer / Split view"),
			E("Editor / Viewer"),
			E("Editor / Split view"),
			E("Viewer / Split view"),
		),
		E("Sort notes by",
			E("Updated"),
			E("Created"),
			E("Title"),
			E("Custom"),
			E("Reverse"),
		),
		E("Sort notebooks by", E("Title"), E("Updated"), E("Reverse")),
		E("Show note counts"),
		E("Uncompleted todos on top"),
		E("Show completed todos"),
		E("Actual size"),
		E("Zoom in"),
		E("Zoom out"),
	),
	E("Go",
		E("Back"),
		E("Forward"),
		E("Focus",
			E("Sidebar"),
			E("Note list"),
			E("Note title"),
			E("Note body"),
		),
		E("Goto anything"),
	),
	E("Notebook", E("Share")),
	E("Note",
		E("Toggle external editing"),
		E("Tags"),
		E("Publish note"),
		E("Statistics"),
	),
	E("Tools",
		E("Options"),
		E("Note attachments"),
		E("Spell checker", E("Use"), E("[Language]"), E("Choose language")),
		E("Command palette"),
	),
	E("Help",
		E("Website and docs"),
		E("Forum"),
		E("Donation"),
		E("Updates"),
		E("Synchronisation status"),
		E("Development tools"),
		E("Safe mode"),
		E("Open profile directory"),
		E("Copy dev mode command"),
		E("About"),
	),
}
