package tui

func truncateText(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(text) <= width {
		return text
	}
	if width <= 3 {
		return text[:width]
	}
	return text[:width-3] + "..."
}

// truncatePath keeps the end of a path, where the file name is.
func truncatePath(p string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(p) <= width {
		return p
	}
	if width <= 3 {
		return p[len(p)-width:]
	}
	return "..." + p[len(p)-(width-3):]
}
