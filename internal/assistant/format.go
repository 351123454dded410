package assistant

import (
	"fmt"
	"strings"
)

const helpText = "Hi! I can help you with tasks. You can:\n\n" +
	"• Add a new task\n" +
	"• Update a task\n" +
	"• Delete a task\n" +
	"• View all tasks\n\n" +
	"What would you like to do?"

// FormatTaskList renders tasks numbered from 1 in slice order under header.
func FormatTaskList(header string, tasks []Task) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, t := range tasks {
		fmt.Fprintf(&b, "%d. %s %s\n   📅 %s at %s\n   ⚡ %s\n\n",
			i+1, statusGlyph(t), t.Title, t.DueDate, t.DueTime, t.Priority)
	}
	return strings.TrimSpace(b.String())
}

func statusGlyph(t Task) string {
	if t.Completed {
		return "✅"
	}
	return "⏳"
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func summaryLines(t Task) string {
	return fmt.Sprintf("📝 %s\n📅 %s at %s\n⚡ Priority: %s\n🔔 Reminder: %s",
		t.Title, t.DueDate, t.DueTime, t.Priority, yesNo(t.Reminder))
}

func createdSummary(t Task) string {
	return "✅ Task created!\n\n" + summaryLines(t) + "\n\nAnything else I can help with?"
}

func updatedSummary(t Task) string {
	return "✅ Task updated!\n\n" + summaryLines(t)
}

func updateMenu(t Task) string {
	toggle := "complete"
	if t.Completed {
		toggle = "incomplete"
	}
	return "What would you like to change?\n\n" +
		"1. Title\n" +
		"2. Date/Time\n" +
		"3. Priority\n" +
		"4. Reminder\n" +
		"5. Mark as " + toggle
}
