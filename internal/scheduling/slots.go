package scheduling

// timeSlots is the fixed set of bookable half-hour slots. Mornings run
// 08:00-12:30, afternoons 14:00-17:30; the lunch gap is never offered.
var timeSlots = []string{
	"08:00", "08:30", "09:00", "09:30", "10:00", "10:30",
	"11:00", "11:30", "12:00", "12:30", "14:00", "14:30",
	"15:00", "15:30", "16:00", "16:30", "17:00", "17:30",
}

// Slots returns the bookable time slots in display order.
func Slots() []string {
	out := make([]string, len(timeSlots))
	copy(out, timeSlots)
	return out
}

// IsSlot reports whether s is one of the offered time slots.
func IsSlot(s string) bool {
	for _, slot := range timeSlots {
		if slot == s {
			return true
		}
	}
	return false
}
