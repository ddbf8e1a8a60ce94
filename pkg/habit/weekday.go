package habit

import "time"

// Weekday is the canonical weekday numbering used everywhere inside this
// package: ISO, Monday=1 through Sunday=7. Stored preferences and
// notification triggers that use platform numbering (1=Sunday..7=Saturday)
// are translated at the edges, never inside the core.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return "Invalid"
	}
	return weekdayNames[d-1]
}

// WeekdayOf converts a stdlib time.Weekday (Sunday=0) to the canonical form.
func WeekdayOf(t time.Weekday) Weekday {
	if t == time.Sunday {
		return Sunday
	}
	return Weekday(t)
}

// FromPlatform converts platform numbering (1=Sunday..7=Saturday) to
// canonical. Out-of-range input returns Monday.
func FromPlatform(p int) Weekday {
	if p < 1 || p > 7 {
		return Monday
	}
	return Weekday((p+5)%7 + 1)
}

// Platform converts canonical back to platform numbering (1=Sunday..7=Saturday).
func (d Weekday) Platform() int {
	return (int(d) % 7) + 1
}

// WeekdaySet is a 7-bit mask of active weekdays, bit position keyed by the
// canonical weekday (bit 0 = Monday). The mask is independent of any
// first-weekday display preference.
type WeekdaySet uint8

const AllWeekdays WeekdaySet = 0x7F

func NewWeekdaySet(days ...Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// WeekdaySetFromMask builds a set from a raw 7-bit integer, masking off
// anything beyond the low seven bits.
func WeekdaySetFromMask(mask int) WeekdaySet {
	return WeekdaySet(mask) & AllWeekdays
}

func (s WeekdaySet) Mask() int { return int(s) }

func (s WeekdaySet) Has(d Weekday) bool {
	if d < Monday || d > Sunday {
		return false
	}
	return s&(1<<(d-1)) != 0
}

func (s WeekdaySet) With(d Weekday) WeekdaySet {
	if d < Monday || d > Sunday {
		return s
	}
	return s | 1<<(d-1)
}

func (s WeekdaySet) Without(d Weekday) WeekdaySet {
	if d < Monday || d > Sunday {
		return s
	}
	return s &^ (1 << (d - 1))
}

func (s WeekdaySet) Count() int {
	n := 0
	for d := Monday; d <= Sunday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

func (s WeekdaySet) Empty() bool { return s&AllWeekdays == 0 }

// Days returns the members in canonical order.
func (s WeekdaySet) Days() []Weekday {
	out := make([]Weekday, 0, 7)
	for d := Monday; d <= Sunday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// WeekStart resolves the stored first-weekday preference: 0 means use the
// platform default, 1..7 is an explicit choice in platform numbering.
func WeekStart(pref int, platformDefault Weekday) Weekday {
	if pref >= 1 && pref <= 7 {
		return FromPlatform(pref)
	}
	if platformDefault < Monday || platformDefault > Sunday {
		return Monday
	}
	return platformDefault
}

// OrderedWeek returns the seven weekdays starting from first, the order in
// which weekday columns and toggle buttons are presented. Callers must
// re-derive after a preference change; the result is never cached here.
func OrderedWeek(first Weekday) [7]Weekday {
	var out [7]Weekday
	for i := 0; i < 7; i++ {
		out[i] = first.addDays(i)
	}
	return out
}

// OrderIndex maps a canonical weekday to its position (0..6) in the week
// starting from first.
func OrderIndex(first, d Weekday) int {
	return (int(d) - int(first) + 7) % 7
}

// WeekdayAt is the inverse of OrderIndex.
func WeekdayAt(first Weekday, i int) Weekday {
	return first.addDays(i)
}

// OrderedBools expands the set to a [7]bool keyed by position in the week
// starting from first. This is the single conversion point between the
// canonical mask and user-ordered presentation.
func (s WeekdaySet) OrderedBools(first Weekday) [7]bool {
	var out [7]bool
	for i := 0; i < 7; i++ {
		out[i] = s.Has(WeekdayAt(first, i))
	}
	return out
}

// WeekdaySetFromOrderedBools is the inverse of OrderedBools.
func WeekdaySetFromOrderedBools(first Weekday, b [7]bool) WeekdaySet {
	var s WeekdaySet
	for i := 0; i < 7; i++ {
		if b[i] {
			s = s.With(WeekdayAt(first, i))
		}
	}
	return s
}

func (d Weekday) addDays(n int) Weekday {
	return Weekday((int(d)-1+n)%7 + 1)
}
