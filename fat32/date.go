package fat32

import "time"

// ParseDate reads a 16-bit FAT date stamp, days counted from the MS-DOS
// epoch of 01/01/1980: bits 0-4 day of month (1-31), bits 5-8 month (1-12),
// bits 9-15 years since 1980 (0-127).
//
// Day or month 0 is invalid per the on-disk format, in which case the zero
// time.Time is returned so callers can use time.Time.IsZero.
func ParseDate(input uint16) time.Time {
	day := input & 0x1F
	month := input & 0x1E0 >> 5
	year := input & 0xFE00 >> 9

	if day == 0 || month == 0 {
		return time.Time{}
	}

	return time.Date(1980+int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
}

// ParseTime reads a 16-bit FAT time stamp with two-second granularity:
// bits 0-4 two-second count (0-29), bits 5-10 minutes, bits 11-15 hours.
// The result always carries the date January 1, year 1. Out-of-range values
// saturate at 23:59:59.
func ParseTime(input uint16) time.Time {
	seconds := int(input&0x1F) * 2
	minutes := input & 0x7E0 >> 5
	hours := input & 0xF800 >> 11

	result := time.Date(1, 1, 1, int(hours), int(minutes), seconds, 0, time.UTC)

	if result.Day() > 1 {
		return time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)
	}

	return result
}

// ModTime combines the entry's write date and time stamps. An invalid date
// yields the zero time.
func (e *Entry) ModTime() time.Time {
	date := ParseDate(e.Header.WriteDate)
	if date.IsZero() {
		return time.Time{}
	}

	clock := ParseTime(e.Header.WriteTime)

	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
}
