// File codec.go decodes the two on-disk name encodings: code-page 437 for
// 8.3 short names and UTF-16LE for long-name fragments.

package fat32

import (
	"strings"
	"unicode/utf16"

	"github.com/fennelos/storage/errtrace"
)

// cp437High maps bytes 0x80-0xFF of code page 437 to their Unicode code
// points. Bytes below 0x80 are plain ASCII.
var cp437High = [128]rune{
	'Ç', 'ü', 'é', 'â', 'ä', 'à', 'å', 'ç', 'ê', 'ë', 'è', 'ï', 'î', 'ì', 'Ä', 'Å',
	'É', 'æ', 'Æ', 'ô', 'ö', 'ò', 'û', 'ù', 'ÿ', 'Ö', 'Ü', '¢', '£', '¥', '₧', 'ƒ',
	'á', 'í', 'ó', 'ú', 'ñ', 'Ñ', 'ª', 'º', '¿', '⌐', '¬', '½', '¼', '¡', '«', '»',
	'░', '▒', '▓', '│', '┤', '╡', '╢', '╖', '╕', '╣', '║', '╗', '╝', '╜', '╛', '┐',
	'└', '┴', '┬', '├', '─', '┼', '╞', '╟', '╚', '╔', '╩', '╦', '╠', '═', '╬', '╧',
	'╨', '╤', '╥', '╙', '╘', '╒', '╓', '╫', '╪', '┘', '┌', '█', '▄', '▌', '▐', '▀',
	'α', 'ß', 'Γ', 'π', 'Σ', 'σ', 'µ', 'τ', 'Φ', 'Θ', 'Ω', 'δ', '∞', 'φ', 'ε', '∩',
	'≡', '±', '≥', '≤', '⌠', '⌡', '÷', '≈', '°', '∙', '·', '√', 'ⁿ', '²', '■', ' ',
}

// decodeCP437 turns one short-name byte into its Unicode code point.
func decodeCP437(b byte) rune {
	if b < 0x80 {
		return rune(b)
	}
	return cp437High[b-0x80]
}

// decodeShortName builds the display name of a short entry: code-page 437
// decoding, trailing spaces stripped, and a dot between name and extension
// only when the entry is a file with a non-empty extension. A leading 0x05
// byte stands for a real 0xE5.
func decodeShortName(name [8]byte, ext [3]byte, isDir bool) string {
	if name[0] == entryKanjiE5 {
		name[0] = entryDeleted
	}

	var sb strings.Builder
	for _, b := range name {
		sb.WriteRune(decodeCP437(b))
	}
	base := strings.TrimRight(sb.String(), " ")

	sb.Reset()
	for _, b := range ext {
		sb.WriteRune(decodeCP437(b))
	}
	extension := strings.TrimRight(sb.String(), " ")

	if isDir || extension == "" {
		return base
	}
	return base + "." + extension
}

// decodeLongFragment extracts the up-to-13 UTF-16 code units of one
// long-name fragment. Long names are null-terminated; everything from the
// first zero unit on (usually 0xFFFF padding) is ignored. Malformed UTF-16
// (an unpaired surrogate) fails with ErrInvalidName.
func decodeLongFragment(e *LongEntry) (string, error) {
	units := make([]uint16, 0, 13)
	units = append(units, e.Name1[:]...)
	units = append(units, e.Name2[:]...)
	units = append(units, e.Name3[:]...)

	end := len(units)
	for i, u := range units {
		if u == 0 {
			end = i
			break
		}
	}

	return decodeUTF16(units[:end])
}

func decodeUTF16(units []uint16) (string, error) {
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u >= 0xD800 && u < 0xDC00:
			// High surrogate needs a low surrogate right after it.
			if i+1 >= len(units) || units[i+1] < 0xDC00 || units[i+1] >= 0xE000 {
				return "", errtrace.From(ErrInvalidName)
			}
			i++
		case u >= 0xDC00 && u < 0xE000:
			return "", errtrace.From(ErrInvalidName)
		}
	}

	return string(utf16.Decode(units)), nil
}

// Checksum computes the checksum every long-name fragment stores for its
// short entry: rotate right by one, then add the next of the 11 raw
// name+extension bytes, all in 8-bit arithmetic.
func Checksum(name [8]byte, ext [3]byte) byte {
	var sum byte
	for _, b := range name {
		sum = (sum&1)<<7 + sum>>1 + b
	}
	for _, b := range ext {
		sum = (sum&1)<<7 + sum>>1 + b
	}
	return sum
}
