package fat32

import (
	"errors"
	"testing"
)

func name8(s string) [8]byte {
	var out [8]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[:], s)
	return out
}

func ext3(s string) [3]byte {
	var out [3]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[:], s)
	return out
}

func Test_decodeShortName(t *testing.T) {
	tests := []struct {
		name  string
		base  [8]byte
		ext   [3]byte
		isDir bool
		want  string
	}{
		{
			name: "file with extension",
			base: name8("HELLO"),
			ext:  ext3("TXT"),
			want: "HELLO.TXT",
		},
		{
			name: "file without extension",
			base: name8("KERNEL"),
			ext:  ext3(""),
			want: "KERNEL",
		},
		{
			name:  "directory never gets a dot",
			base:  name8("BOOT"),
			ext:   ext3("   "),
			isDir: true,
			want:  "BOOT",
		},
		{
			name: "full 8.3 name",
			base: name8("ABCDEFGH"),
			ext:  ext3("IJK"),
			want: "ABCDEFGH.IJK",
		},
		{
			name: "leading 0x05 stands for 0xE5",
			base: [8]byte{0x05, 'X', ' ', ' ', ' ', ' ', ' ', ' '},
			ext:  ext3(""),
			want: string(rune(0x03C3)) + "X", // 0xE5 is sigma in code page 437
		},
		{
			name: "code page 437 high half",
			base: [8]byte{0x80, 0x9C, ' ', ' ', ' ', ' ', ' ', ' '},
			ext:  ext3(""),
			want: "Ç£",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeShortName(tt.base, tt.ext, tt.isDir); got != tt.want {
				t.Errorf("decodeShortName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_decodeUTF16(t *testing.T) {
	tests := []struct {
		name    string
		units   []uint16
		want    string
		wantErr bool
	}{
		{
			name:  "plain ascii",
			units: []uint16{'a', 'b', 'c'},
			want:  "abc",
		},
		{
			name:  "surrogate pair",
			units: []uint16{0xD83D, 0xDE00},
			want:  "\U0001F600",
		},
		{
			name:    "high surrogate without low",
			units:   []uint16{0xD83D, 'x'},
			wantErr: true,
		},
		{
			name:    "high surrogate at end",
			units:   []uint16{'a', 0xD83D},
			wantErr: true,
		},
		{
			name:    "stray low surrogate",
			units:   []uint16{0xDE00},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeUTF16(tt.units)
			if (err != nil) != tt.wantErr {
				t.Errorf("decodeUTF16() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidName) {
				t.Errorf("decodeUTF16() error = %v, want ErrInvalidName", err)
			}
			if got != tt.want {
				t.Errorf("decodeUTF16() = %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_decodeLongFragment(t *testing.T) {
	long := &LongEntry{
		Name1: [5]uint16{'h', 'e', 'l', 'l', 'o'},
		Name2: [6]uint16{'.', 't', 'x', 't', 0, 0xFFFF},
		Name3: [2]uint16{0xFFFF, 0xFFFF},
	}

	got, err := decodeLongFragment(long)
	if err != nil {
		t.Fatalf("decodeLongFragment() error = %v", err)
	}
	if got != "hello.txt" {
		t.Errorf("decodeLongFragment() = %q, want %q", got, "hello.txt")
	}
}

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		base [8]byte
		ext  [3]byte
		want byte
	}{
		{name: "HELLO.TXT", base: name8("HELLO"), ext: ext3("TXT"), want: 0xF1},
		{name: "FOO.BAR", base: name8("FOO"), ext: ext3("BAR"), want: 0x53},
		{name: "README.TXT", base: name8("README"), ext: ext3("TXT"), want: 0x73},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.base, tt.ext); got != tt.want {
				t.Errorf("Checksum() = %#02x, want %#02x", got, tt.want)
			}
		})
	}
}
