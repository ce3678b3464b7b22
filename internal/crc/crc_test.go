package crc

import "testing"

func TestCRC7(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{
			name: "CMD0 idle frame",
			// 40 00 00 00 00 -> well-known CRC7 for GO_IDLE_STATE(0) is 0x4A,
			// giving the canonical trailer byte 0x95 ((0x4A<<1)|1).
			data: []byte{0x40, 0x00, 0x00, 0x00, 0x00},
			want: 0x4A,
		},
		{
			name: "CMD8 0x1AA frame",
			// 48 00 00 01 AA -> well-known CRC7 for SEND_IF_COND(0x1AA) is
			// 0x43, giving the canonical trailer byte 0x87.
			data: []byte{0x48, 0x00, 0x00, 0x01, 0xAA},
			want: 0x43,
		},
		{
			name: "all zero",
			data: []byte{0x00, 0x00, 0x00, 0x00, 0x00},
			want: 0x00,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CRC7(tt.data); got != tt.want {
				t.Errorf("CRC7(%X) = %#02x, want %#02x", tt.data, got, tt.want)
			}
		})
	}
}

func TestCRC7_DiffersOnCorruption(t *testing.T) {
	t.Parallel()
	base := []byte{0x51, 0x00, 0x00, 0x00, 0x00}
	want := CRC7(base)

	corrupted := append([]byte(nil), base...)
	corrupted[2] ^= 0x01
	if got := CRC7(corrupted); got == want {
		t.Errorf("CRC7 did not change after single-bit corruption: still %#02x", got)
	}
}

func TestCRC16(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{
			name: "empty",
			data: []byte{},
			want: 0x0000,
		},
		{
			name: "single zero byte",
			data: []byte{0x00},
			want: 0x0000,
		},
		{
			name: "single 0x01 byte",
			data: []byte{0x01},
			want: 0x1021,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CRC16(tt.data); got != tt.want {
				t.Errorf("CRC16(%X) = %#04x, want %#04x", tt.data, got, tt.want)
			}
		})
	}
}

func TestCRC16_DetectsCorruption(t *testing.T) {
	t.Parallel()
	block := make([]byte, 512)
	for i := range block {
		block[i] = byte(i)
	}
	want := CRC16(block)

	corrupted := append([]byte(nil), block...)
	corrupted[300] ^= 0x80
	if got := CRC16(corrupted); got == want {
		t.Errorf("CRC16 did not change after single-bit corruption: still %#04x", got)
	}
}
