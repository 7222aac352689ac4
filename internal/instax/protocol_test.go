package instax

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// checkFraming verifies header, declared length, and checksum of a packet.
func checkFraming(t *testing.T, pkt []byte) {
	t.Helper()
	if len(pkt) < packetOverhead {
		t.Fatalf("packet is %d bytes, shorter than minimum %d", len(pkt), packetOverhead)
	}
	if pkt[0] != 0x41 || pkt[1] != 0x62 {
		t.Errorf("header = %02x %02x, want 41 62", pkt[0], pkt[1])
	}
	if got := binary.BigEndian.Uint16(pkt[2:4]); int(got) != len(pkt) {
		t.Errorf("declared length = %d, actual %d", got, len(pkt))
	}
	if got, want := pkt[len(pkt)-1], Checksum(pkt[:len(pkt)-1]); got != want {
		t.Errorf("checksum = 0x%02x, want 0x%02x", got, want)
	}
}

func TestChecksum(t *testing.T) {
	if got := Checksum(nil); got != 255 {
		t.Errorf("Checksum(nil) = %d, want 255", got)
	}
	if got := Checksum([]byte{0x01, 0x02}); got != 252 {
		t.Errorf("Checksum(01 02) = %d, want 252", got)
	}
	// Sum wraps at a byte.
	if got := Checksum([]byte{0xFF, 0x01}); got != 255 {
		t.Errorf("Checksum(FF 01) = %d, want 255", got)
	}
}

func TestPrintStartPacket(t *testing.T) {
	pkt := PrintStart(0x00012345)
	checkFraming(t, pkt)

	if pkt[4] != funcPrint || pkt[5] != opPrintStart {
		t.Errorf("opcode = %02x %02x, want %02x %02x", pkt[4], pkt[5], funcPrint, opPrintStart)
	}
	wantPayload := []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01, 0x23, 0x45}
	if !bytes.Equal(pkt[6:len(pkt)-1], wantPayload) {
		t.Errorf("payload = %x, want %x", pkt[6:len(pkt)-1], wantPayload)
	}
	if len(pkt) != packetOverhead+8 {
		t.Errorf("packet length = %d, want %d", len(pkt), packetOverhead+8)
	}
}

func TestPrintDataPacket(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	pkt, err := PrintData(7, data)
	if err != nil {
		t.Fatalf("PrintData() error = %v", err)
	}
	checkFraming(t, pkt)

	if pkt[4] != funcPrint || pkt[5] != opPrintData {
		t.Errorf("opcode = %02x %02x, want %02x %02x", pkt[4], pkt[5], funcPrint, opPrintData)
	}
	if got := binary.BigEndian.Uint32(pkt[6:10]); got != 7 {
		t.Errorf("chunk index = %d, want 7", got)
	}
	if !bytes.Equal(pkt[10:len(pkt)-1], data) {
		t.Errorf("chunk payload = %x, want %x", pkt[10:len(pkt)-1], data)
	}
}

func TestPrintDataRejectsOversizeChunk(t *testing.T) {
	_, err := PrintData(0, make([]byte, maxDataPayload+1))
	if !errors.Is(err, ErrOversizeChunk) {
		t.Errorf("PrintData(oversize) error = %v, want ErrOversizeChunk", err)
	}

	// The largest profile chunk is fine.
	if _, err := PrintData(0, make([]byte, maxDataPayload)); err != nil {
		t.Errorf("PrintData(max) error = %v", err)
	}
}

func TestPrintDataRejectsEmptyChunk(t *testing.T) {
	if _, err := PrintData(0, nil); err == nil {
		t.Error("PrintData(empty) succeeded, want error")
	}
}

func TestParameterlessCommands(t *testing.T) {
	tests := []struct {
		name      string
		pkt       []byte
		function  byte
		operation byte
	}{
		{"print end", PrintEnd(), funcPrint, opPrintEnd},
		{"indicator pattern", IndicatorPattern(), funcLED, opLEDPattern},
		{"print execute", PrintExecute(), funcPrint, opPrintExecute},
	}

	for _, tt := range tests {
		checkFraming(t, tt.pkt)
		if tt.pkt[4] != tt.function || tt.pkt[5] != tt.operation {
			t.Errorf("%s: opcode = %02x %02x, want %02x %02x",
				tt.name, tt.pkt[4], tt.pkt[5], tt.function, tt.operation)
		}
		if len(tt.pkt) != packetOverhead {
			t.Errorf("%s: length = %d, want %d", tt.name, len(tt.pkt), packetOverhead)
		}
	}
}

func TestInfoQueryPacket(t *testing.T) {
	pkt := InfoQuery(InfoBattery)
	checkFraming(t, pkt)
	if pkt[4] != funcInfo || pkt[5] != opSupportFunctionInfo {
		t.Errorf("opcode = %02x %02x, want %02x %02x", pkt[4], pkt[5], funcInfo, opSupportFunctionInfo)
	}
	if pkt[6] != byte(InfoBattery) {
		t.Errorf("info type = %d, want %d", pkt[6], InfoBattery)
	}
}

func TestModelProfiles(t *testing.T) {
	tests := []struct {
		model     Model
		width     int
		height    int
		chunkSize int
	}{
		{ModelMini, 600, 800, 900},
		{ModelSquare, 800, 800, 1808},
		{ModelWide, 1260, 840, 900},
	}

	for _, tt := range tests {
		p, err := ModelProfile(tt.model)
		if err != nil {
			t.Fatalf("ModelProfile(%s) error = %v", tt.model, err)
		}
		if p.Width != tt.width || p.Height != tt.height || p.ChunkSize != tt.chunkSize {
			t.Errorf("ModelProfile(%s) = %+v, want %dx%d chunk %d",
				tt.model, p, tt.width, tt.height, tt.chunkSize)
		}
		if p.MaxFileSize != 105*1024 {
			t.Errorf("ModelProfile(%s).MaxFileSize = %d, want %d", tt.model, p.MaxFileSize, 105*1024)
		}

		detected, err := DetectModel(tt.width, tt.height)
		if err != nil || detected != tt.model {
			t.Errorf("DetectModel(%d, %d) = %v, %v, want %s", tt.width, tt.height, detected, err, tt.model)
		}
	}
}

func TestModelProfileUnknown(t *testing.T) {
	if _, err := ModelProfile(Model(99)); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("ModelProfile(99) error = %v, want ErrUnknownModel", err)
	}
	if _, err := DetectModel(1, 1); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("DetectModel(1, 1) error = %v, want ErrUnknownModel", err)
	}
}

func TestParseModel(t *testing.T) {
	for _, name := range []string{"mini", "MINI", "Square", "wide"} {
		if _, err := ParseModel(name); err != nil {
			t.Errorf("ParseModel(%q) error = %v", name, err)
		}
	}
	if _, err := ParseModel("polaroid"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("ParseModel(\"polaroid\") error = %v, want ErrUnknownModel", err)
	}
}
