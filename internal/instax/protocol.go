// Package instax implements the reverse-engineered Fujifilm Instax BLE
// protocol: command packet encoding, the per-model transfer parameters, and
// the paced print-job orchestration. Response payloads from the printer are
// not decoded here; they are forwarded raw to whoever subscribed.
package instax

import (
	"encoding/binary"
	"fmt"
)

// Packet framing. Every command is:
//
//	header(2) + length(2, big-endian, whole packet) + function(1) +
//	operation(1) + payload + checksum(1)
//
// The checksum is (255 - sum of all preceding bytes) & 0xFF.
const (
	headerToDevice0 = 0x41
	headerToDevice1 = 0x62

	packetOverhead = 7 // header + length + opcode + checksum
)

// Function codes.
const (
	funcInfo  = 0x00
	funcPrint = 0x10
	funcLED   = 0x30
)

// Operation codes.
const (
	opSupportFunctionInfo = 0x02

	opPrintStart   = 0x00
	opPrintData    = 0x01
	opPrintEnd     = 0x02
	opPrintExecute = 0x80

	opLEDPattern = 0x01
)

// maxDataPayload is the largest chunk any known model accepts per print
// data command (the Square's 1808-byte chunk). Anything larger did not
// come from a model profile and would be rejected by the printer.
const maxDataPayload = 1808

// InfoType selects which printer info an info query asks for.
type InfoType byte

const (
	InfoImageSupport    InfoType = 0
	InfoBattery         InfoType = 1
	InfoPrinterFunction InfoType = 2
	InfoPrintHistory    InfoType = 3
)

// Checksum returns the packet checksum over data.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return 255 - sum
}

// packet assembles a framed command with the given opcode and payload.
func packet(function, operation byte, payload []byte) []byte {
	total := packetOverhead + len(payload)
	buf := make([]byte, 0, total)
	buf = append(buf, headerToDevice0, headerToDevice1)
	buf = binary.BigEndian.AppendUint16(buf, uint16(total))
	buf = append(buf, function, operation)
	buf = append(buf, payload...)
	buf = append(buf, Checksum(buf))
	return buf
}

// PrintStart encodes the command announcing an upcoming image transfer of
// imageSize bytes.
func PrintStart(imageSize uint32) []byte {
	payload := make([]byte, 0, 8)
	payload = append(payload, 0x02, 0x00, 0x00, 0x00)
	payload = binary.BigEndian.AppendUint32(payload, imageSize)
	return packet(funcPrint, opPrintStart, payload)
}

// PrintData encodes one image data chunk. chunkIndex is the 0-based position
// of this chunk in the transfer. Fails if the chunk is empty or larger than
// any model's accepted chunk size.
func PrintData(chunkIndex uint32, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("instax: print data chunk %d is empty", chunkIndex)
	}
	if len(data) > maxDataPayload {
		return nil, fmt.Errorf("%w: chunk %d is %d bytes, limit %d",
			ErrOversizeChunk, chunkIndex, len(data), maxDataPayload)
	}
	payload := make([]byte, 0, 4+len(data))
	payload = binary.BigEndian.AppendUint32(payload, chunkIndex)
	payload = append(payload, data...)
	return packet(funcPrint, opPrintData, payload), nil
}

// PrintEnd encodes the command closing the image transfer.
func PrintEnd() []byte {
	return packet(funcPrint, opPrintEnd, nil)
}

// IndicatorPattern encodes the LED pattern command the Link 3 requires
// between print end and print execute.
func IndicatorPattern() []byte {
	return packet(funcLED, opLEDPattern, nil)
}

// PrintExecute encodes the command that starts the physical print.
func PrintExecute() []byte {
	return packet(funcPrint, opPrintExecute, nil)
}

// InfoQuery encodes a printer info query. The response arrives on the
// notification channel and is not decoded by this package.
func InfoQuery(t InfoType) []byte {
	return packet(funcInfo, opSupportFunctionInfo, []byte{byte(t)})
}
