// Package rudp implements a reliable, connection-oriented byte stream on
// top of unreliable UDP datagrams: framed packets, per-packet sequence
// numbers, acknowledgement tracking, a windowed sender, and a
// retransmission timer.
package rudp

import (
	"encoding/binary"
	"errors"
)

// PacketType identifies the role of an RUDP packet on the wire.
type PacketType uint32

// Packet types, big-endian encoded in the first 4 header bytes.
const (
	TypeSYN  PacketType = 0
	TypeDATA PacketType = 1
	TypeACK  PacketType = 2
	TypeEND  PacketType = 3
	TypeRST  PacketType = 4
)

func (t PacketType) String() string {
	switch t {
	case TypeSYN:
		return "SYN"
	case TypeDATA:
		return "DATA"
	case TypeACK:
		return "ACK"
	case TypeEND:
		return "END"
	case TypeRST:
		return "RST"
	default:
		return "UNKNOWN"
	}
}

// HeaderLen is the fixed size, in bytes, of an RUDP packet header:
// 4 bytes packet-type, 4 bytes sequence-number, 4 bytes data-length.
const HeaderLen = 12

// SeqModulus is the width of the sequence-number space; sequence
// numbers wrap from 65535 back to 0.
const SeqModulus = 65536

// ErrShortPacket is returned when a datagram is too small to contain a
// full RUDP header.
var ErrShortPacket = errors.New("rudp: packet shorter than header")

// ErrTruncatedPayload is returned when the header's declared
// data-length exceeds the bytes actually present in the datagram.
var ErrTruncatedPayload = errors.New("rudp: payload shorter than declared length")

// Packet is a single framed RUDP datagram.
type Packet struct {
	Type    PacketType
	Seq     uint32
	Payload []byte
}

// Encode serializes p into its 12-byte-header wire representation.
func Encode(p Packet) []byte {
	buf := make([]byte, HeaderLen+len(p.Payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(p.Type))
	binary.BigEndian.PutUint32(buf[4:8], p.Seq)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(p.Payload)))
	copy(buf[HeaderLen:], p.Payload)
	return buf
}

// Decode parses a raw datagram into a Packet.
func Decode(raw []byte) (Packet, error) {
	if len(raw) < HeaderLen {
		return Packet{}, ErrShortPacket
	}

	typ := PacketType(binary.BigEndian.Uint32(raw[0:4]))
	seq := binary.BigEndian.Uint32(raw[4:8])
	length := binary.BigEndian.Uint32(raw[8:12])

	if HeaderLen+int(length) > len(raw) {
		return Packet{}, ErrTruncatedPayload
	}

	payload := make([]byte, length)
	copy(payload, raw[HeaderLen:HeaderLen+int(length)])

	return Packet{Type: typ, Seq: seq, Payload: payload}, nil
}

// NextSeq returns seq advanced by one, wrapping at SeqModulus per §3's
// "wraps at 65536" invariant.
func NextSeq(seq uint32) uint32 {
	return (seq + 1) % SeqModulus
}

// SlotIndex returns the reassembly slot offset of seq relative to
// first, computed modulo the sequence space so a wraparound between
// first and seq still yields a small, non-negative offset.
func SlotIndex(seq, first uint32) int {
	return int((seq - first + SeqModulus) % SeqModulus)
}
