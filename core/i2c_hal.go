package core

import "context"

// BusStatus is the condition code reported after each two-wire bus operation.
// Values match the TWSR status register (prescaler bits masked).
type BusStatus uint8

const (
	StatusStart            BusStatus = 0x08 // Start condition sent
	StatusRepeatedStart    BusStatus = 0x10 // Repeated start sent
	StatusSelectWriteAck   BusStatus = 0x18 // Address + write sent, ACK received
	StatusSelectWriteNack  BusStatus = 0x20 // Address + write sent, NACK received
	StatusDataSentAck      BusStatus = 0x28 // Data sent, ACK received
	StatusDataSentNack     BusStatus = 0x30 // Data sent, NACK received
	StatusArbitrationLost  BusStatus = 0x38
	StatusSelectReadAck    BusStatus = 0x40 // Address + read sent, ACK received
	StatusSelectReadNack   BusStatus = 0x48 // Address + read sent, NACK received
	StatusDataReceivedAck  BusStatus = 0x50 // Data received, ACK returned
	StatusDataReceivedNack BusStatus = 0x58 // Data received, NACK returned
	StatusIdle             BusStatus = 0xF8 // No relevant state information
)

func (s BusStatus) String() string {
	switch s {
	case StatusStart:
		return "START"
	case StatusRepeatedStart:
		return "REP_START"
	case StatusSelectWriteAck:
		return "SLA_W_ACK"
	case StatusSelectWriteNack:
		return "SLA_W_NACK"
	case StatusDataSentAck:
		return "MT_DATA_ACK"
	case StatusDataSentNack:
		return "MT_DATA_NACK"
	case StatusArbitrationLost:
		return "ARB_LOST"
	case StatusSelectReadAck:
		return "SLA_R_ACK"
	case StatusSelectReadNack:
		return "SLA_R_NACK"
	case StatusDataReceivedAck:
		return "MR_DATA_ACK"
	case StatusDataReceivedNack:
		return "MR_DATA_NACK"
	case StatusIdle:
		return "IDLE"
	}
	return "STATUS(" + Hex8(uint8(s)) + ")"
}

// BusMaster is the byte-level two-wire master that the storage protocol drives.
// Errors report only deadline expiry or driver faults; the protocol outcome of
// each step is read back with Status.
type BusMaster interface {
	// Start issues a start (or repeated start) condition and waits for completion
	Start(ctx context.Context) error

	// Stop issues a stop condition without waiting for it to complete
	Stop() error

	// WriteByte transmits b and waits for the ACK/NACK bit
	WriteByte(ctx context.Context, b byte) error

	// ReadByte clocks in one byte, answering ACK when ack is set and NACK otherwise
	ReadByte(ctx context.Context, ack bool) (byte, error)

	// Status returns the condition code of the last operation
	Status() BusStatus
}
