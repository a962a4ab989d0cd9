package wire

import (
	"errors"
	"unicode/utf8"
)

// StatusCode is a WebSocket close status code (RFC 6455 §7.4.1).
type StatusCode uint16

// Registered close status codes.
const (
	StatusNormalClosure           StatusCode = 1000
	StatusGoingAway               StatusCode = 1001
	StatusProtocolError           StatusCode = 1002
	StatusUnsupportedData         StatusCode = 1003
	StatusReserved                StatusCode = 1004
	StatusNoStatusReceived        StatusCode = 1005
	StatusAbnormalClosure         StatusCode = 1006
	StatusInvalidFramePayloadData StatusCode = 1007
	StatusPolicyViolation         StatusCode = 1008
	StatusMessageTooBig           StatusCode = 1009
	StatusMandatoryExtension      StatusCode = 1010
	StatusInternalError           StatusCode = 1011
	StatusServiceRestart          StatusCode = 1012
	StatusTryAgainLater           StatusCode = 1013
	StatusBadGateway              StatusCode = 1014
	StatusTLSHandshake            StatusCode = 1015
)

// String returns a human-readable name for the status code.
func (c StatusCode) String() string {
	switch c {
	case StatusNormalClosure:
		return "NormalClosure"
	case StatusGoingAway:
		return "GoingAway"
	case StatusProtocolError:
		return "ProtocolError"
	case StatusUnsupportedData:
		return "UnsupportedData"
	case StatusReserved:
		return "Reserved"
	case StatusNoStatusReceived:
		return "NoStatusReceived"
	case StatusAbnormalClosure:
		return "AbnormalClosure"
	case StatusInvalidFramePayloadData:
		return "InvalidFramePayloadData"
	case StatusPolicyViolation:
		return "PolicyViolation"
	case StatusMessageTooBig:
		return "MessageTooBig"
	case StatusMandatoryExtension:
		return "MandatoryExtension"
	case StatusInternalError:
		return "InternalError"
	case StatusServiceRestart:
		return "ServiceRestart"
	case StatusTryAgainLater:
		return "TryAgainLater"
	case StatusBadGateway:
		return "BadGateway"
	case StatusTLSHandshake:
		return "TLSHandshake"
	default:
		return "Unknown"
	}
}

// IsValidOnWire reports whether the code may appear in a close frame
// payload. Codes 1004-1006 and 1015 are reserved for local reporting only,
// codes below 1000 and in 1016-2999 are unassigned, and 3000-4999 are open
// for applications (RFC 6455 §7.4.2).
func (c StatusCode) IsValidOnWire() bool {
	switch {
	case c >= StatusNormalClosure && c <= StatusUnsupportedData:
		return true
	case c >= StatusInvalidFramePayloadData && c <= StatusBadGateway:
		return true
	case c >= 3000 && c <= 4999:
		return true
	default:
		return false
	}
}

// CloseInfo carries the status code and reason of a close frame.
//
// A zero Code together with an empty Reason means the close frame carried
// no payload at all; DecodeCloseInfo reports that case as
// StatusNoStatusReceived per RFC 6455 §7.1.5.
type CloseInfo struct {
	Code   StatusCode
	Reason string
}

// Close payload errors.
var (
	ErrInvalidClosePayload = errors.New("wire: close payload must be empty or at least 2 bytes")
	ErrInvalidCloseCode    = errors.New("wire: close code not allowed on the wire")
	ErrInvalidUTF8         = errors.New("wire: close reason is not valid UTF-8")
	ErrReasonTooLong       = errors.New("wire: close reason exceeds 123 bytes")
)

// EncodeCloseInfo encodes a close frame payload: a big-endian status code
// followed by an optional UTF-8 reason. The code must be valid on the wire
// and the reason must fit the 125-byte control frame ceiling.
func EncodeCloseInfo(info CloseInfo) ([]byte, error) {
	if !info.Code.IsValidOnWire() {
		return nil, ErrInvalidCloseCode
	}
	if len(info.Reason) > MaxCloseReasonSize {
		return nil, ErrReasonTooLong
	}
	if !utf8.ValidString(info.Reason) {
		return nil, ErrInvalidUTF8
	}
	e := NewEncoderWithCap(2 + len(info.Reason))
	e.WriteUint16(uint16(info.Code))
	e.WriteBytes([]byte(info.Reason))
	return e.Bytes(), nil
}

// DecodeCloseInfo decodes a close frame payload. An empty payload is valid
// and decodes to StatusNoStatusReceived; a 1-byte payload is a protocol
// error, as is a reserved code, a reason that is not UTF-8, or a payload
// that could never fit a control frame.
func DecodeCloseInfo(payload []byte) (CloseInfo, error) {
	if len(payload) == 0 {
		return CloseInfo{Code: StatusNoStatusReceived}, nil
	}
	if len(payload) == 1 {
		return CloseInfo{}, ErrInvalidClosePayload
	}
	if len(payload) > MaxControlPayloadSize {
		return CloseInfo{}, ErrReasonTooLong
	}
	code := StatusCode(uint16(payload[0])<<8 | uint16(payload[1]))
	if !code.IsValidOnWire() {
		return CloseInfo{}, ErrInvalidCloseCode
	}
	reason := payload[2:]
	if !utf8.Valid(reason) {
		return CloseInfo{}, ErrInvalidUTF8
	}
	return CloseInfo{Code: code, Reason: string(reason)}, nil
}
