package protocol

import (
	"encoding/binary"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/crypto"
)

// DataFrame is the decoded form of a binary DATA frame: an encrypted
// payload plus the sequence number it was sent under. Ciphertext
// includes the trailing AEAD tag.
type DataFrame struct {
	Seq        config.SequenceNumber
	Nonce      [crypto.NonceLength]byte
	Ciphertext []byte
}

// EncodeDataFrame serializes f into the compact binary form:
//
//	offset 0:  1 byte  = 0x01
//	offset 1:  4 bytes = seq, big-endian
//	offset 5: 24 bytes = nonce
//	offset 29: N bytes = ciphertext (N >= AEADTagLength)
func EncodeDataFrame(f *DataFrame) []byte {
	buf := make([]byte, dataFrameHeaderSize+len(f.Ciphertext))
	buf[0] = DataFrameTag
	binary.BigEndian.PutUint32(buf[1:5], uint32(f.Seq))
	copy(buf[5:dataFrameHeaderSize], f.Nonce[:])
	copy(buf[dataFrameHeaderSize:], f.Ciphertext)
	return buf
}

// DecodeDataFrame parses a binary DATA frame. The caller must already
// have classified data as FrameData via ClassifyFrame.
func DecodeDataFrame(data []byte) (*DataFrame, error) {
	if len(data) < dataFrameHeaderSize+crypto.AEADTagLength {
		return nil, ErrBinaryFrameTooShort
	}
	if data[0] != DataFrameTag {
		return nil, ErrUnrecognizedFrame
	}

	f := &DataFrame{
		Seq: config.SequenceNumber(binary.BigEndian.Uint32(data[1:5])),
	}
	copy(f.Nonce[:], data[5:dataFrameHeaderSize])
	f.Ciphertext = append([]byte(nil), data[dataFrameHeaderSize:]...)
	return f, nil
}
