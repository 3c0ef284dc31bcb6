package accounts

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// metadataHeaderSize covers the key byte and the update authority and mint
// pubkeys that precede the variable length string fields.
const metadataHeaderSize = 1 + 32 + 32

// Metadata is the decoded on-chain metadata account for a mint. The string
// fields are stored fixed-width and NUL padded on chain; decoding strips
// the padding.
type Metadata struct {
	UpdateAuthority solana.PublicKey
	Mint            solana.PublicKey
	Name            string
	Symbol          string
	URI             string
}

// DecodeMetadata decodes a metadata account.
func DecodeMetadata(data []byte) (*Metadata, error) {
	if len(data) < metadataHeaderSize {
		return nil, fmt.Errorf("metadata account too short: got %d bytes, want at least %d", len(data), metadataHeaderSize)
	}

	md := &Metadata{}
	copy(md.UpdateAuthority[:], data[1:33])
	copy(md.Mint[:], data[33:65])

	off := metadataHeaderSize
	var err error
	if md.Name, off, err = readPrefixedString(data, off, "name"); err != nil {
		return nil, err
	}
	if md.Symbol, off, err = readPrefixedString(data, off, "symbol"); err != nil {
		return nil, err
	}
	if md.URI, _, err = readPrefixedString(data, off, "uri"); err != nil {
		return nil, err
	}
	return md, nil
}

// readPrefixedString reads a u32 length prefixed string at off and strips
// trailing NUL padding.
func readPrefixedString(data []byte, off int, field string) (string, int, error) {
	if off+4 > len(data) {
		return "", 0, fmt.Errorf("metadata %s: length prefix truncated at offset %d", field, off)
	}
	n := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	if off+n > len(data) {
		return "", 0, fmt.Errorf("metadata %s: declared length %d exceeds account data", field, n)
	}
	s := strings.TrimRight(string(data[off:off+n]), "\x00")
	return s, off + n, nil
}
